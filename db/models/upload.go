package models

// Upload is the stored form of an ingested blob. DataURL is what callers
// embed in avatar, banner and media fields.
type Upload struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Type      string `json:"type"`
	DataURL   string `json:"dataUrl"`
	MimeType  string `json:"mimeType"`
	Size      int64  `json:"size"`
	SHA256    string `json:"sha256"`
	Timestamp int64  `json:"timestamp"`
}

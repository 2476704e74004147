package models

// Request and response bodies of the HTTP API, shared by db/core and client.

type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	Banner    string `json:"banner,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User         *User  `json:"user"`
	SessionToken string `json:"sessionToken"`
}

type VerifySessionRequest struct {
	SessionToken string `json:"sessionToken"`
	Username     string `json:"username"`
}

type VerifySessionResponse struct {
	Valid bool  `json:"valid"`
	User  *User `json:"user,omitempty"`
}

type LogoutRequest struct {
	SessionToken string `json:"sessionToken"`
}

type UpdateOnlineRequest struct {
	Username string `json:"username"`
	IsOnline bool   `json:"isOnline"`
}

type UpdateProfileRequest struct {
	Username string         `json:"username"`
	Updates  ProfileUpdates `json:"updates"`
}

type FollowRequest struct {
	Follower  string `json:"follower"`
	Following string `json:"following"`
}

type CreatePostRequest struct {
	Username string  `json:"username"`
	Content  string  `json:"content"`
	Media    []Media `json:"media,omitempty"`
}

type PostActionRequest struct {
	PostID   string `json:"postId"`
	Username string `json:"username"`
}

type AddCommentRequest struct {
	PostID   string  `json:"postId"`
	Username string  `json:"username"`
	Content  string  `json:"content"`
	Media    []Media `json:"media,omitempty"`
}

type CreateClipRequest struct {
	Username  string `json:"username"`
	VideoURL  string `json:"videoUrl"`
	Thumbnail string `json:"thumbnail"`
	Title     string `json:"title"`
}

type ClipActionRequest struct {
	ClipID   string `json:"clipId"`
	Username string `json:"username"`
}

type CreateTrackRequest struct {
	Username string  `json:"username"`
	Title    string  `json:"title"`
	Artist   string  `json:"artist,omitempty"`
	AudioURL string  `json:"audioUrl"`
	CoverURL string  `json:"coverUrl"`
	Duration float64 `json:"duration"`
}

type TrackActionRequest struct {
	TrackID  string `json:"trackId"`
	Username string `json:"username"`
}

type AdminTargetRequest struct {
	AdminUsername  string `json:"adminUsername"`
	TargetUsername string `json:"targetUsername"`
}

type BroadcastRequest struct {
	AdminUsername string `json:"adminUsername"`
	Message       string `json:"message"`
}

type BroadcastResponse struct {
	Success    bool `json:"success"`
	Recipients int  `json:"recipients"`
}

type Stats struct {
	TotalUsers  int `json:"totalUsers"`
	TotalPosts  int `json:"totalPosts"`
	TotalClips  int `json:"totalClips"`
	TotalTracks int `json:"totalTracks"`
	OnlineUsers int `json:"onlineUsers"`
}

type SearchResults struct {
	Users []*User `json:"users"`
	Posts []*Post `json:"posts"`
}

type UploadResponse struct {
	URL string `json:"url"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

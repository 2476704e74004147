package models

// Likeable is implemented by every content entity kept in a like-able
// collection (posts, clips, tracks).
type Likeable interface {
	EntityID() string
	Owner() string
	Timestamp() int64
	LikeSet() *[]string
}

type Media struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

type Comment struct {
	ID        string  `json:"id"`
	Author    string  `json:"author"`
	Content   string  `json:"content"`
	Media     []Media `json:"media,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

type Post struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Media     []Media   `json:"media"`
	Likes     []string  `json:"likes"`
	Comments  []Comment `json:"comments"`
	Reposts   []string  `json:"reposts"`
	CreatedAt int64     `json:"timestamp"`
}

func (p *Post) EntityID() string { return p.ID }
func (p *Post) Owner() string { return p.Author }
func (p *Post) Timestamp() int64 { return p.CreatedAt }
func (p *Post) LikeSet() *[]string { return &p.Likes }

type Clip struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	VideoURL  string    `json:"videoUrl"`
	Thumbnail string    `json:"thumbnail"`
	Title     string    `json:"title"`
	Likes     []string  `json:"likes"`
	Comments  []Comment `json:"comments"`
	Views     int64     `json:"views"`
	CreatedAt int64     `json:"timestamp"`
}

func (c *Clip) EntityID() string { return c.ID }
func (c *Clip) Owner() string { return c.Author }
func (c *Clip) Timestamp() int64 { return c.CreatedAt }
func (c *Clip) LikeSet() *[]string { return &c.Likes }

type Track struct {
	ID        string   `json:"id"`
	Uploader  string   `json:"uploader"`
	Title     string   `json:"title"`
	Artist    string   `json:"artist"`
	AudioURL  string   `json:"audioUrl"`
	CoverURL  string   `json:"coverUrl"`
	Duration  float64  `json:"duration"`
	Likes     []string `json:"likes"`
	Plays     int64    `json:"plays"`
	CreatedAt int64    `json:"timestamp"`
}

func (t *Track) EntityID() string { return t.ID }
func (t *Track) Owner() string { return t.Uploader }
func (t *Track) Timestamp() int64 { return t.CreatedAt }
func (t *Track) LikeSet() *[]string { return &t.Likes }

package models

import "slices"

type User struct {
	Username     string   `json:"username"`
	PasswordHash string   `json:"passwordHash,omitempty"`
	Email        string   `json:"email"`
	FirstName    string   `json:"firstName"`
	LastName     string   `json:"lastName"`
	Avatar       string   `json:"avatar"`
	Banner       string   `json:"banner"`
	IsAdmin      bool     `json:"isAdmin"`
	IsVerified   bool     `json:"isVerified"`
	IsOnline     bool     `json:"isOnline"`
	Followers    []string `json:"followers"`
	Following    []string `json:"following"`
	Posts        []string `json:"posts"`
	Bio          string   `json:"bio"`
	Location     string   `json:"location"`
	Website      string   `json:"website"`
	CreatedAt    int64    `json:"createdAt"`
}

// Sanitized returns a copy that is safe to hand to clients.
func (u *User) Sanitized() *User {
	cp := *u
	cp.PasswordHash = ""
	cp.Followers = nonNil(slices.Clone(u.Followers))
	cp.Following = nonNil(slices.Clone(u.Following))
	cp.Posts = nonNil(slices.Clone(u.Posts))
	return &cp
}

type Session struct {
	Username  string `json:"username"`
	CreatedAt int64  `json:"createdAt"`
}

// ProfileUpdates holds the user fields a profile update may touch.
// Nil fields are left alone.
type ProfileUpdates struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	Location  *string `json:"location,omitempty"`
	Website   *string `json:"website,omitempty"`
	Avatar    *string `json:"avatar,omitempty"`
	Banner    *string `json:"banner,omitempty"`
}

func (p ProfileUpdates) Apply(u *User) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&u.FirstName, p.FirstName)
	set(&u.LastName, p.LastName)
	set(&u.Bio, p.Bio)
	set(&u.Location, p.Location)
	set(&u.Website, p.Website)
	set(&u.Avatar, p.Avatar)
	set(&u.Banner, p.Banner)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

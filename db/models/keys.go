package models

import (
	"regexp"
	"strings"
)

const (
	UserPrefix         = "user:"
	SessionPrefix      = "session:"
	PostPrefix         = "post:"
	ClipPrefix         = "clip:"
	TrackPrefix        = "track:"
	NotificationPrefix = "notification:"
	UploadPrefix       = "file:"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,32}$`)

// ValidUsername reports whether name is safe to embed in a key. The key
// scheme is ':' separated, so anything outside the allowed set is refused.
func ValidUsername(name string) bool {
	return usernamePattern.MatchString(name)
}

func WithUser(username string) string {
	return UserPrefix + username
}

func WithSession(token string) string {
	return SessionPrefix + token
}

func WithPost(id string) string {
	return PostPrefix + id
}

func WithClip(id string) string {
	return ClipPrefix + id
}

func WithTrack(id string) string {
	return TrackPrefix + id
}

// WithNotifications is the scan prefix for everything addressed to recipient.
// The trailing separator keeps "bob" from matching "bobby".
func WithNotifications(recipient string) string {
	return NotificationPrefix + recipient + ":"
}

func WithNotification(recipient, id string) string {
	return WithNotifications(recipient) + id
}

func WithUpload(username, kind, id string) string {
	return strings.Join([]string{UploadPrefix + username, kind, id}, ":")
}

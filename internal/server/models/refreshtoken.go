package models

import "time"

// RefreshToken is an opaque, single-use token exchanged for a new token pair.
type RefreshToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// Expired reports whether the token is no longer usable at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

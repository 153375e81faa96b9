// Package models holds the server's account records. Farm rows are not
// modelled here; they travel as schema.Row.
package models

import "time"

// User is an account. The server never sees the password, only the salt the
// client chose and the verifier derived from password and salt.
type User struct {
	ID        string
	UserName  string
	Salt      []byte
	Verifier  []byte
	CreatedAt time.Time
}

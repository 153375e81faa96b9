package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/growkeeper/internal/schema"
)

// Client is the remote side as seen by the sync orchestrator and the CLI.
type Client interface {
	Register(ctx context.Context, username string, salt []byte, verifier []byte) error
	GetSalt(ctx context.Context, username string) ([]byte, error)
	Login(ctx context.Context, username string, verifier []byte) (access, refresh string, err error)
	Ping(ctx context.Context) error

	// Pull returns every change after since. The returned Timestamp is
	// always set and canonical.
	Pull(ctx context.Context, since time.Time) (*schema.Changes, error)
	// Push sends local changes and returns the server clock.
	Push(ctx context.Context, changes schema.Changes) (time.Time, error)
	// UploadPhoto posts the file at path and returns its storage key.
	UploadPhoto(ctx context.Context, path string) (string, error)
}

// TokenStore holds the session tokens. Refreshed pairs are written back.
type TokenStore interface {
	Tokens() (access, refresh string)
	SetTokens(ctx context.Context, access, refresh string) error
}

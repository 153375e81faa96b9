package metadata

import (
	"context"
)

// Repository is the client's key/value preference store. Values are text;
// a missing key reads as ("", false).
type Repository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, keys ...string) error
	List(ctx context.Context) (map[string]string, error)
}

// Package api is the JSON wire contract between the client and the sync
// server. Row payloads of /sync/pull and /sync/push are schema.Changes;
// everything else is defined here.
package api

const (
	PathHealth   = "/healthz"
	PathRegister = "/auth/register"
	PathSalt     = "/auth/salt"
	PathLogin    = "/auth/login"
	PathRefresh  = "/auth/refresh"
	PathPull     = "/sync/pull"
	PathPush     = "/sync/push"
	PathPhotos   = "/photos"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Salt     []byte `json:"salt"`
	Verifier []byte `json:"verifier"`
}

type SaltRequest struct {
	Username string `json:"username"`
}

type SaltResponse struct {
	Salt []byte `json:"salt"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Verifier []byte `json:"verifier"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type PullRequest struct {
	Since string `json:"since"`
}

type PushResponse struct {
	Timestamp string `json:"timestamp"`
}

type PhotoResponse struct {
	Key  string `json:"key"`
	Size int64  `json:"size,omitempty"`
}

// PhotoItem is one entry of GET /photos.
type PhotoItem struct {
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	Uploaded string `json:"uploaded"`
}

// PhotoListResponse is a page of stored photos. Cursor is the key to pass
// as "cursor" for the next page and is null on the last one.
type PhotoListResponse struct {
	Items  []PhotoItem `json:"items"`
	Cursor *string     `json:"cursor"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/growkeeper/internal/api"
	"github.com/dmitrijs2005/growkeeper/internal/common"
	"github.com/dmitrijs2005/growkeeper/internal/netx"
	"github.com/dmitrijs2005/growkeeper/internal/schema"
	"github.com/dmitrijs2005/growkeeper/internal/timex"
)

// HTTPClient talks to the sync server over JSON/HTTP. Every call except the
// /auth and /healthz endpoints carries the access token; a 401 "token
// expired" reply triggers one refresh and one retry.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore

	refreshMu sync.Mutex
}

func NewHTTPClient(baseURL string, timeout time.Duration, tokens TokenStore) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

type requestBuilder func(ctx context.Context) (*http.Request, error)

func (c *HTTPClient) jsonRequest(method, path string, body any) requestBuilder {
	return func(ctx context.Context) (*http.Request, error) {
		var r io.Reader
		if body != nil {
			b, err := json.Marshal(body)
			if err != nil {
				return nil, err
			}
			r = bytes.NewReader(b)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, nil
	}
}

func (c *HTTPClient) Register(ctx context.Context, username string, salt []byte, verifier []byte) error {
	req := api.RegisterRequest{Username: username, Salt: salt, Verifier: verifier}
	return c.do(ctx, c.jsonRequest(http.MethodPost, api.PathRegister, req), false, nil)
}

func (c *HTTPClient) GetSalt(ctx context.Context, username string) ([]byte, error) {
	var resp api.SaltResponse
	err := c.do(ctx, c.jsonRequest(http.MethodPost, api.PathSalt, api.SaltRequest{Username: username}), false, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Salt, nil
}

func (c *HTTPClient) Login(ctx context.Context, username string, verifier []byte) (string, string, error) {
	var resp api.TokenResponse
	err := c.do(ctx, c.jsonRequest(http.MethodPost, api.PathLogin, api.LoginRequest{Username: username, Verifier: verifier}), false, &resp)
	if err != nil {
		return "", "", err
	}
	return resp.AccessToken, resp.RefreshToken, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	var resp api.HealthResponse
	if err := c.do(ctx, c.jsonRequest(http.MethodGet, api.PathHealth, nil), false, &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return ErrUnavailable
	}
	return nil
}

func (c *HTTPClient) Pull(ctx context.Context, since time.Time) (*schema.Changes, error) {
	var changes schema.Changes
	req := api.PullRequest{Since: timex.FormatTimestamp(since)}
	if err := c.do(ctx, c.jsonRequest(http.MethodPost, api.PathPull, req), true, &changes); err != nil {
		return nil, err
	}
	if changes.Timestamp == "" {
		return nil, fmt.Errorf("pull: missing timestamp: %w", ErrMalformedPayload)
	}
	ts, err := timex.NormalizeTimestamp(changes.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("pull: %v: %w", err, ErrMalformedPayload)
	}
	changes.Timestamp = ts
	return &changes, nil
}

func (c *HTTPClient) Push(ctx context.Context, changes schema.Changes) (time.Time, error) {
	var resp api.PushResponse
	if err := c.do(ctx, c.jsonRequest(http.MethodPost, api.PathPush, changes), true, &resp); err != nil {
		return time.Time{}, err
	}
	ts, err := timex.ParseTimestamp(resp.Timestamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("push: %v: %w", err, ErrMalformedPayload)
	}
	return ts, nil
}

func (c *HTTPClient) UploadPhoto(ctx context.Context, path string) (string, error) {
	build := func(ctx context.Context) (*http.Request, error) {
		return netx.NewMultipartFileRequest(ctx, c.baseURL+api.PathPhotos, common.PhotoFormField, path)
	}
	var resp api.PhotoResponse
	if err := c.do(ctx, build, true, &resp); err != nil {
		return "", err
	}
	if resp.Key == "" {
		return "", fmt.Errorf("upload: empty key: %w", ErrMalformedPayload)
	}
	return resp.Key, nil
}

// do sends the request and decodes a 2xx body into out. Authenticated calls
// refresh an expired access token once and replay the request.
func (c *HTTPClient) do(ctx context.Context, build requestBuilder, auth bool, out any) error {
	access := ""
	if auth {
		access, _ = c.tokens.Tokens()
	}

	err := c.send(ctx, build, access, out)
	if !auth || !errors.Is(err, common.ErrTokenExpired) {
		return err
	}

	access, err = c.refresh(ctx, access)
	if err != nil {
		return err
	}
	return c.send(ctx, build, access, out)
}

func (c *HTTPClient) send(ctx context.Context, build requestBuilder, access string, out any) error {
	req, err := build(ctx)
	if err != nil {
		return err
	}
	if access != "" {
		req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+access)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s %s: %v: %w", req.Method, req.URL.Path, err, ErrMalformedPayload)
		}
		return nil
	}

	return statusError(resp)
}

func statusError(resp *http.Response) error {
	msg := netx.ErrorBody(resp)
	var eb api.ErrorResponse
	if json.Unmarshal([]byte(msg), &eb) == nil && eb.Error != "" {
		msg = eb.Error
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if msg == common.ErrTokenExpired.Error() {
			return common.ErrTokenExpired
		}
		return ErrUnauthorized
	case http.StatusConflict:
		if msg == common.ErrUserAlreadyExists.Error() {
			return common.ErrUserAlreadyExists
		}
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return &StatusError{Code: resp.StatusCode, Message: msg}
}

// refresh exchanges the refresh token for a new pair unless another caller
// already did so while we waited for the lock.
func (c *HTTPClient) refresh(ctx context.Context, stale string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	access, refresh := c.tokens.Tokens()
	if access != stale && access != "" {
		return access, nil
	}
	if refresh == "" {
		return "", ErrUnauthorized
	}

	var resp api.TokenResponse
	err := c.send(ctx, c.jsonRequest(http.MethodPost, api.PathRefresh, api.RefreshRequest{RefreshToken: refresh}), "", &resp)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return "", ErrUnauthorized
		}
		return "", err
	}
	if err := c.tokens.SetTokens(ctx, resp.AccessToken, resp.RefreshToken); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

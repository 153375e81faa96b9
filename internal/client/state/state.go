// Package state holds the client's persisted sync state: the watermark and
// the session (user name, access and refresh tokens). Values live in the
// metadata key/value table and are read and written only through explicit
// Load and persist calls.
package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/growkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/growkeeper/internal/timex"
)

const (
	KeyLastSync     = "last_sync_timestamp"
	KeyUserName     = "username"
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

// SyncState is safe for concurrent use. The zero watermark is timex.Epoch.
type SyncState struct {
	repo metadata.Repository

	mu           sync.RWMutex
	lastSync     time.Time
	userName     string
	accessToken  string
	refreshToken string
}

func New(repo metadata.Repository) *SyncState {
	return &SyncState{repo: repo, lastSync: timex.Epoch}
}

// Load replaces the in-memory state with what is persisted.
func (s *SyncState) Load(ctx context.Context) error {
	all, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	lastSync := timex.Epoch
	if v := all[KeyLastSync]; v != "" {
		lastSync, err = timex.ParseTimestamp(v)
		if err != nil {
			return fmt.Errorf("corrupt %s: %w", KeyLastSync, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSync = lastSync
	s.userName = all[KeyUserName]
	s.accessToken = all[KeyAccessToken]
	s.refreshToken = all[KeyRefreshToken]
	return nil
}

func (s *SyncState) Watermark() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSync
}

// CommitWatermark persists t as the new watermark. The in-memory value only
// changes once the write succeeded.
func (s *SyncState) CommitWatermark(ctx context.Context, t time.Time) error {
	if err := s.repo.Set(ctx, KeyLastSync, timex.FormatTimestamp(t)); err != nil {
		return err
	}
	s.mu.Lock()
	s.lastSync = t.UTC()
	s.mu.Unlock()
	return nil
}

// ResetWatermark forgets the watermark so the next sync pulls everything.
func (s *SyncState) ResetWatermark(ctx context.Context) error {
	if err := s.repo.Delete(ctx, KeyLastSync); err != nil {
		return err
	}
	s.mu.Lock()
	s.lastSync = timex.Epoch
	s.mu.Unlock()
	return nil
}

func (s *SyncState) UserName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userName
}

func (s *SyncState) Tokens() (access, refresh string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken, s.refreshToken
}

// SetTokens persists a refreshed token pair.
func (s *SyncState) SetTokens(ctx context.Context, access, refresh string) error {
	if err := s.repo.Set(ctx, KeyAccessToken, access); err != nil {
		return err
	}
	if err := s.repo.Set(ctx, KeyRefreshToken, refresh); err != nil {
		return err
	}
	s.mu.Lock()
	s.accessToken, s.refreshToken = access, refresh
	s.mu.Unlock()
	return nil
}

// SetSession persists a fresh login.
func (s *SyncState) SetSession(ctx context.Context, userName, access, refresh string) error {
	if err := s.repo.Set(ctx, KeyUserName, userName); err != nil {
		return err
	}
	if err := s.SetTokens(ctx, access, refresh); err != nil {
		return err
	}
	s.mu.Lock()
	s.userName = userName
	s.mu.Unlock()
	return nil
}

// ClearSession forgets the user and tokens. The watermark is kept.
func (s *SyncState) ClearSession(ctx context.Context) error {
	if err := s.repo.Delete(ctx, KeyUserName, KeyAccessToken, KeyRefreshToken); err != nil {
		return err
	}
	s.mu.Lock()
	s.userName, s.accessToken, s.refreshToken = "", "", ""
	s.mu.Unlock()
	return nil
}

// LoggedIn reports whether an access token is held.
func (s *SyncState) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken != ""
}

package services

import (
	"context"
	"sync"
)

// Syncer is what a Trigger runs.
type Syncer interface {
	Sync(ctx context.Context) (SyncResult, error)
}

// Trigger lets at most one sync run at a time. A call made while a run is
// in flight returns ErrSyncInProgress instead of queueing.
type Trigger struct {
	syncer Syncer
	mu     sync.Mutex
}

func NewTrigger(s Syncer) *Trigger {
	return &Trigger{syncer: s}
}

func (t *Trigger) Run(ctx context.Context) (SyncResult, error) {
	if !t.mu.TryLock() {
		return SyncResult{}, ErrSyncInProgress
	}
	defer t.mu.Unlock()
	return t.syncer.Sync(ctx)
}

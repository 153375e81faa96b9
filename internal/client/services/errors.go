package services

import (
	"errors"
	"fmt"
)

// Phase names the step of a sync run that failed.
type Phase string

const (
	PhasePrepare     Phase = "prepare"
	PhasePull        Phase = "pull"
	PhasePush        Phase = "push"
	PhaseAttachments Phase = "attachments"
	PhaseCommit      Phase = "commit"
)

var (
	ErrSyncInProgress = errors.New("sync already in progress")
	ErrNotLoggedIn    = errors.New("not logged in")
)

// SyncError is the only error Sync returns. The watermark is never advanced
// when a SyncError is returned.
type SyncError struct {
	Phase Phase
	Err   error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync failed during %s: %v", e.Phase, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

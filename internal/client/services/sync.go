package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/growkeeper/internal/client/client"
	"github.com/dmitrijs2005/growkeeper/internal/client/repositories/rows"
	"github.com/dmitrijs2005/growkeeper/internal/logging"
	"github.com/dmitrijs2005/growkeeper/internal/schema"
	"github.com/dmitrijs2005/growkeeper/internal/timex"
)

// SyncResult reports what one run changed.
type SyncResult struct {
	Pulled         int
	Pushed         int
	PhotosUploaded int
}

// Watermark is the persisted boundary through which the local store is
// reconciled with the server.
type Watermark interface {
	Watermark() time.Time
	CommitWatermark(ctx context.Context, t time.Time) error
}

// SyncService runs sync passes. It does not guard against concurrent calls;
// use a Trigger for that.
type SyncService struct {
	client    client.Client
	rows      rows.Repository
	watermark Watermark
	photosDir string
	logger    logging.Logger
	now       func() time.Time
}

func NewSyncService(c client.Client, r rows.Repository, w Watermark, photosDir string, logger logging.Logger) *SyncService {
	return &SyncService{
		client:    c,
		rows:      r,
		watermark: w,
		photosDir: photosDir,
		logger:    logger,
		now:       time.Now,
	}
}

// rowKey identifies a row across tables.
type rowKey struct {
	table string
	id    string
}

// Sync runs pull, push, attachment upload and watermark commit in that order.
// Rows edited or deleted locally since the previous sync are not overwritten
// by the pull, so the push sends them unchanged and the local version wins.
func (s *SyncService) Sync(ctx context.Context) (SyncResult, error) {
	var res SyncResult
	prev := s.watermark.Watermark()
	s.logger.Info(ctx, "sync started", "since", timex.FormatTimestamp(prev))

	pending, err := s.localChanges(ctx, prev)
	if err != nil {
		return res, s.fail(ctx, PhasePrepare, err)
	}

	if err := ctx.Err(); err != nil {
		return res, s.fail(ctx, PhasePull, err)
	}
	applied, pulled, tPull, err := s.pull(ctx, prev, pending)
	if err != nil {
		return res, s.fail(ctx, PhasePull, err)
	}
	res.Pulled = pulled

	if err := ctx.Err(); err != nil {
		return res, s.fail(ctx, PhasePush, err)
	}
	pushed, tPush, err := s.push(ctx, prev, applied)
	if err != nil {
		return res, s.fail(ctx, PhasePush, err)
	}
	res.Pushed = pushed

	if err := ctx.Err(); err != nil {
		return res, s.fail(ctx, PhaseAttachments, err)
	}
	res.PhotosUploaded, err = s.SyncAttachments(ctx)
	if err != nil {
		return res, s.fail(ctx, PhaseAttachments, err)
	}

	next := s.now().UTC()
	switch {
	case !tPull.IsZero():
		next = tPull
	case !tPush.IsZero():
		next = tPush
	}
	if next.Before(prev) {
		next = prev
	}

	if err := ctx.Err(); err != nil {
		return res, s.fail(ctx, PhaseCommit, err)
	}
	if err := s.watermark.CommitWatermark(ctx, next); err != nil {
		return res, s.fail(ctx, PhaseCommit, err)
	}

	s.logger.Info(ctx, "sync finished",
		"pulled", res.Pulled, "pushed", res.Pushed, "photos", res.PhotosUploaded,
		"watermark", timex.FormatTimestamp(next))
	return res, nil
}

func (s *SyncService) fail(ctx context.Context, phase Phase, err error) error {
	s.logger.Error(ctx, "sync failed", "phase", string(phase), "error", err)
	return &SyncError{Phase: phase, Err: err}
}

// localChanges snapshots the rows and tombstones written locally since prev.
func (s *SyncService) localChanges(ctx context.Context, prev time.Time) (map[rowKey]struct{}, error) {
	pending := make(map[rowKey]struct{})
	for _, t := range schema.Tables() {
		changed, err := s.rows.RowsModifiedSince(ctx, t, prev)
		if err != nil {
			return nil, err
		}
		for _, r := range changed {
			pending[rowKey{t.Name, r.ID()}] = struct{}{}
		}
	}

	deleted, err := s.rows.DeletedSince(ctx, prev)
	if err != nil {
		return nil, err
	}
	for _, d := range deleted {
		pending[rowKey{d.TableName, d.ID}] = struct{}{}
	}
	return pending, nil
}

// pull applies remote changes. It returns, per applied row, the updated_at
// it was written with ("" for applied deletions), and the number of rows
// written plus rows removed. A tombstone for a row that is already gone,
// such as the server's copy of our own deletion, is not counted.
func (s *SyncService) pull(ctx context.Context, prev time.Time, pending map[rowKey]struct{}) (map[rowKey]string, int, time.Time, error) {
	changes, err := s.client.Pull(ctx, prev)
	if err != nil {
		return nil, 0, time.Time{}, err
	}
	tPull, err := timex.ParseTimestamp(changes.Timestamp)
	if err != nil {
		return nil, 0, time.Time{}, fmt.Errorf("%v: %w", err, client.ErrMalformedPayload)
	}

	// Resolve every tombstone table before writing anything.
	for _, d := range changes.Deleted {
		if _, ok := schema.Lookup(d.TableName); !ok {
			return nil, 0, time.Time{}, fmt.Errorf("deleted %s: %w: %w", d.TableName, schema.ErrUnknownTable, client.ErrMalformedPayload)
		}
	}

	applied := make(map[rowKey]string)
	count, skipped := 0, 0
	for _, t := range schema.Tables() {
		for _, r := range changes.Tables[t.Name] {
			key := rowKey{t.Name, r.ID()}
			if _, local := pending[key]; local {
				skipped++
				continue
			}
			if err := s.rows.UpsertRow(ctx, t, r); err != nil {
				return nil, 0, time.Time{}, err
			}
			applied[key] = r.UpdatedAt()
			count++
		}
	}

	for _, d := range changes.Deleted {
		t, _ := schema.Lookup(d.TableName)
		key := rowKey{t.Name, d.ID}
		if _, local := pending[key]; local {
			skipped++
			continue
		}
		removed, err := s.rows.ApplyDeletion(ctx, t, d.ID)
		if err != nil {
			return nil, 0, time.Time{}, err
		}
		applied[key] = ""
		if removed {
			count++
		}
	}

	s.logger.Info(ctx, "pull applied", "applied", count, "kept_local", skipped)
	return applied, count, tPull, nil
}

// push sends local changes since prev, leaving out rows this run just pulled.
// It returns the zero time when there was nothing to send.
func (s *SyncService) push(ctx context.Context, prev time.Time, applied map[rowKey]string) (int, time.Time, error) {
	var changes schema.Changes
	for _, t := range schema.Tables() {
		changed, err := s.rows.RowsModifiedSince(ctx, t, prev)
		if err != nil {
			return 0, time.Time{}, err
		}
		for _, r := range changed {
			if ts, ok := applied[rowKey{t.Name, r.ID()}]; ok && ts == r.UpdatedAt() {
				continue
			}
			changes.Add(t.Name, r)
		}
	}

	deleted, err := s.rows.DeletedSince(ctx, prev)
	if err != nil {
		return 0, time.Time{}, err
	}
	for _, d := range deleted {
		changes.Deleted = append(changes.Deleted, schema.Tombstone{ID: d.ID, TableName: d.TableName})
	}

	if changes.Empty() {
		s.logger.Debug(ctx, "nothing to push")
		return 0, time.Time{}, nil
	}

	tPush, err := s.client.Push(ctx, changes)
	if err != nil {
		return 0, time.Time{}, err
	}

	n := changes.RowCount() + len(changes.Deleted)
	s.logger.Info(ctx, "push accepted", "rows", changes.RowCount(), "deleted", len(changes.Deleted))
	return n, tPush, nil
}

package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/growkeeper/internal/dbx"
	"github.com/dmitrijs2005/growkeeper/internal/logging"
	"github.com/dmitrijs2005/growkeeper/internal/schema"
	"github.com/dmitrijs2005/growkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/growkeeper/internal/timex"
)

// SyncService serves /sync/pull and /sync/push. The data set is shared by all
// accounts; a token only grants access to it.
type SyncService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	now         func() time.Time
}

func NewSyncService(db *sql.DB, m repomanager.RepositoryManager, l logging.Logger) *SyncService {
	return &SyncService{db: db, repomanager: m, logger: l, now: time.Now}
}

// Pull returns rows with updated_at after since, tombstones written after
// since and the server time. The time is taken before reading so that a
// write racing with the pull is picked up by the next one.
func (s *SyncService) Pull(ctx context.Context, since time.Time) (*schema.Changes, error) {
	now := s.now().UTC()
	out := &schema.Changes{}

	rows := s.repomanager.Rows(s.db)
	for _, t := range schema.Tables() {
		rs, err := rows.SelectSince(ctx, t, since)
		if err != nil {
			return nil, fmt.Errorf("pull %s: %w", t.Name, err)
		}
		out.Add(t.Name, rs...)
	}

	deleted, err := s.repomanager.Tombstones(s.db).SelectSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("pull deleted: %w", err)
	}
	out.Deleted = deleted
	out.Timestamp = timex.FormatTimestamp(now)

	s.logger.Debug(ctx, "pull served", "since", timex.FormatTimestamp(since), "rows", out.RowCount(), "deleted", len(deleted))
	return out, nil
}

// Push applies rows and deletions in one transaction. A pushed row clears a
// tombstone with the same id, so a re-created row is not deleted again on
// other devices. Deletions for tables this server does not track are skipped.
func (s *SyncService) Push(ctx context.Context, changes schema.Changes) (time.Time, error) {
	for name := range changes.Tables {
		if _, ok := schema.Lookup(name); !ok {
			return time.Time{}, fmt.Errorf("push %s: %w", name, schema.ErrUnknownTable)
		}
	}
	now := s.now().UTC()

	var skipped int
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		rows := s.repomanager.Rows(tx)
		tombstones := s.repomanager.Tombstones(tx)

		for _, t := range schema.Tables() {
			for _, r := range changes.Tables[t.Name] {
				if err := rows.Upsert(ctx, t, r); err != nil {
					return fmt.Errorf("push %s %s: %w", t.Name, r.ID(), err)
				}
				if err := tombstones.Clear(ctx, t.Name, r.ID()); err != nil {
					return fmt.Errorf("push %s %s: %w", t.Name, r.ID(), err)
				}
			}
		}

		for _, d := range changes.Deleted {
			t, ok := schema.Lookup(d.TableName)
			if !ok {
				skipped++
				s.logger.Warn(ctx, "skipping deletion for unknown table", "table", d.TableName, "id", d.ID)
				continue
			}
			if err := rows.Delete(ctx, t, d.ID); err != nil {
				return fmt.Errorf("delete %s %s: %w", t.Name, d.ID, err)
			}
			if err := tombstones.Record(ctx, t.Name, d.ID, now); err != nil {
				return fmt.Errorf("delete %s %s: %w", t.Name, d.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}

	s.logger.Info(ctx, "push applied", "rows", changes.RowCount(), "deleted", len(changes.Deleted)-skipped, "skipped", skipped)
	return now, nil
}

// TombstoneCounts reports how many tombstones each table holds.
func (s *SyncService) TombstoneCounts(ctx context.Context) (map[string]int64, error) {
	return s.repomanager.Tombstones(s.db).CountByTable(ctx)
}

// Package tombstones stores server-side deletion markers. A tombstone lets
// a device that was offline learn that a row it still holds is gone.
package tombstones

import (
	"context"
	"time"

	"github.com/dmitrijs2005/growkeeper/internal/schema"
)

type Repository interface {
	// Record marks (table, id) deleted at deletedAt, replacing an older mark.
	Record(ctx context.Context, table, id string, deletedAt time.Time) error

	// SelectSince returns tombstones with deleted_at > since, oldest first.
	SelectSince(ctx context.Context, since time.Time) ([]schema.Tombstone, error)

	// Clear drops the mark for (table, id), used when the row is pushed again.
	Clear(ctx context.Context, table, id string) error

	// CountByTable reports how many tombstones each table holds.
	CountByTable(ctx context.Context) (map[string]int64, error)
}

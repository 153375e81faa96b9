package rows

import (
	"context"
	"time"

	"github.com/dmitrijs2005/growkeeper/internal/schema"
)

// Repository is consumed by the sync orchestrator and by the CLI.
type Repository interface {
	// RowsModifiedSince returns every row of t with updated_at > since.
	RowsModifiedSince(ctx context.Context, t schema.Table, since time.Time) ([]schema.Row, error)

	// Row returns a row by id or common.ErrorNotFound.
	Row(ctx context.Context, t schema.Table, id string) (schema.Row, error)

	// UpsertRow inserts the row or replaces every column of the existing one.
	UpsertRow(ctx context.Context, t schema.Table, row schema.Row) error

	// RecordDeletion deletes a row on behalf of the user and appends a
	// tombstone so the deletion is pushed on the next sync.
	RecordDeletion(ctx context.Context, t schema.Table, id string) error

	// ApplyDeletion deletes a row because the remote side deleted it. It
	// never writes a tombstone and succeeds when the row is already gone;
	// the result reports whether a row was removed.
	ApplyDeletion(ctx context.Context, t schema.Table, id string) (bool, error)

	// DeletedSince returns local tombstones with deleted_at > since in the
	// order they were recorded.
	DeletedSince(ctx context.Context, since time.Time) ([]schema.Tombstone, error)

	// PendingAttachments returns record_photos rows without a remote_key.
	PendingAttachments(ctx context.Context) ([]schema.Row, error)

	// Insert creates a row from user-supplied values, assigning id and
	// timestamps when they are missing.
	Insert(ctx context.Context, t schema.Table, values map[string]any) (schema.Row, error)

	// List returns every row of t, most recently updated first.
	List(ctx context.Context, t schema.Table) ([]schema.Row, error)
}

package rows

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/growkeeper/internal/common"
	"github.com/dmitrijs2005/growkeeper/internal/dbx"
	"github.com/dmitrijs2005/growkeeper/internal/schema"
	"github.com/dmitrijs2005/growkeeper/internal/timex"
	"github.com/google/uuid"
)

// SQLiteRepository implements Repository over a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

// NewSQLiteRepository returns a repository that stamps local writes with time.Now.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// WithClock replaces the clock used for tombstones and inserted rows.
func (r *SQLiteRepository) WithClock(now func() time.Time) *SQLiteRepository {
	r.now = now
	return r
}

func (r *SQLiteRepository) RowsModifiedSince(ctx context.Context, t schema.Table, since time.Time) ([]schema.Row, error) {
	rs, err := r.db.QueryContext(ctx, t.SelectSinceSQL(schema.SQLite), timex.FormatTimestamp(since))
	if err != nil {
		return nil, fmt.Errorf("failed to select %s since: %w", t.Name, err)
	}
	return collect(t, rs)
}

func (r *SQLiteRepository) Row(ctx context.Context, t schema.Table, id string) (schema.Row, error) {
	rs, err := r.db.QueryContext(ctx, t.SelectByIDSQL(schema.SQLite), id)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s[%s]: %w", t.Name, id, err)
	}
	result, err := collect(t, rs)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, common.ErrorNotFound
	}
	return result[0], nil
}

func (r *SQLiteRepository) UpsertRow(ctx context.Context, t schema.Table, row schema.Row) error {
	nr, err := t.Normalize(row)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, t.UpsertSQL(schema.SQLite), t.Args(nr)...); err != nil {
		return fmt.Errorf("failed to upsert %s[%s]: %w", t.Name, nr.ID(), err)
	}
	return nil
}

// RecordDeletion runs in its own transaction when the repository is bound to
// a *sql.DB, so the tombstone and the delete land together.
func (r *SQLiteRepository) RecordDeletion(ctx context.Context, t schema.Table, id string) error {
	if db, ok := r.db.(*sql.DB); ok {
		return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			return NewSQLiteRepository(tx).WithClock(r.now).RecordDeletion(ctx, t, id)
		})
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO deleted_records (id, table_name, deleted_at) VALUES (?, ?, ?)`,
		id, t.Name, timex.FormatTimestamp(r.now()))
	if err != nil {
		return fmt.Errorf("failed to record deletion of %s[%s]: %w", t.Name, id, err)
	}
	_, err = r.ApplyDeletion(ctx, t, id)
	return err
}

func (r *SQLiteRepository) ApplyDeletion(ctx context.Context, t schema.Table, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, t.DeleteByIDSQL(schema.SQLite), id)
	if err != nil {
		return false, fmt.Errorf("failed to delete %s[%s]: %w", t.Name, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete %s[%s]: %w", t.Name, id, err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) DeletedSince(ctx context.Context, since time.Time) ([]schema.Tombstone, error) {
	rs, err := r.db.QueryContext(ctx,
		`SELECT id, table_name, deleted_at FROM deleted_records WHERE deleted_at > ? ORDER BY seq`,
		timex.FormatTimestamp(since))
	if err != nil {
		return nil, fmt.Errorf("failed to select deleted records: %w", err)
	}
	defer rs.Close()

	var result []schema.Tombstone
	for rs.Next() {
		var ts schema.Tombstone
		if err := rs.Scan(&ts.ID, &ts.TableName, &ts.DeletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan deleted record: %w", err)
		}
		result = append(result, ts)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deleted records: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) PendingAttachments(ctx context.Context) ([]schema.Row, error) {
	t, _ := schema.Lookup(schema.RecordPhotos)
	query := fmt.Sprintf(
		`SELECT %s FROM %s WHERE %s IS NULL OR %s = '' ORDER BY created_at, id`,
		t.SelectColumns(), t.Name, schema.ColumnRemoteKey, schema.ColumnRemoteKey)
	rs, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending attachments: %w", err)
	}
	return collect(t, rs)
}

func (r *SQLiteRepository) Insert(ctx context.Context, t schema.Table, values map[string]any) (schema.Row, error) {
	in := make(map[string]any, len(values)+3)
	for k, v := range values {
		in[k] = v
	}

	now := timex.FormatTimestamp(r.now())
	if id, _ := in[schema.ColumnID].(string); id == "" {
		in[schema.ColumnID] = uuid.NewString()
	}
	if _, ok := t.Column("created_at"); ok && in["created_at"] == nil {
		in["created_at"] = now
	}
	in[schema.ColumnUpdatedAt] = now

	row, err := t.Normalize(in)
	if err != nil {
		return nil, err
	}
	if err := r.UpsertRow(ctx, t, row); err != nil {
		return nil, err
	}
	return row, nil
}

func (r *SQLiteRepository) List(ctx context.Context, t schema.Table) ([]schema.Row, error) {
	rs, err := r.db.QueryContext(ctx, t.SelectAllSQL())
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", t.Name, err)
	}
	return collect(t, rs)
}

func collect(t schema.Table, rs *sql.Rows) ([]schema.Row, error) {
	defer rs.Close()

	var result []schema.Row
	for rs.Next() {
		row, err := t.ScanRow(rs)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", t.Name, err)
		}
		result = append(result, row)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", t.Name, err)
	}
	return result, nil
}

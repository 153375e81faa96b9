package tombstones

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/growkeeper/internal/dbx"
	"github.com/dmitrijs2005/growkeeper/internal/schema"
	"github.com/dmitrijs2005/growkeeper/internal/timex"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Record(ctx context.Context, table, id string, deletedAt time.Time) error {
	query := `
		INSERT INTO deleted_records (table_name, id, deleted_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (table_name, id) DO UPDATE SET deleted_at = excluded.deleted_at
	`
	if _, err := r.db.ExecContext(ctx, query, table, id, timex.FormatTimestamp(deletedAt)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SelectSince(ctx context.Context, since time.Time) ([]schema.Tombstone, error) {
	query := `
		SELECT table_name, id, deleted_at
		FROM deleted_records
		WHERE deleted_at > $1
		ORDER BY deleted_at, table_name, id
	`
	rs, err := r.db.QueryContext(ctx, query, timex.FormatTimestamp(since))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rs.Close()

	var result []schema.Tombstone
	for rs.Next() {
		var t schema.Tombstone
		if err := rs.Scan(&t.TableName, &t.ID, &t.DeletedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Clear(ctx context.Context, table, id string) error {
	query := `DELETE FROM deleted_records WHERE table_name = $1 AND id = $2`
	if _, err := r.db.ExecContext(ctx, query, table, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CountByTable(ctx context.Context) (map[string]int64, error) {
	rs, err := r.db.QueryContext(ctx, `SELECT table_name, count(*) FROM deleted_records GROUP BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rs.Close()

	counts := make(map[string]int64)
	for rs.Next() {
		var (
			name string
			n    int64
		)
		if err := rs.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		counts[name] = n
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return counts, nil
}

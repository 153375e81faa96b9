package rows

import (
	"context"
	"database/sql"
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

func (r *PostgresRepository) SelectSince(ctx context.Context, t schema.Table, since time.Time) ([]schema.Row, error) {
	rs, err := r.db.QueryContext(ctx, t.SelectSinceSQL(schema.Postgres), timex.FormatTimestamp(since))
	if err != nil {
		return nil, fmt.Errorf("db error: select %s: %w", t.Name, err)
	}
	return collect(t, rs)
}

func (r *PostgresRepository) Upsert(ctx context.Context, t schema.Table, row schema.Row) error {
	if _, err := r.db.ExecContext(ctx, t.UpsertSQL(schema.Postgres), t.Args(row)...); err != nil {
		return fmt.Errorf("db error: upsert %s[%s]: %w", t.Name, row.ID(), err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, t schema.Table, id string) error {
	if _, err := r.db.ExecContext(ctx, t.DeleteByIDSQL(schema.Postgres), id); err != nil {
		return fmt.Errorf("db error: delete %s[%s]: %w", t.Name, id, err)
	}
	return nil
}

func collect(t schema.Table, rs *sql.Rows) ([]schema.Row, error) {
	defer rs.Close()

	var result []schema.Row
	for rs.Next() {
		row, err := t.ScanRow(rs)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.Name, err)
		}
		result = append(result, row)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("db error: select %s: %w", t.Name, err)
	}
	return result, nil
}

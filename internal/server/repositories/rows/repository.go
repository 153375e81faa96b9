// Package rows is the server's Remote Store for the tracked farm tables.
// Every table shares one generic implementation driven by schema.Table.
package rows

import (
	"context"
	"time"

	"github.com/dmitrijs2005/growkeeper/internal/schema"
)

type Repository interface {
	// SelectSince returns rows of t with updated_at > since, oldest first.
	SelectSince(ctx context.Context, t schema.Table, since time.Time) ([]schema.Row, error)

	// Upsert inserts the row or replaces every column of the stored one.
	Upsert(ctx context.Context, t schema.Table, row schema.Row) error

	// Delete removes a row by id. Missing rows are not an error.
	Delete(ctx context.Context, t schema.Table, id string) error
}

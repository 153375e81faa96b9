// Package rows is the client's Local Store: the sync-facing surface over the
// tracked entity tables and the deletion log.
//
// Every operation takes a schema.Table descriptor, so callers never spell out
// per-table columns. Timestamps are stored as canonical fixed-width UTC text
// (see timex.TimestampLayout) which makes "updated_at > ?" a plain string
// comparison in SQLite.
//
// The repository is built over dbx.DBTX. Bind it to a *sql.Tx when several
// calls must commit together:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    return rows.NewSQLiteRepository(tx).RecordDeletion(ctx, table, id)
//	})
package rows

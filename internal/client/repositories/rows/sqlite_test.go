package rows

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/growkeeper/internal/client/client"
	"github.com/dmitrijs2005/growkeeper/internal/common"
	"github.com/dmitrijs2005/growkeeper/internal/dbx"
	"github.com/dmitrijs2005/growkeeper/internal/schema"
	"github.com/dmitrijs2005/growkeeper/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func table(t *testing.T, name string) schema.Table {
	t.Helper()
	tbl, ok := schema.Lookup(name)
	require.True(t, ok)
	return tbl
}

func crop(id, name string, updated time.Time) schema.Row {
	ts := timex.FormatTimestamp(updated)
	return schema.Row{
		"id": id, "name": name, "start_date": "2024-04-01",
		"created_at": ts, "updated_at": ts,
	}
}

func TestUpsertRow_Idempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	crops := table(t, schema.Crops)

	row := crop("c1", "Tomato", t0)
	require.NoError(t, r.UpsertRow(ctx, crops, row))
	first, err := r.Row(ctx, crops, "c1")
	require.NoError(t, err)

	require.NoError(t, r.UpsertRow(ctx, crops, row))
	second, err := r.Row(ctx, crops, "c1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	all, err := r.List(ctx, crops)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpsertRow_ReplacesWholeRow(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	crops := table(t, schema.Crops)

	row := crop("c1", "Tomato", t0)
	row["memo"] = "south bed"
	row["plot_id"] = "p1"
	require.NoError(t, r.UpsertRow(ctx, crops, row))

	// the replacement omits memo and plot_id, so they reset rather than merge
	require.NoError(t, r.UpsertRow(ctx, crops, crop("c1", "Cherry tomato", t0.Add(time.Hour))))

	got, err := r.Row(ctx, crops, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Cherry tomato", got["name"])
	assert.Equal(t, "", got["memo"])
	assert.Nil(t, got["plot_id"])
}

func TestUpsertRow_RejectsUnknownColumn(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	row := crop("c1", "Tomato", t0)
	row["colour"] = "red"

	err := r.UpsertRow(context.Background(), table(t, schema.Crops), row)
	require.ErrorIs(t, err, schema.ErrUnknownColumn)
}

func TestUpsertRow_WithoutCreatedAtStaysReadable(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	crops := table(t, schema.Crops)
	updated := timex.FormatTimestamp(t0)

	require.NoError(t, r.UpsertRow(ctx, crops, schema.Row{"id": "c1", "name": "Tomato", "updated_at": updated}))
	require.NoError(t, r.UpsertRow(ctx, crops, schema.Row{"id": "c2", "name": "Bean", "updated_at": updated, "created_at": ""}))

	got, err := r.Row(ctx, crops, "c1")
	require.NoError(t, err)
	assert.Equal(t, updated, got["created_at"])

	changed, err := r.RowsModifiedSince(ctx, crops, timex.Epoch)
	require.NoError(t, err)
	require.Len(t, changed, 2)
	for _, row := range changed {
		assert.Equal(t, updated, row["created_at"], row.ID())
	}

	all, err := r.List(ctx, crops)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRowsModifiedSince_BlankStoredTimestamp(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	crops := table(t, schema.Crops)
	updated := timex.FormatTimestamp(t0)

	_, err := db.ExecContext(ctx,
		`INSERT INTO crops (id, name, start_date, created_at, updated_at) VALUES ('c1', 'Tomato', '', '', ?)`, updated)
	require.NoError(t, err)

	changed, err := r.RowsModifiedSince(ctx, crops, timex.Epoch)
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, updated, changed[0]["created_at"])
}

func TestRow_NotFound(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	_, err := r.Row(context.Background(), table(t, schema.Crops), "missing")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRowsModifiedSince_StrictlyAfter(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	crops := table(t, schema.Crops)

	require.NoError(t, r.UpsertRow(ctx, crops, crop("old", "Leek", t0)))
	require.NoError(t, r.UpsertRow(ctx, crops, crop("new", "Kale", t0.Add(time.Millisecond))))

	got, err := r.RowsModifiedSince(ctx, crops, t0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID())

	got, err = r.RowsModifiedSince(ctx, crops, timex.Epoch)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRowsModifiedSince_NormalizesOffsets(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	crops := table(t, schema.Crops)

	row := crop("c1", "Bean", t0)
	row["updated_at"] = "2024-05-01T12:30:00+02:00"
	require.NoError(t, r.UpsertRow(ctx, crops, row))

	got, err := r.RowsModifiedSince(ctx, crops, t0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-05-01T10:30:00.000000Z", got[0].UpdatedAt())
}

func TestApplyDeletion_IdempotentAndNoTombstone(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	crops := table(t, schema.Crops)

	require.NoError(t, r.UpsertRow(ctx, crops, crop("c1", "Tomato", t0)))
	removed, err := r.ApplyDeletion(ctx, crops, "c1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = r.ApplyDeletion(ctx, crops, "c1")
	require.NoError(t, err)
	assert.False(t, removed)
	removed, err = r.ApplyDeletion(ctx, crops, "never-existed")
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = r.Row(ctx, crops, "c1")
	require.ErrorIs(t, err, common.ErrorNotFound)

	ts, err := r.DeletedSince(ctx, timex.Epoch)
	require.NoError(t, err)
	assert.Empty(t, ts)
}

func TestRecordDeletion_WritesTombstone(t *testing.T) {
	clock := t0.Add(2 * time.Hour)
	r := NewSQLiteRepository(setupDB(t)).WithClock(func() time.Time { return clock })
	ctx := context.Background()
	crops := table(t, schema.Crops)
	plots := table(t, schema.Plots)

	require.NoError(t, r.UpsertRow(ctx, crops, crop("c1", "Tomato", t0)))
	require.NoError(t, r.RecordDeletion(ctx, crops, "c1"))
	clock = clock.Add(time.Second)
	require.NoError(t, r.RecordDeletion(ctx, plots, "p9"))

	_, err := r.Row(ctx, crops, "c1")
	require.ErrorIs(t, err, common.ErrorNotFound)

	ts, err := r.DeletedSince(ctx, t0)
	require.NoError(t, err)
	assert.Equal(t, []schema.Tombstone{
		{ID: "c1", TableName: schema.Crops, DeletedAt: "2024-05-01T12:00:00.000000Z"},
		{ID: "p9", TableName: schema.Plots, DeletedAt: "2024-05-01T12:00:01.000000Z"},
	}, ts)

	ts, err = r.DeletedSince(ctx, t0.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, ts, 1)
	assert.Equal(t, "p9", ts[0].ID)
}

func TestRecordDeletion_RollsBackWithTransaction(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	crops := table(t, schema.Crops)
	require.NoError(t, NewSQLiteRepository(db).UpsertRow(ctx, crops, crop("c1", "Tomato", t0)))

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := NewSQLiteRepository(tx).RecordDeletion(ctx, crops, "c1"); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	r := NewSQLiteRepository(db)
	_, err = r.Row(ctx, crops, "c1")
	require.NoError(t, err)
	ts, err := r.DeletedSince(ctx, timex.Epoch)
	require.NoError(t, err)
	assert.Empty(t, ts)
}

func TestRecordDeletion_AtomicOnDB(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	crops := table(t, schema.Crops)
	r := NewSQLiteRepository(db).WithClock(func() time.Time { return t0 })
	require.NoError(t, r.UpsertRow(ctx, crops, crop("c1", "Tomato", t0)))

	// a crops delete that fails after the tombstone insert
	_, err := db.ExecContext(ctx, `CREATE TRIGGER crops_locked BEFORE DELETE ON crops
		BEGIN SELECT RAISE(ABORT, 'locked'); END`)
	require.NoError(t, err)

	err = r.RecordDeletion(ctx, crops, "c1")
	require.ErrorContains(t, err, "locked")

	_, err = r.Row(ctx, crops, "c1")
	require.NoError(t, err)
	ts, err := r.DeletedSince(ctx, timex.Epoch)
	require.NoError(t, err)
	assert.Empty(t, ts, "tombstone must not outlive a failed delete")
}

func TestPendingAttachments(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	photos := table(t, schema.RecordPhotos)

	ts := timex.FormatTimestamp(t0)
	for _, p := range []schema.Row{
		{"id": "a", "record_id": "r1", "file_path": "a.jpg", "created_at": ts, "updated_at": ts},
		{"id": "b", "record_id": "r1", "file_path": "b.jpg", "remote_key": "2024/05/01/1-abc.jpg", "created_at": ts, "updated_at": ts},
		{"id": "c", "record_id": "r1", "file_path": "c.jpg", "remote_key": "", "created_at": ts, "updated_at": ts},
	} {
		require.NoError(t, r.UpsertRow(ctx, photos, p))
	}

	got, err := r.PendingAttachments(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(got))
	for _, row := range got {
		ids = append(ids, row.ID())
	}
	assert.Equal(t, []string{"a", "c"}, ids)
}

func TestInsert_AssignsIDAndTimestamps(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t)).WithClock(func() time.Time { return t0 })
	ctx := context.Background()
	locations := table(t, schema.Locations)

	row, err := r.Insert(ctx, locations, map[string]any{"name": "Home field", "latitude": 35.6})
	require.NoError(t, err)
	assert.Len(t, row.ID(), 36)
	assert.Equal(t, "2024-05-01T10:00:00.000000Z", row.UpdatedAt())
	assert.Equal(t, row.UpdatedAt(), row["created_at"])

	got, err := r.Row(ctx, locations, row.ID())
	require.NoError(t, err)
	assert.Equal(t, row, got)
	assert.Equal(t, 35.6, got["latitude"])
	assert.Nil(t, got["longitude"])
}

func TestList_NewestFirst(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	crops := table(t, schema.Crops)

	require.NoError(t, r.UpsertRow(ctx, crops, crop("a", "A", t0)))
	require.NoError(t, r.UpsertRow(ctx, crops, crop("b", "B", t0.Add(time.Minute))))

	got, err := r.List(ctx, crops)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID())
	assert.Equal(t, "a", got[1].ID())
}

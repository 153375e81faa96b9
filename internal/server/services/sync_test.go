package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/growkeeper/internal/logging"
	"github.com/dmitrijs2005/growkeeper/internal/schema"
	"github.com/dmitrijs2005/growkeeper/internal/timex"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRowsRepo struct {
	since    map[string][]schema.Row
	sinceArg time.Time
	selErr   error

	upserted  []string
	deleted   []string
	upsertErr error
}

func (f *fakeRowsRepo) SelectSince(ctx context.Context, t schema.Table, since time.Time) ([]schema.Row, error) {
	f.sinceArg = since
	if f.selErr != nil {
		return nil, f.selErr
	}
	return f.since[t.Name], nil
}

func (f *fakeRowsRepo) Upsert(ctx context.Context, t schema.Table, row schema.Row) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, t.Name+"/"+row.ID())
	return nil
}

func (f *fakeRowsRepo) Delete(ctx context.Context, t schema.Table, id string) error {
	f.deleted = append(f.deleted, t.Name+"/"+id)
	return nil
}

type fakeTombstonesRepo struct {
	since    []schema.Tombstone
	recorded []string
	recordAt time.Time
	cleared  []string
	counts   map[string]int64
}

func (f *fakeTombstonesRepo) Record(ctx context.Context, table, id string, deletedAt time.Time) error {
	f.recorded = append(f.recorded, table+"/"+id)
	f.recordAt = deletedAt
	return nil
}

func (f *fakeTombstonesRepo) SelectSince(ctx context.Context, since time.Time) ([]schema.Tombstone, error) {
	return f.since, nil
}

func (f *fakeTombstonesRepo) Clear(ctx context.Context, table, id string) error {
	f.cleared = append(f.cleared, table+"/"+id)
	return nil
}

func (f *fakeTombstonesRepo) CountByTable(ctx context.Context) (map[string]int64, error) {
	return f.counts, nil
}

func newSyncService(t *testing.T, rm *fakeRepoManager) *SyncService {
	t.Helper()
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	s := NewSyncService(db, rm, logging.NewDiscardLogger())
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestSyncService_Pull(t *testing.T) {
	crop := schema.Row{"id": "c1", "name": "Tomato", "updated_at": "2025-04-30T10:00:00.000000Z"}
	rows := &fakeRowsRepo{since: map[string][]schema.Row{schema.Crops: {crop}}}
	tombs := &fakeTombstonesRepo{since: []schema.Tombstone{{ID: "p1", TableName: schema.Plots, DeletedAt: "2025-04-30T11:00:00.000000Z"}}}
	s := newSyncService(t, &fakeRepoManager{rw: rows, tb: tombs})

	since := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	got, err := s.Pull(context.Background(), since)
	require.NoError(t, err)

	want := &schema.Changes{
		Tables:    map[string][]schema.Row{schema.Crops: {crop}},
		Deleted:   tombs.since,
		Timestamp: "2025-05-01T12:00:00.000000Z",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Pull mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, since, rows.sinceArg)
}

func TestSyncService_Pull_Nothing(t *testing.T) {
	s := newSyncService(t, &fakeRepoManager{rw: &fakeRowsRepo{}, tb: &fakeTombstonesRepo{}})

	got, err := s.Pull(context.Background(), timex.Epoch)
	require.NoError(t, err)
	assert.True(t, got.Empty())
	assert.NotEmpty(t, got.Timestamp)
}

func TestSyncService_Pull_Error(t *testing.T) {
	s := newSyncService(t, &fakeRepoManager{rw: &fakeRowsRepo{selErr: errBoom{}}, tb: &fakeTombstonesRepo{}})

	_, err := s.Pull(context.Background(), timex.Epoch)
	require.ErrorIs(t, err, errBoom{})
}

func TestSyncService_Push(t *testing.T) {
	rows := &fakeRowsRepo{}
	tombs := &fakeTombstonesRepo{}
	s := newSyncService(t, &fakeRepoManager{rw: rows, tb: tombs})

	changes := schema.Changes{}
	changes.Add(schema.Crops, schema.Row{"id": "c1", "updated_at": "2025-04-30T10:00:00.000000Z"})
	changes.Add(schema.Locations, schema.Row{"id": "l1", "updated_at": "2025-04-30T10:00:00.000000Z"})
	changes.Deleted = []schema.Tombstone{
		{ID: "r1", TableName: schema.Records},
		{ID: "x1", TableName: "harvests"},
	}

	ts, err := s.Push(context.Background(), changes)
	require.NoError(t, err)
	assert.Equal(t, fixedNow, ts)

	assert.Equal(t, []string{"locations/l1", "crops/c1"}, rows.upserted)
	assert.Equal(t, []string{"locations/l1", "crops/c1"}, tombs.cleared)
	assert.Equal(t, []string{"records/r1"}, rows.deleted)
	assert.Equal(t, []string{"records/r1"}, tombs.recorded)
	assert.Equal(t, fixedNow, tombs.recordAt)
}

func TestSyncService_Push_UnknownTable(t *testing.T) {
	rows := &fakeRowsRepo{}
	s := newSyncService(t, &fakeRepoManager{rw: rows, tb: &fakeTombstonesRepo{}})

	changes := schema.Changes{Tables: map[string][]schema.Row{"harvests": {{"id": "h1"}}}}
	_, err := s.Push(context.Background(), changes)
	require.ErrorIs(t, err, schema.ErrUnknownTable)
	assert.Empty(t, rows.upserted)
}

func TestSyncService_Push_RollsBack(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	s := NewSyncService(db, &fakeRepoManager{rw: &fakeRowsRepo{upsertErr: errBoom{}}, tb: &fakeTombstonesRepo{}}, logging.NewDiscardLogger())

	changes := schema.Changes{}
	changes.Add(schema.Crops, schema.Row{"id": "c1"})
	_, err := s.Push(context.Background(), changes)
	require.ErrorIs(t, err, errBoom{})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncService_TombstoneCounts(t *testing.T) {
	s := newSyncService(t, &fakeRepoManager{tb: &fakeTombstonesRepo{counts: map[string]int64{"crops": 2}}})

	got, err := s.TombstoneCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"crops": 2}, got)
}

package services

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/growkeeper/internal/client/client"
	"github.com/dmitrijs2005/growkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/growkeeper/internal/client/repositories/rows"
	"github.com/dmitrijs2005/growkeeper/internal/client/state"
	"github.com/dmitrijs2005/growkeeper/internal/logging"
	"github.com/dmitrijs2005/growkeeper/internal/schema"
	"github.com/dmitrijs2005/growkeeper/internal/timex"
	"github.com/stretchr/testify/require"
)

// fakeClient is an in-memory sync server plus scripted auth replies.
type fakeClient struct {
	mu sync.Mutex

	// server clock; Pull reads it and Push first moves it on by pushLag, so a
	// run's push is always stamped after its pull
	serverNow time.Time
	pushLag   time.Duration

	tables     map[string]map[string]schema.Row
	tombstones map[rowKey]string
	uploads    map[string]string // key -> file name
	failUpload map[string]bool   // file base name -> fail

	pullErr error
	pushErr error
	pulls   int
	pushes  []schema.Changes

	// auth
	registerUser     string
	registerSalt     []byte
	registerVerifier []byte
	registerErr      error
	salt             []byte
	saltErr          error
	loginVerifier    []byte
	loginErr         error
	access, refresh  string
	pingErr          error
}

func newFakeServer(now time.Time) *fakeClient {
	return &fakeClient{
		serverNow:  now,
		pushLag:    time.Second,
		tables:     make(map[string]map[string]schema.Row),
		tombstones: make(map[rowKey]string),
		uploads:    make(map[string]string),
		failUpload: make(map[string]bool),
	}
}

func (f *fakeClient) Register(_ context.Context, u string, salt, verifier []byte) error {
	f.registerUser, f.registerSalt, f.registerVerifier = u, salt, verifier
	return f.registerErr
}

func (f *fakeClient) GetSalt(context.Context, string) ([]byte, error) {
	return f.salt, f.saltErr
}

func (f *fakeClient) Login(_ context.Context, _ string, verifier []byte) (string, string, error) {
	f.loginVerifier = verifier
	if f.loginErr != nil {
		return "", "", f.loginErr
	}
	return f.access, f.refresh, nil
}

func (f *fakeClient) Ping(context.Context) error { return f.pingErr }

// put stores a row on the server as if another device had pushed it.
func (f *fakeClient) put(table string, r schema.Row) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tables[table] == nil {
		f.tables[table] = make(map[string]schema.Row)
	}
	f.tables[table][r.ID()] = r.Clone()
	delete(f.tombstones, rowKey{table, r.ID()})
}

func (f *fakeClient) remove(table, id string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tables[table], id)
	f.tombstones[rowKey{table, id}] = timex.FormatTimestamp(at)
}

func (f *fakeClient) get(table, id string) (schema.Row, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.tables[table][id]
	return r, ok
}

func (f *fakeClient) Pull(ctx context.Context, since time.Time) (*schema.Changes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulls++
	if f.pullErr != nil {
		return nil, f.pullErr
	}

	s := timex.FormatTimestamp(since)
	out := &schema.Changes{Timestamp: timex.FormatTimestamp(f.serverNow)}
	for name, byID := range f.tables {
		var changed []schema.Row
		for _, r := range byID {
			if r.UpdatedAt() > s {
				changed = append(changed, r.Clone())
			}
		}
		sort.Slice(changed, func(i, j int) bool { return changed[i].ID() < changed[j].ID() })
		out.Add(name, changed...)
	}
	for k, at := range f.tombstones {
		if at > s {
			out.Deleted = append(out.Deleted, schema.Tombstone{ID: k.id, TableName: k.table, DeletedAt: at})
		}
	}
	return out, nil
}

func (f *fakeClient) Push(ctx context.Context, ch schema.Changes) (time.Time, error) {
	if f.pushErr != nil {
		return time.Time{}, f.pushErr
	}
	for name, rs := range ch.Tables {
		for _, r := range rs {
			f.put(name, r)
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.serverNow = f.serverNow.Add(f.pushLag)
	for _, d := range ch.Deleted {
		delete(f.tables[d.TableName], d.ID)
		f.tombstones[rowKey{d.TableName, d.ID}] = timex.FormatTimestamp(f.serverNow)
	}
	f.pushes = append(f.pushes, ch)
	return f.serverNow, nil
}

func (f *fakeClient) UploadPhoto(ctx context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := filepath.Base(path)
	if f.failUpload[name] {
		return "", &client.StatusError{Code: 500, Message: "boom"}
	}
	key := "2024/05/01/" + name
	f.uploads[key] = name
	return key, nil
}

func (f *fakeClient) advance(d time.Duration) {
	f.mu.Lock()
	f.serverNow = f.serverNow.Add(d)
	f.mu.Unlock()
}

// localClock is a settable clock shared by the local store and the service.
type localClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *localClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *localClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

type harness struct {
	db        *sql.DB
	rows      *rows.SQLiteRepository
	state     *state.SyncState
	server    *fakeClient
	clock     *localClock
	svc       *SyncService
	photosDir string
}

func newHarness(t *testing.T, serverNow, localNow time.Time) *harness {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	clock := &localClock{t: localNow}
	repo := rows.NewSQLiteRepository(db).WithClock(clock.Now)
	st := state.New(metadata.NewSQLiteRepository(db))
	require.NoError(t, st.Load(context.Background()))

	server := newFakeServer(serverNow)
	dir := t.TempDir()
	svc := NewSyncService(server, repo, st, dir, logging.NewDiscardLogger())
	svc.now = clock.Now

	return &harness{db: db, rows: repo, state: st, server: server, clock: clock, svc: svc, photosDir: dir}
}

func (h *harness) table(t *testing.T, name string) schema.Table {
	t.Helper()
	tbl, ok := schema.Lookup(name)
	require.True(t, ok)
	return tbl
}

func (h *harness) writePhoto(t *testing.T, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(h.photosDir, name), []byte("img:"+name), 0o600))
}

func ts(t time.Time) string {
	return timex.FormatTimestamp(t)
}

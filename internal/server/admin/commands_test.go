package admin

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/growkeeper/internal/common"
	"github.com/dmitrijs2005/growkeeper/internal/cryptox"
)

func init() {
	color.NoColor = true
}

type fakeStore struct {
	migrated bool
	name     string
	salt     []byte
	verifier []byte
	addErr   error
	counts   map[string]int64
	closed   bool
}

func (f *fakeStore) Migrate(ctx context.Context) error { f.migrated = true; return nil }

func (f *fakeStore) AddUser(ctx context.Context, name string, salt, verifier []byte) (string, error) {
	if f.addErr != nil {
		return "", f.addErr
	}
	f.name, f.salt, f.verifier = name, salt, verifier
	return "id-1", nil
}

func (f *fakeStore) CountUsers(ctx context.Context) (int64, error) { return 4, nil }

func (f *fakeStore) TombstoneCounts(ctx context.Context) (map[string]int64, error) {
	return f.counts, nil
}

func (f *fakeStore) PruneRefreshTokens(ctx context.Context) (int64, error) { return 2, nil }

func (f *fakeStore) Close() error { f.closed = true; return nil }

func run(t *testing.T, s *fakeStore, args ...string) (string, error) {
	t.Helper()
	var gotDSN string
	root := NewRootCmd(func(ctx context.Context, dsn string) (Store, error) {
		gotDSN = dsn
		return s, nil
	})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		assert.NotEmpty(t, gotDSN)
	}
	return out.String(), err
}

func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	readPassword = func(prompt string, out io.Writer) ([]byte, error) {
		if len(answers) == 0 {
			return nil, errors.New("no more input")
		}
		a := answers[0]
		answers = answers[1:]
		return []byte(a), nil
	}
}

func TestMigrate(t *testing.T) {
	s := &fakeStore{}
	out, err := run(t, s, "migrate")
	require.NoError(t, err)
	assert.True(t, s.migrated)
	assert.True(t, s.closed)
	assert.Contains(t, out, "OK schema is up to date")
}

func TestUserAdd(t *testing.T) {
	stubPasswords(t, "hunter2", "hunter2")
	s := &fakeStore{}

	out, err := run(t, s, "user", "add", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Created alice id-1")
	assert.Equal(t, "alice", s.name)
	assert.Len(t, s.salt, cryptox.SaltSize)
	assert.Equal(t, cryptox.Verifier([]byte("hunter2"), s.salt), s.verifier)
}

func TestUserAdd_Errors(t *testing.T) {
	tests := []struct {
		name    string
		answers []string
		addErr  error
		want    string
	}{
		{"mismatch", []string{"a", "b"}, nil, "passwords do not match"},
		{"empty", []string{""}, nil, "password must not be empty"},
		{"taken", []string{"a", "a"}, common.ErrUserAlreadyExists, `user "alice" already exists`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubPasswords(t, tt.answers...)
			_, err := run(t, &fakeStore{addErr: tt.addErr}, "user", "add", "alice")
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestUserCount(t *testing.T) {
	out, err := run(t, &fakeStore{}, "user", "count")
	require.NoError(t, err)
	assert.Equal(t, "4\n", out)
}

func TestTombstonesCount(t *testing.T) {
	s := &fakeStore{counts: map[string]int64{"crops": 3, "plots": 1, "harvests": 2}}
	out, err := run(t, s, "tombstones", "count")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 10)
	assert.Equal(t, []string{"TABLE", "TOMBSTONES"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"locations", "0"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"crops", "3"}, strings.Fields(lines[3]))
	assert.Equal(t, []string{"harvests", "2"}, strings.Fields(lines[8]))
	assert.Equal(t, []string{"total", "6"}, strings.Fields(lines[9]))
}

func TestTokensPrune(t *testing.T) {
	out, err := run(t, &fakeStore{}, "tokens", "prune")
	require.NoError(t, err)
	assert.Contains(t, out, "Pruned 2 expired refresh tokens")
}

func TestOpenError(t *testing.T) {
	root := NewRootCmd(func(ctx context.Context, dsn string) (Store, error) {
		return nil, errors.New("db down")
	})
	root.SetOut(io.Discard)
	root.SetArgs([]string{"--dsn", "postgres://x", "migrate"})
	require.EqualError(t, root.Execute(), "db down")
}

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/dmitrijs2005/growkeeper/internal/client/client"
	"github.com/dmitrijs2005/growkeeper/internal/common"
	"github.com/stretchr/testify/require"
)

func stubInputs(t *testing.T, username string, password []byte) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return username, nil }
	getPassword = func(_ io.Writer) ([]byte, error) { return password, nil }
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
}

type fakeAuth struct {
	regUser string
	regPass []byte
	regErr  error

	loginUser string
	loginPass []byte
	loginErr  error

	logoutCalled bool
	logoutErr    error

	pingErr error
}

func (f *fakeAuth) Register(_ context.Context, user string, pass []byte) error {
	f.regUser, f.regPass = user, append([]byte(nil), pass...)
	return f.regErr
}
func (f *fakeAuth) Login(_ context.Context, user string, pass []byte) error {
	f.loginUser, f.loginPass = user, append([]byte(nil), pass...)
	return f.loginErr
}
func (f *fakeAuth) Logout(context.Context) error {
	f.logoutCalled = true
	return f.logoutErr
}
func (f *fakeAuth) Ping(context.Context) error { return f.pingErr }

func TestRegister_Success(t *testing.T) {
	a, out := newTestApp(t, "")
	f := a.authService.(*fakeAuth)
	stubInputs(t, "alice", []byte("secret"))

	require.NoError(t, a.Register(context.Background()))
	require.Equal(t, "alice", f.regUser)
	require.Equal(t, "secret", string(f.regPass))
	require.Contains(t, out.String(), "Success!")
}

func TestRegister_UserExists(t *testing.T) {
	a, _ := newTestApp(t, "")
	a.authService.(*fakeAuth).regErr = fmt.Errorf("register: %w", common.ErrUserAlreadyExists)
	stubInputs(t, "alice", []byte("secret"))

	err := a.Register(context.Background())
	require.ErrorContains(t, err, `user "alice" already exists`)
}

func TestRegister_PasswordWiped(t *testing.T) {
	a, _ := newTestApp(t, "")
	pw := []byte("secret")
	stubInputs(t, "alice", pw)

	require.NoError(t, a.Register(context.Background()))
	require.Equal(t, make([]byte, len(pw)), pw)
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name     string
		loginErr error
		wantErr  string
		wantMode Mode
	}{
		{name: "success", wantMode: ModeOnline},
		{name: "server down", loginErr: fmt.Errorf("get salt error: %w", client.ErrUnavailable), wantErr: "server unavailable", wantMode: ModeOffline},
		{name: "bad credentials", loginErr: fmt.Errorf("login error: %w", client.ErrUnauthorized), wantErr: "invalid user name or password"},
		{name: "other", loginErr: errors.New("boom"), wantErr: "boom"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, _ := newTestApp(t, "")
			f := a.authService.(*fakeAuth)
			f.loginErr = tc.loginErr
			stubInputs(t, "alice", []byte("secret"))

			err := a.Login(context.Background())
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, "alice", f.loginUser)
			require.Equal(t, tc.wantMode, a.Mode())
		})
	}
}

func TestLogin_InputError(t *testing.T) {
	a, _ := newTestApp(t, "")
	orig := getSimpleText
	getSimpleText = func(*bufio.Reader, string, io.Writer) (string, error) { return "", io.EOF }
	t.Cleanup(func() { getSimpleText = orig })

	require.ErrorIs(t, a.Login(context.Background()), io.EOF)
	require.Empty(t, a.authService.(*fakeAuth).loginUser)
}

func TestLogout(t *testing.T) {
	a, out := newTestApp(t, "")
	f := a.authService.(*fakeAuth)

	require.NoError(t, a.Logout(context.Background()))
	require.True(t, f.logoutCalled)
	require.Contains(t, out.String(), "Logged out")

	f.logoutErr = errors.New("disk full")
	require.Error(t, a.Logout(context.Background()))
}

// Package services contains the client's application services: the sync
// orchestrator with its attachment upload and trigger, and the account
// operations used by the CLI.
package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/growkeeper/internal/client/client"
	"github.com/dmitrijs2005/growkeeper/internal/cryptox"
)

// Session persists who is logged in and with which tokens.
type Session interface {
	UserName() string
	LoggedIn() bool
	SetSession(ctx context.Context, userName, access, refresh string) error
	ClearSession(ctx context.Context) error
}

// AuthService defines account operations for the CLI.
//
// The password is never sent: Register sends a fresh salt plus the verifier
// derived from it, Login fetches the salt and sends the derived verifier.
type AuthService interface {
	Register(ctx context.Context, username string, password []byte) error
	Login(ctx context.Context, username string, password []byte) error
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
}

type authService struct {
	client  client.Client
	session Session
}

func NewAuthService(c client.Client, s Session) AuthService {
	return &authService{client: c, session: s}
}

func (a *authService) Register(ctx context.Context, username string, password []byte) error {
	salt := cryptox.NewSalt()
	verifier := cryptox.Verifier(password, salt)

	if err := a.client.Register(ctx, username, salt, verifier); err != nil {
		return err
	}
	return nil
}

// Login authenticates against the server and persists the session.
func (a *authService) Login(ctx context.Context, username string, password []byte) error {
	salt, err := a.client.GetSalt(ctx, username)
	if err != nil {
		return fmt.Errorf("get salt error: %w", err)
	}

	access, refresh, err := a.client.Login(ctx, username, cryptox.Verifier(password, salt))
	if err != nil {
		return fmt.Errorf("login error: %w", err)
	}

	if err := a.session.SetSession(ctx, username, access, refresh); err != nil {
		return fmt.Errorf("session saving error: %w", err)
	}
	return nil
}

// Logout forgets the session locally. Local rows and the watermark stay.
func (a *authService) Logout(ctx context.Context) error {
	return a.session.ClearSession(ctx)
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

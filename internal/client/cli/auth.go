package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/growkeeper/internal/client/client"
	"github.com/dmitrijs2005/growkeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for a user name and password and creates the account on
// the server. The password byte slice is wiped before returning.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter user name", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.authService.Register(ctx, userName, password); err != nil {
		if errors.Is(err, common.ErrUserAlreadyExists) {
			return fmt.Errorf("user %q already exists", userName)
		}
		return err
	}

	fmt.Fprintln(a.out, "Success!")
	return nil
}

// Login authenticates against the server and persists the session, so the
// next start of the client is logged in already. Unlike local editing, login
// needs the server.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter user name", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.authService.Login(ctx, userName, password); err != nil {
		a.logger.Warn(ctx, "login unsuccessful", "user", userName, "error", err)
		switch {
		case errors.Is(err, client.ErrUnavailable):
			a.setMode(ModeOffline)
			return errors.New("server unavailable, try again later")
		case errors.Is(err, client.ErrUnauthorized):
			return errors.New("invalid user name or password")
		}
		return err
	}

	a.logger.Info(ctx, "login successful", "user", userName)
	a.setMode(ModeOnline)
	fmt.Fprintf(a.out, "Logged in as %s\n", userName)
	return nil
}

// Logout forgets the session. Local rows, photos and the sync watermark stay.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/glowup/internal/client/client"
	"github.com/dmitrijs2005/glowup/internal/client/models"
)

// getSimpleText and getPassword are swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// prompt returns v, or asks for it when empty.
func (a *App) prompt(v, text string) (string, error) {
	if v != "" {
		return v, nil
	}
	return getSimpleText(a.reader, text, a.out)
}

// Register creates an account. Missing name or email are prompted for; the
// password always is.
func (a *App) Register(ctx context.Context, name, email string) error {
	s, err := a.service(ctx)
	if err != nil {
		return err
	}

	if name, err = a.prompt(name, "Enter name"); err != nil {
		return err
	}
	if email, err = a.prompt(email, "Enter email"); err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	u, err := s.Register(ctx, name, email, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s (id %d). Run login to start a session.\n", u.Email, u.ID)
	return nil
}

// Login authenticates and stores the session locally.
func (a *App) Login(ctx context.Context, email string) error {
	s, err := a.service(ctx)
	if err != nil {
		return err
	}

	if email, err = a.prompt(email, "Enter email"); err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	u, err := s.Login(ctx, email, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Logged in as %s\n", u.Email)
	return nil
}

func (a *App) Me(ctx context.Context) error {
	s, err := a.service(ctx)
	if err != nil {
		return err
	}

	u, err := s.Me(ctx)
	if err != nil {
		return sessionHint(err)
	}
	printUser(a, u)
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	s, err := a.service(ctx)
	if err != nil {
		return err
	}

	if err := s.Refresh(ctx); err != nil {
		return sessionHint(err)
	}
	fmt.Fprintln(a.out, "Session refreshed")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	s, err := a.service(ctx)
	if err != nil {
		return err
	}

	if err := s.Logout(ctx); err != nil {
		return sessionHint(err)
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) LogoutAll(ctx context.Context) error {
	s, err := a.service(ctx)
	if err != nil {
		return err
	}

	n, err := s.LogoutAll(ctx)
	if err != nil {
		return sessionHint(err)
	}
	fmt.Fprintf(a.out, "Logged out of %d session(s)\n", n)
	return nil
}

func printUser(a *App, u *models.User) {
	fmt.Fprintf(a.out, "ID:      %d\n", u.ID)
	fmt.Fprintf(a.out, "Name:    %s\n", u.Name)
	fmt.Fprintf(a.out, "Email:   %s\n", u.Email)
	fmt.Fprintf(a.out, "Created: %s\n", u.CreatedAt.Format("2006-01-02 15:04:05 MST"))
}

// sessionHint adds the next step to errors that mean the stored session is
// gone or no longer accepted.
func sessionHint(err error) error {
	if errors.Is(err, client.ErrNoSession) || errors.Is(err, client.ErrUnauthorized) {
		return fmt.Errorf("%w; run login first", err)
	}
	return err
}

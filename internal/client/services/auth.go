// Package services contains application services for authctl. The auth
// service keeps the login state in the local session cache and refreshes
// the access token once when the server reports it expired.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/glowup/internal/client/client"
	"github.com/dmitrijs2005/glowup/internal/client/models"
	"github.com/dmitrijs2005/glowup/internal/client/repositories/session"
	"github.com/dmitrijs2005/glowup/internal/dbx"
)

// AuthService defines the authctl operations.
//
// Contract:
//   - Register: create an account, no session is opened.
//   - Login: authenticate and store the token pair and email locally.
//   - Me, LogoutAll: call the server with the stored access token, refreshing
//     it once on expiry.
//   - Refresh: rotate the stored refresh token.
//   - Logout: revoke the stored refresh token and forget the local session.
//   - Email: the address of the stored session, empty when logged out.
type AuthService interface {
	Register(ctx context.Context, name, email string, password []byte) (*models.User, error)
	Login(ctx context.Context, email string, password []byte) (*models.User, error)
	Me(ctx context.Context) (*models.User, error)
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
	LogoutAll(ctx context.Context) (int64, error)
	Email(ctx context.Context) (string, error)
	Close(ctx context.Context) error
}

type authService struct {
	client client.Client
	db     *sql.DB
}

// NewAuthService constructs an AuthService bound to the given API client
// and session database.
func NewAuthService(c client.Client, db *sql.DB) AuthService {
	return &authService{client: c, db: db}
}

func (a *authService) getSessionRepo() session.Repository {
	return session.NewSQLiteRepository(a.db)
}

func (a *authService) Register(ctx context.Context, name, email string, password []byte) (*models.User, error) {
	return a.client.Register(ctx, name, email, string(password))
}

func (a *authService) Login(ctx context.Context, email string, password []byte) (*models.User, error) {
	res, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	if err := a.saveSession(ctx, res.User.Email, res.TokenPair); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return &res.User, nil
}

// saveSession stores the email and both tokens in one transaction.
func (a *authService) saveSession(ctx context.Context, email string, pair models.TokenPair) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := session.NewSQLiteRepository(tx)
		if email != "" {
			if err := repo.Set(ctx, session.KeyEmail, []byte(email)); err != nil {
				return err
			}
		}
		if err := repo.Set(ctx, session.KeyAccessToken, []byte(pair.AccessToken)); err != nil {
			return err
		}
		return repo.Set(ctx, session.KeyRefreshToken, []byte(pair.RefreshToken))
	})
}

func (a *authService) token(ctx context.Context, key string) (string, error) {
	v, err := a.getSessionRepo().Get(ctx, key)
	if err != nil {
		return "", err
	}
	if len(v) == 0 {
		return "", client.ErrNoSession
	}
	return string(v), nil
}

// Refresh rotates the stored refresh token. When the server no longer
// accepts it, the local session is dropped.
func (a *authService) Refresh(ctx context.Context) error {
	refresh, err := a.token(ctx, session.KeyRefreshToken)
	if err != nil {
		return err
	}

	pair, err := a.client.Refresh(ctx, refresh)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			if clearErr := a.getSessionRepo().Clear(ctx); clearErr != nil {
				return errors.Join(err, clearErr)
			}
		}
		return err
	}

	return a.saveSession(ctx, "", *pair)
}

// withAccess runs fn with the stored access token and repeats it once with
// a refreshed token if the first attempt hit an expired access token.
func (a *authService) withAccess(ctx context.Context, fn func(token string) error) error {
	access, err := a.token(ctx, session.KeyAccessToken)
	if err != nil {
		return err
	}

	err = fn(access)
	if !errors.Is(err, client.ErrTokenExpired) {
		return err
	}

	if err := a.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh error: %w", err)
	}
	access, err = a.token(ctx, session.KeyAccessToken)
	if err != nil {
		return err
	}
	return fn(access)
}

func (a *authService) Me(ctx context.Context) (*models.User, error) {
	var user *models.User
	err := a.withAccess(ctx, func(token string) error {
		u, err := a.client.Me(ctx, token)
		user = u
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (a *authService) LogoutAll(ctx context.Context) (int64, error) {
	var n int64
	err := a.withAccess(ctx, func(token string) error {
		var err error
		n, err = a.client.LogoutAll(ctx, token)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, a.getSessionRepo().Clear(ctx)
}

// Logout revokes the refresh token on the server and clears the local
// session. A token the server no longer knows still counts as logged out.
func (a *authService) Logout(ctx context.Context) error {
	refresh, err := a.token(ctx, session.KeyRefreshToken)
	if err != nil {
		return err
	}

	if err := a.client.Logout(ctx, refresh); err != nil && !errors.Is(err, client.ErrNotFound) {
		return err
	}
	return a.getSessionRepo().Clear(ctx)
}

func (a *authService) Email(ctx context.Context) (string, error) {
	v, err := a.getSessionRepo().Get(ctx, session.KeyEmail)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// Close releases the session database.
func (a *authService) Close(ctx context.Context) error {
	return a.db.Close()
}

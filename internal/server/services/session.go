// Package services contains server-side business logic. SessionManager
// implements registration, login, refresh token rotation and logout on top
// of the repositories, the token codec and the password hasher.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/glowup/internal/common"
	"github.com/dmitrijs2005/glowup/internal/dbx"
	"github.com/dmitrijs2005/glowup/internal/logging"
	"github.com/dmitrijs2005/glowup/internal/server/auth"
	"github.com/dmitrijs2005/glowup/internal/server/models"
	"github.com/dmitrijs2005/glowup/internal/server/repositories/repomanager"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dmitrijs2005/glowup/internal/server/services"

// dummyPassword is hashed once at startup; logins for unknown emails verify
// against it so both failure paths cost one bcrypt comparison.
const dummyPassword = "glowup-timing-equalizer"

// TokenCodec is the part of auth.TokenCodec the session manager needs.
type TokenCodec interface {
	IssueAccessToken(userID int64, email string) (string, error)
	IssueRefreshToken(userID int64, email string) (string, time.Time, error)
	Verify(token string) (*auth.Claims, error)
}

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	User *models.PublicUser `json:"user"`
	TokenPair
}

// SessionManager holds no mutable state of its own; everything durable goes
// through the repositories.
type SessionManager struct {
	db        dbx.DBTX
	tx        dbx.Transactor
	repos     repomanager.RepositoryManager
	codec     TokenCodec
	hasher    auth.PasswordHasher
	logger    logging.Logger
	tracer    trace.Tracer
	now       func() time.Time
	dummyHash string
}

// Option customizes a SessionManager.
type Option func(*SessionManager)

// WithClock replaces time.Now, used for stored refresh token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *SessionManager) { s.now = now }
}

// NewSessionManager wires the manager. db serves reads and single writes,
// tx runs the rotation unit of work.
func NewSessionManager(db dbx.DBTX, tx dbx.Transactor, m repomanager.RepositoryManager, codec TokenCodec, hasher auth.PasswordHasher, logger logging.Logger, opts ...Option) (*SessionManager, error) {
	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	s := &SessionManager{
		db:        db,
		tx:        tx,
		repos:     m,
		codec:     codec,
		hasher:    hasher,
		logger:    logger.With("module", "session_manager"),
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
		dummyHash: dummy,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user. The password must already satisfy the policy.
func (s *SessionManager) Register(ctx context.Context, name, email, password string) (user *models.PublicUser, err error) {
	ctx, span := s.tracer.Start(ctx, "SessionManager.Register")
	defer func() { finishSpan(span, err) }()

	email = NormalizeEmail(email)
	repo := s.repos.Users(s.db)

	if _, err := repo.FindByEmail(ctx, email); err == nil {
		return nil, common.ErrAlreadyExists
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, storageFailure("find user by email", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	created, err := repo.Create(ctx, strings.TrimSpace(name), email, hash)
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, common.ErrAlreadyExists
		}
		return nil, storageFailure("create user", err)
	}

	span.SetAttributes(attribute.Int64("user.id", created.ID))
	s.logger.Info(ctx, "user registered", "user_id", created.ID)
	return created.Public(), nil
}

// Login checks credentials and opens a session. Unknown email and wrong
// password both yield common.ErrInvalidCredentials.
func (s *SessionManager) Login(ctx context.Context, email, password string) (res *LoginResult, err error) {
	ctx, span := s.tracer.Start(ctx, "SessionManager.Login")
	defer func() { finishSpan(span, err) }()

	user, err := s.repos.Users(s.db).FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			_, _ = s.hasher.Verify(password, s.dummyHash)
			return nil, common.ErrInvalidCredentials
		}
		return nil, storageFailure("find user by email", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	access, err := s.codec.IssueAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	refresh, expiresAt, err := s.codec.IssueRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	if _, err := s.repos.RefreshTokens(s.db).Create(ctx, user.ID, refresh, expiresAt); err != nil {
		return nil, storageFailure("store refresh token", err)
	}

	span.SetAttributes(attribute.Int64("user.id", user.ID))
	return &LoginResult{
		User:      user.Public(),
		TokenPair: TokenPair{AccessToken: access, RefreshToken: refresh},
	}, nil
}

// Refresh rotates a refresh token. The presented token is consumed; of
// several concurrent rotations of one token exactly one succeeds and the
// others get common.ErrTokenNotFound.
func (s *SessionManager) Refresh(ctx context.Context, refreshToken string) (pair *TokenPair, err error) {
	ctx, span := s.tracer.Start(ctx, "SessionManager.Refresh")
	defer func() { finishSpan(span, err) }()

	if refreshToken == "" {
		return nil, common.ErrMissingInput
	}

	claims, err := s.codec.Verify(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidOrExpiredToken, err)
	}
	if claims.Kind != auth.KindRefresh {
		return nil, common.ErrInvalidOrExpiredToken
	}

	repo := s.repos.RefreshTokens(s.db)
	stored, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrTokenNotFound
		}
		return nil, storageFailure("find refresh token", err)
	}

	if stored.Expired(s.now()) {
		if _, err := repo.Delete(ctx, refreshToken); err != nil && !errors.Is(err, common.ErrNotFound) {
			s.logger.Warn(ctx, "failed to delete expired refresh token", "user_id", stored.UserID, "error", err)
		}
		return nil, common.ErrTokenExpired
	}

	access, err := s.codec.IssueAccessToken(claims.UserID, claims.Email)
	if err != nil {
		return nil, err
	}
	refresh, expiresAt, err := s.codec.IssueRefreshToken(claims.UserID, claims.Email)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		txRepo := s.repos.RefreshTokens(tx)
		if _, err := txRepo.Delete(ctx, refreshToken); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrTokenNotFound
			}
			return storageFailure("delete refresh token", err)
		}
		if _, err := txRepo.Create(ctx, claims.UserID, refresh, expiresAt); err != nil {
			return storageFailure("store refresh token", err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, common.ErrTokenNotFound) && !errors.Is(err, common.ErrStorageFailure) {
			err = storageFailure("rotate refresh token", err)
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int64("user.id", claims.UserID))
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Logout revokes one refresh token. No access token is needed.
func (s *SessionManager) Logout(ctx context.Context, refreshToken string) (err error) {
	ctx, span := s.tracer.Start(ctx, "SessionManager.Logout")
	defer func() { finishSpan(span, err) }()

	if refreshToken == "" {
		return common.ErrMissingInput
	}

	if _, err := s.repos.RefreshTokens(s.db).Delete(ctx, refreshToken); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return storageFailure("delete refresh token", err)
	}
	return nil
}

// RevokeAll deletes every refresh token of the user and returns how many
// were removed.
func (s *SessionManager) RevokeAll(ctx context.Context, userID int64) (n int64, err error) {
	ctx, span := s.tracer.Start(ctx, "SessionManager.RevokeAll", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer func() { finishSpan(span, err) }()

	n, err = s.repos.RefreshTokens(s.db).DeleteByUser(ctx, userID)
	if err != nil {
		return 0, storageFailure("delete user refresh tokens", err)
	}
	s.logger.Info(ctx, "sessions revoked", "user_id", userID, "count", n)
	return n, nil
}

// GetIdentity looks a user up by id. A missing user is reported through
// found=false, not as an error.
func (s *SessionManager) GetIdentity(ctx context.Context, userID int64) (user *models.PublicUser, found bool, err error) {
	ctx, span := s.tracer.Start(ctx, "SessionManager.GetIdentity", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer func() { finishSpan(span, err) }()

	u, err := s.repos.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, storageFailure("find user by id", err)
	}
	return u.Public(), true, nil
}

func storageFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrStorageFailure, op, err)
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

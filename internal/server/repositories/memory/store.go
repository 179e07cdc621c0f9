// Package memory is an in-process implementation of the repository
// manager, used by tests and local experiments. Each Store is isolated.
package memory

import (
	"context"
	"database/sql"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/glowup/internal/common"
	"github.com/dmitrijs2005/glowup/internal/dbx"
	"github.com/dmitrijs2005/glowup/internal/server/models"
	"github.com/dmitrijs2005/glowup/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/glowup/internal/server/repositories/users"
)

// Store keeps users and refresh tokens in maps guarded by one mutex.
// Every repository call is atomic. WithinTx serializes transactions and
// restores the previous state when fn fails; writes made outside a
// transaction while one is running are lost on rollback.
type Store struct {
	mu     sync.Mutex
	txMu   sync.Mutex
	now    func() time.Time
	nextID int64
	users  map[int64]models.User
	tokens map[string]models.RefreshToken
}

func NewStore() *Store {
	return &Store{
		now:    time.Now,
		users:  make(map[int64]models.User),
		tokens: make(map[string]models.RefreshToken),
	}
}

// WithClock replaces the clock used for created_at/updated_at.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) RunMigrations(context.Context, *sql.DB) error { return nil }

func (s *Store) Users(dbx.DBTX) users.Repository { return (*userRepo)(s) }

func (s *Store) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return (*tokenRepo)(s) }

func (s *Store) WithinTx(ctx context.Context, fn dbx.TxFunc) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	usersSnap := maps.Clone(s.users)
	tokensSnap := maps.Clone(s.tokens)
	idSnap := s.nextID
	s.mu.Unlock()

	if err := fn(ctx, nil); err != nil {
		s.mu.Lock()
		s.users, s.tokens, s.nextID = usersSnap, tokensSnap, idSnap
		s.mu.Unlock()
		return err
	}
	return nil
}

// TokenCount returns the number of stored refresh tokens.
func (s *Store) TokenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

type userRepo Store

func (r *userRepo) Create(_ context.Context, name, email, passwordHash string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return nil, common.ErrConflict
		}
	}

	r.nextID++
	now := r.now()
	u := models.User{ID: r.nextID, Name: name, Email: email, PasswordHash: passwordHash, CreatedAt: now, UpdatedAt: now}
	r.users[u.ID] = u
	return &u, nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *userRepo) FindByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &u, nil
}

type tokenRepo Store

func (r *tokenRepo) Create(_ context.Context, userID int64, token string, expiresAt time.Time) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[token]; ok {
		return nil, common.ErrConflict
	}

	r.nextID++
	rt := models.RefreshToken{ID: r.nextID, UserID: userID, Token: token, ExpiresAt: expiresAt, CreatedAt: r.now()}
	r.tokens[token] = rt
	return &rt, nil
}

func (r *tokenRepo) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.tokens[token]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &rt, nil
}

func (r *tokenRepo) Delete(_ context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.tokens[token]
	if !ok {
		return nil, common.ErrNotFound
	}
	delete(r.tokens, token)
	return &rt, nil
}

func (r *tokenRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for k, rt := range r.tokens {
		if rt.ExpiresAt.Before(now) {
			delete(r.tokens, k)
			n++
		}
	}
	return n, nil
}

func (r *tokenRepo) DeleteByUser(_ context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for k, rt := range r.tokens {
		if rt.UserID == userID {
			delete(r.tokens, k)
			n++
		}
	}
	return n, nil
}

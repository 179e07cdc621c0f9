package services

import (
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/glowup/internal/dbx"
	"github.com/dmitrijs2005/glowup/internal/logging"
	"github.com/dmitrijs2005/glowup/internal/server/auth"
	"github.com/dmitrijs2005/glowup/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newCodec(t *testing.T, clock *testClock) *auth.TokenCodec {
	t.Helper()
	codec, err := auth.NewTokenCodec([]byte(testSecret), 15*time.Minute, 7*24*time.Hour, auth.WithClock(clock.Now))
	require.NoError(t, err)
	return codec
}

func newHasher(t *testing.T) *auth.BcryptHasher {
	t.Helper()
	h, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func newManager(t *testing.T, db dbx.DBTX, tx dbx.Transactor, m repomanager.RepositoryManager, codec TokenCodec, clock *testClock) *SessionManager {
	t.Helper()
	s, err := NewSessionManager(db, tx, m, codec, newHasher(t), logging.Discard(), WithClock(clock.Now))
	require.NoError(t, err)
	return s
}

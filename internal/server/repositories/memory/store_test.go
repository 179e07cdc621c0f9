package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/glowup/internal/common"
	"github.com/dmitrijs2005/glowup/internal/dbx"
	"github.com/dmitrijs2005/glowup/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ repomanager.RepositoryManager = (*Store)(nil)
	_ dbx.Transactor                = (*Store)(nil)
)

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Users(nil)

	u, err := repo.Create(ctx, "John", "john@example.com", "hash")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	_, err = repo.Create(ctx, "Other", "john@example.com", "hash2")
	assert.ErrorIs(t, err, common.ErrConflict)

	got, err := repo.FindByEmail(ctx, "john@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash", got.PasswordHash)

	_, err = repo.FindByEmail(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = repo.FindByID(ctx, 99)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRefreshTokens(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore().WithClock(func() time.Time { return now })
	repo := s.RefreshTokens(nil)

	_, err := repo.Create(ctx, 1, "a", now.Add(time.Hour))
	require.NoError(t, err)
	_, err = repo.Create(ctx, 1, "b", now.Add(-time.Hour))
	require.NoError(t, err)
	_, err = repo.Create(ctx, 2, "c", now.Add(time.Hour))
	require.NoError(t, err)
	_, err = repo.Create(ctx, 2, "c", now.Add(time.Hour))
	assert.ErrorIs(t, err, common.ErrConflict)

	rt, err := repo.Find(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rt.UserID)

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	deleted, err := repo.Delete(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", deleted.Token)
	_, err = repo.Delete(ctx, "a")
	assert.ErrorIs(t, err, common.ErrNotFound)

	n, err = repo.DeleteByUser(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 0, s.TokenCount())
}

func TestDelete_ConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.RefreshTokens(nil)
	_, err := repo.Create(ctx, 1, "tok", time.Now().Add(time.Hour))
	require.NoError(t, err)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Delete(ctx, "tok"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_, err := s.RefreshTokens(nil).Create(ctx, 1, "old", time.Now().Add(time.Hour))
	require.NoError(t, err)

	err = s.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.RefreshTokens(tx).Delete(ctx, "old"); err != nil {
			return err
		}
		return errors.New("insert failed")
	})
	require.EqualError(t, err, "insert failed")

	_, err = s.RefreshTokens(nil).Find(ctx, "old")
	assert.NoError(t, err)

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := s.RefreshTokens(tx).Delete(ctx, "old")
		return err
	}))
	assert.Equal(t, 0, s.TokenCount())
}

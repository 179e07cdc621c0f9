package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/glowup/internal/dbx"
	"github.com/dmitrijs2005/glowup/internal/logging"
	"github.com/dmitrijs2005/glowup/internal/server/repositories/repomanager"
)

// TokenSweeper periodically deletes expired refresh tokens. It shares no
// state with request handling.
type TokenSweeper struct {
	db       dbx.DBTX
	repos    repomanager.RepositoryManager
	interval time.Duration
	logger   logging.Logger
	now      func() time.Time
	observe  func(n int64)
}

// NewTokenSweeper builds a sweeper. observe, if not nil, receives the row
// count of every successful sweep.
func NewTokenSweeper(db dbx.DBTX, m repomanager.RepositoryManager, interval time.Duration, logger logging.Logger, observe func(n int64)) *TokenSweeper {
	return &TokenSweeper{
		db:       db,
		repos:    m,
		interval: interval,
		logger:   logger.With("module", "token_sweeper"),
		now:      time.Now,
		observe:  observe,
	}
}

// SweepOnce deletes the tokens that expired before now.
func (s *TokenSweeper) SweepOnce(ctx context.Context) (int64, error) {
	n, err := s.repos.RefreshTokens(s.db).DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, storageFailure("delete expired refresh tokens", err)
	}
	if s.observe != nil {
		s.observe(n)
	}
	return n, nil
}

// Run sweeps every interval until ctx is cancelled. Failures are logged and
// retried on the next tick.
func (s *TokenSweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Warn(ctx, "token sweeper disabled", "interval", s.interval)
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info(ctx, "token sweeper started", "interval", s.interval.String())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "token sweeper stopped")
			return
		case <-ticker.C:
			n, err := s.SweepOnce(ctx)
			if err != nil {
				s.logger.Error(ctx, "token sweep failed", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Info(ctx, "expired refresh tokens removed", "count", n)
			}
		}
	}
}

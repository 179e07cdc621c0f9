// Package server wires the auth service together: storage, session
// manager, HTTP API, gRPC health, metrics and the expired token sweeper.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dmitrijs2005/glowup/internal/dbx"
	"github.com/dmitrijs2005/glowup/internal/logging"
	"github.com/dmitrijs2005/glowup/internal/server/auth"
	"github.com/dmitrijs2005/glowup/internal/server/config"
	"github.com/dmitrijs2005/glowup/internal/server/httpapi"
	"github.com/dmitrijs2005/glowup/internal/server/observability"
	"github.com/dmitrijs2005/glowup/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/glowup/internal/server/services"
	"github.com/dmitrijs2005/glowup/internal/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/sethvargo/go-retry"

	gs "github.com/dmitrijs2005/glowup/internal/server/grpc"
)

const (
	connectRetryBase = 500 * time.Millisecond
	shutdownTimeout  = 10 * time.Second
)

type App struct {
	config          *config.Config
	logger          logging.Logger
	db              *sql.DB
	sessions        *services.SessionManager
	codec           *auth.TokenCodec
	sweeper         *services.TokenSweeper
	observability   *observability.Server
	health          *gs.HealthServer
	ready           atomic.Bool
	shutdownTracing func(context.Context) error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.ServiceName, c.LogFormat, c.LogLevel, nil)

	shutdownTracing, err := telemetry.Setup(ctx, c.ServiceName, c.OTelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("tracing init error: %w", err)
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := connectDB(ctx, db, c.DatabaseConnectRetries, connectRetryBase, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db connect error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migrations error: %w", err)
	}

	codec, err := auth.NewTokenCodec([]byte(c.SecretKey), c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	hasher, err := auth.NewBcryptHasher(c.BcryptCost)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	sessions, err := services.NewSessionManager(db, dbx.NewSQLTransactor(db, nil), repos, codec, hasher, logger.With("module", "sessions"))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{
		config:          c,
		logger:          logger,
		db:              db,
		sessions:        sessions,
		codec:           codec,
		health:          gs.NewHealthServer(c.GRPCHealthAddr, logger),
		shutdownTracing: shutdownTracing,
	}
	app.observability = observability.NewServer(c.MetricsAddr, app.ready.Load, logger.With("module", "observability"))
	app.sweeper = services.NewTokenSweeper(db, repos, c.TokenSweepInterval, logger, app.observability.Metrics().ObserveSwept)

	return app, nil
}

// connectDB pings db with exponential backoff until it answers or the
// retries run out.
func connectDB(ctx context.Context, db *sql.DB, retries uint64, base time.Duration, logger logging.Logger) error {
	b := retry.WithMaxRetries(retries, retry.NewExponential(base))
	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := db.PingContext(ctx); err != nil {
			logger.Warn(ctx, "database not reachable", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) handler() http.Handler {
	return httpapi.NewRouter(httpapi.RouterConfig{
		ServiceName: app.config.ServiceName,
		Sessions:    app.sessions,
		Verifier:    app.codec,
		Logger:      app.logger.With("module", "http"),
		Recorder:    app.observability.Metrics(),
	})
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.HTTPAddr,
		Handler:           app.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown failed", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.health.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)
	gin.SetMode(gin.ReleaseMode)

	obsErr, err := app.observability.Start()
	if err != nil {
		app.logger.Error(ctx, "observability server failed to start", "error", err)
		cancelFunc()
	}

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.sweeper.Run(ctx)
	}()

	app.ready.Store(true)
	app.health.SetServing(true)

	select {
	case <-ctx.Done():
	case err := <-obsErr:
		if err != nil {
			app.logger.Error(ctx, "observability server stopped", "error", err)
		}
		cancelFunc()
	}

	app.ready.Store(false)
	app.health.SetServing(false)
	wg.Wait()

	app.shutdown()
}

func (app *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.observability.Stop(ctx); err != nil {
		app.logger.Error(ctx, "observability shutdown failed", "error", err)
	}
	if err := app.shutdownTracing(ctx); err != nil {
		app.logger.Error(ctx, "tracing shutdown failed", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close failed", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}

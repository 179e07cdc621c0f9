package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/glowup/internal/client/client"
	"github.com/dmitrijs2005/glowup/internal/client/config"
	"github.com/dmitrijs2005/glowup/internal/client/services"
	"github.com/dmitrijs2005/glowup/internal/filex"
)

// ServiceFactory opens the AuthService for a resolved configuration.
type ServiceFactory func(ctx context.Context, c *config.Config) (services.AuthService, error)

// App carries what the subcommands share. The AuthService is opened on
// first use, after flags have been applied to the configuration.
type App struct {
	config      *config.Config
	open        ServiceFactory
	authService services.AuthService
	reader      *bufio.Reader
	out         io.Writer
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		open:   openAuthService,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

func openAuthService(ctx context.Context, c *config.Config) (services.AuthService, error) {
	if _, err := filex.EnsureParentDir(c.SessionDB); err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, c.SessionDB)
	if err != nil {
		return nil, fmt.Errorf("error initializing session database: %w", err)
	}
	return services.NewAuthService(client.NewHTTPClient(c.ServerURL, c.RequestTimeout), db), nil
}

func (a *App) service(ctx context.Context) (services.AuthService, error) {
	if a.authService != nil {
		return a.authService, nil
	}
	if err := a.config.Validate(); err != nil {
		return nil, err
	}
	s, err := a.open(ctx, a.config)
	if err != nil {
		return nil, err
	}
	a.authService = s
	return s, nil
}

// Close releases the AuthService if a command opened it.
func (a *App) Close(ctx context.Context) error {
	if a.authService == nil {
		return nil
	}
	return a.authService.Close(ctx)
}

package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the authctl command tree. Persistent flags write
// straight into the App configuration, so they override JSON and
// environment values already loaded into it.
func NewRootCmd(a *App) *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "authctl",
		Short: "Command-line client for the glowup auth service",
		Long: `authctl registers accounts and manages a login session against the
glowup auth service. Tokens are cached in a local SQLite file between runs.`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	// read by config.LoadConfig before the command tree is built
	pf.StringVarP(&configFile, "config", "c", "", "config file path")
	pf.StringVarP(&a.config.ServerURL, "server", "a", a.config.ServerURL, "auth service base URL")
	pf.StringVar(&a.config.SessionDB, "session-db", a.config.SessionDB, "local session database file")
	pf.DurationVar(&a.config.RequestTimeout, "timeout", a.config.RequestTimeout, "per-request timeout")

	cmd.AddCommand(newRegisterCmd(a))
	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newMeCmd(a))
	cmd.AddCommand(newRefreshCmd(a))
	cmd.AddCommand(newLogoutCmd(a))
	cmd.AddCommand(newLogoutAllCmd(a))

	return cmd
}

func newRegisterCmd(a *App) *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.Register(cmd.Context(), name, email)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	return cmd
}

func newLoginCmd(a *App) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.Login(cmd.Context(), email)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	return cmd
}

func newMeCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.Me(cmd.Context())
		},
	}
}

func newRefreshCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Rotate the stored refresh token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.Refresh(cmd.Context())
		},
	}
}

func newLogoutCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End this session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.Logout(cmd.Context())
		},
	}
}

func newLogoutAllCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout-all",
		Short: "End every session of the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.LogoutAll(cmd.Context())
		},
	}
}

package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/glowup/internal/flagx"
	"github.com/dmitrijs2005/glowup/internal/timex"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3000")
//	-g string   gRPC health bind address
//	-m string   metrics and probes bind address
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t duration access token validity ("15m")
//	-r duration refresh token validity ("7d")
//	-w duration expired token sweep interval ("1h", "0" disables)
//	-b int      bcrypt cost
//
// Only the flags listed here are picked out of os.Args by flagx.FilterArgs.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-m", "-d", "-s", "-t", "-r", "-w", "-b"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run the HTTP API")
	fs.StringVar(&config.GRPCHealthAddr, "g", config.GRPCHealthAddr, "address and port of the gRPC health service")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "address and port of the metrics endpoint")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	access := timex.NewDuration(config.AccessTokenValidityDuration)
	refresh := timex.NewDuration(config.RefreshTokenValidityDuration)
	sweep := timex.NewDuration(config.TokenSweepInterval)
	fs.Var(&access, "t", "access token validity duration")
	fs.Var(&refresh, "r", "refresh token validity duration")
	fs.Var(&sweep, "w", "expired refresh token sweep interval")

	fs.IntVar(&config.BcryptCost, "b", config.BcryptCost, "bcrypt cost")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = access.Duration
	config.RefreshTokenValidityDuration = refresh.Duration
	config.TokenSweepInterval = sweep.Duration
}

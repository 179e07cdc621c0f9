package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd",
			"-a", "127.0.0.1:8080", "-g", ":6000", "-m", ":9200", "-d", "db", "-s", "secret",
			"-t", "10m", "-r", "2d", "-w", "30m", "-b", "12",
		}, expectPanic: false,
			expected: &Config{
				HTTPAddr:                     "127.0.0.1:8080",
				GRPCHealthAddr:               ":6000",
				MetricsAddr:                  ":9200",
				DatabaseDSN:                  "db",
				SecretKey:                    "secret",
				AccessTokenValidityDuration:  10 * time.Minute,
				RefreshTokenValidityDuration: 48 * time.Hour,
				TokenSweepInterval:           30 * time.Minute,
				BcryptCost:                   12,
			}},
		{name: "foreign flags are ignored", args: []string{"cmd", "-x", "1", "--secret-thing", "-s", "k"},
			expected: &Config{SecretKey: "k"}},
		{name: "bad duration panics", args: []string{"cmd", "-t", "soon"}, expectPanic: true},
		{name: "bad cost panics", args: []string{"cmd", "-b", "ten"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}

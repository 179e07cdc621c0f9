package config

import (
	"errors"
	"time"
)

// Config holds runtime settings for authctl.
//
// Fields:
//   - ServerURL: base URL of the auth service.
//   - SessionDB: path of the local SQLite file holding the token pair.
//   - RequestTimeout: upper bound for a single API call.
type Config struct {
	ServerURL      string        `env:"AUTHCTL_SERVER_URL"`
	SessionDB      string        `env:"AUTHCTL_SESSION_DB"`
	RequestTimeout time.Duration `env:"AUTHCTL_TIMEOUT"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:3000"
	c.SessionDB = "authctl.db"
	c.RequestTimeout = 10 * time.Second
}

// Validate reports settings authctl cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.ServerURL == "" {
		errs = append(errs, errors.New("server url must not be empty"))
	}
	if c.SessionDB == "" {
		errs = append(errs, errors.New("session db path must not be empty"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	return errors.Join(errs...)
}

// LoadConfig builds a Config from defaults, then the JSON file named by
// -c/--config in args, then AUTHCTL_* environment variables. Command-line
// flags are applied on top by the caller.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

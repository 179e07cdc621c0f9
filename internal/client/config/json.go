package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/glowup/internal/flagx"
	"github.com/dmitrijs2005/glowup/internal/timex"
)

// JsonConfig is the shape of the authctl JSON config file.
type JsonConfig struct {
	ServerURL      string         `json:"server_url"`
	SessionDB      string         `json:"session_db"`
	RequestTimeout timex.Duration `json:"request_timeout"`
}

// parseJson overlays cfg with the file named by -c/--config in args. Keys
// missing from the file keep their current values.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPathFromArgs(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	jc := JsonConfig{
		ServerURL:      cfg.ServerURL,
		SessionDB:      cfg.SessionDB,
		RequestTimeout: timex.NewDuration(cfg.RequestTimeout),
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.ServerURL = jc.ServerURL
	cfg.SessionDB = jc.SessionDB
	cfg.RequestTimeout = jc.RequestTimeout.Duration
	return nil
}

package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/glowup/internal/flagx"
	"github.com/dmitrijs2005/glowup/internal/timex"
)

// JsonConfig is the shape of the JSON config file. Durations are read
// through timex.Duration, so both "15m"/"7d" strings and integer
// nanoseconds work.
type JsonConfig struct {
	HTTPAddr                     string         `json:"http_addr"`
	GRPCHealthAddr               string         `json:"grpc_health_addr"`
	MetricsAddr                  string         `json:"metrics_addr"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	TokenSweepInterval           timex.Duration `json:"token_sweep_interval"`
	BcryptCost                   int            `json:"bcrypt_cost"`
	DatabaseConnectRetries       uint64         `json:"database_connect_retries"`
	LogFormat                    string         `json:"log_format"`
	LogLevel                     string         `json:"log_level"`
	OTelEndpoint                 string         `json:"otel_endpoint"`
	ServiceName                  string         `json:"service_name"`
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		HTTPAddr:                     c.HTTPAddr,
		GRPCHealthAddr:               c.GRPCHealthAddr,
		MetricsAddr:                  c.MetricsAddr,
		DatabaseDSN:                  c.DatabaseDSN,
		SecretKey:                    c.SecretKey,
		AccessTokenValidityDuration:  timex.NewDuration(c.AccessTokenValidityDuration),
		RefreshTokenValidityDuration: timex.NewDuration(c.RefreshTokenValidityDuration),
		TokenSweepInterval:           timex.NewDuration(c.TokenSweepInterval),
		BcryptCost:                   c.BcryptCost,
		DatabaseConnectRetries:       c.DatabaseConnectRetries,
		LogFormat:                    c.LogFormat,
		LogLevel:                     c.LogLevel,
		OTelEndpoint:                 c.OTelEndpoint,
		ServiceName:                  c.ServiceName,
	}
}

// parseJson loads the file named by -c/-config, if any, over config. Keys
// missing from the file keep their current values.
func parseJson(config *Config) error {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", jsonConfigFile, err)
	}

	config.HTTPAddr = c.HTTPAddr
	config.GRPCHealthAddr = c.GRPCHealthAddr
	config.MetricsAddr = c.MetricsAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	config.TokenSweepInterval = c.TokenSweepInterval.Duration
	config.BcryptCost = c.BcryptCost
	config.DatabaseConnectRetries = c.DatabaseConnectRetries
	config.LogFormat = c.LogFormat
	config.LogLevel = c.LogLevel
	config.OTelEndpoint = c.OTelEndpoint
	config.ServiceName = c.ServiceName
	return nil
}

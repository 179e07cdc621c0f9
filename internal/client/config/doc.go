// Package config loads runtime configuration for authctl.
//
// Sources, later ones win:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file given with -c or --config.
//  3. AUTHCTL_SERVER_URL, AUTHCTL_SESSION_DB and AUTHCTL_TIMEOUT.
//  4. Command-line flags, bound by the cli package.
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:3000",
//	  "session_db": "authctl.db",
//	  "request_timeout": "10s"
//	}
package config

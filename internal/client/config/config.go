// Package config handles configuration for the Portalsend CLI,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the Portalsend CLI.
//
// Fields:
//   - ServerEndpointAddr: base URL of the backend HTTP API.
//   - Email: the caller's directory address; files are self-wrapped under it.
//   - AccessToken: bearer token issued by the external auth system.
//   - RequestTimeout: per-request timeout for API calls.
//   - LocalDBPath: SQLite file holding pinned recipient keys.
type Config struct {
	ServerEndpointAddr string
	Email              string
	AccessToken        string
	RequestTimeout     time.Duration
	LocalDBPath        string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.RequestTimeout = 30 * time.Second
	c.LocalDBPath = "portalsend.db"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

package notify

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config describes the callback receivers. Endpoints are keyed by event type
// and individually optional; an absent key disables that notification.
//
//	enabled = true
//	base_url = "http://localhost:9000"
//
//	[endpoints]
//	session_closed = "/callbacks/session-closed"
//	voting_result = "/callbacks/voting-result"
type Config struct {
	Enabled   bool              `toml:"enabled"`
	BaseURL   string            `toml:"base_url"`
	Endpoints map[string]string `toml:"endpoints"`
}

// LoadConfig reads a callback configuration from a TOML file.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("loading callback config %s: %w", path, err)
	}
	return &cfg, nil
}

// EndpointURL returns the full URL for the receiver registered under key,
// or "" when callbacks are disabled or the key is not configured.
func (c *Config) EndpointURL(key string) string {
	if !c.Enabled {
		return ""
	}
	path, ok := c.Endpoints[key]
	if !ok || path == "" {
		return ""
	}
	return strings.TrimRight(c.BaseURL, "/") + path
}

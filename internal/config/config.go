// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/ericfisherdev/callpanel/internal/domain/model"
)

// Default values applied when the corresponding variable is unset.
const (
	DefaultListenAddr = "127.0.0.1:8080"
	DefaultDBPath     = "callpanel.db"
	DefaultBackendURL = "http://127.0.0.1:3000"
	DefaultTestNumber = "+14158440885"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr    string
	DBPath        string
	BackendURL    string
	SecretKey     string
	TestNumber    string
	DefaultPrompt string
	CallTimeout   time.Duration
}

// HasSecretKey reports whether an encryption secret is configured. Without
// one the API key store is disabled and every credential loads as "".
func (c *Config) HasSecretKey() bool {
	return c.SecretKey != ""
}

// Load reads configuration from environment variables and returns a validated Config.
// All variables are optional: CALLPANEL_LISTEN_ADDR (127.0.0.1:8080),
// CALLPANEL_DB_PATH (callpanel.db), CALLPANEL_BACKEND_URL (http://127.0.0.1:3000),
// CALLPANEL_SECRET_KEY (unset disables the key store), CALLPANEL_TEST_NUMBER,
// CALLPANEL_DEFAULT_PROMPT, and CALLPANEL_CALL_TIMEOUT (0, no timeout).
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:    envOr("CALLPANEL_LISTEN_ADDR", DefaultListenAddr),
		DBPath:        envOr("CALLPANEL_DB_PATH", DefaultDBPath),
		BackendURL:    envOr("CALLPANEL_BACKEND_URL", DefaultBackendURL),
		SecretKey:     os.Getenv("CALLPANEL_SECRET_KEY"),
		TestNumber:    envOr("CALLPANEL_TEST_NUMBER", DefaultTestNumber),
		DefaultPrompt: envOr("CALLPANEL_DEFAULT_PROMPT", model.DefaultPrompt),
	}

	if v, ok := os.LookupEnv("CALLPANEL_CALL_TIMEOUT"); ok && v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("CALLPANEL_CALL_TIMEOUT has invalid duration %q: %w", v, err)
		}
		if parsed < 0 {
			return nil, fmt.Errorf("CALLPANEL_CALL_TIMEOUT must not be negative, got %s", parsed)
		}
		cfg.CallTimeout = parsed
	}

	u, err := url.Parse(cfg.BackendURL)
	if err != nil {
		return nil, fmt.Errorf("CALLPANEL_BACKEND_URL is not a valid URL %q: %w", cfg.BackendURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("CALLPANEL_BACKEND_URL must be an absolute http(s) URL, got %q", cfg.BackendURL)
	}

	return cfg, nil
}

// envOr returns the value of key, or def when key is unset or empty.
func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all client settings, loaded from the environment.
type Config struct {
	API      APIConfig
	Realtime RealtimeConfig
	Cache    CacheConfig
	LogLevel string `env:"TASKDECK_LOG_LEVEL" envDefault:"info"`
}

type APIConfig struct {
	BaseURL    string        `env:"TASKDECK_API_URL" envDefault:"http://localhost:8000/api"`
	Timeout    time.Duration `env:"TASKDECK_API_TIMEOUT" envDefault:"10s"`
	MaxRetries int           `env:"TASKDECK_API_RETRIES" envDefault:"3"`
}

type RealtimeConfig struct {
	URL               string        `env:"TASKDECK_SOCKET_URL" envDefault:"ws://localhost:8000/ws"`
	ReconnectAttempts int           `env:"TASKDECK_SOCKET_RECONNECT_ATTEMPTS" envDefault:"10"`
	ReconnectDelay    time.Duration `env:"TASKDECK_SOCKET_RECONNECT_DELAY" envDefault:"1s"`
}

type CacheConfig struct {
	Path string `env:"TASKDECK_CACHE_PATH"`
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.Cache.Path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.Cache.Path = filepath.Join(home, ".config", "taskdeck", "snapshots.db")
	}
	return &cfg, nil
}

// Validate checks settings that would otherwise fail deep inside a request.
func (c *Config) Validate() error {
	if _, err := url.Parse(c.API.BaseURL); err != nil {
		return fmt.Errorf("invalid API base URL: %w", err)
	}
	u, err := url.Parse(c.Realtime.URL)
	if err != nil {
		return fmt.Errorf("invalid socket URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("socket URL must use ws or wss scheme, got %q", u.Scheme)
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("retries must be non-negative")
	}
	return nil
}

package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all engine configuration.
type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	State     StateConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Keymap    KeymapConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8040"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// BackendConfig holds the file API the engine's collaborators talk to.
type BackendConfig struct {
	BaseURL        string `envconfig:"BACKEND_URL" default:"http://localhost:8080"`
	TimeoutSeconds int    `envconfig:"BACKEND_TIMEOUT" default:"30"`
}

// StateConfig holds persisted-state locations.
type StateConfig struct {
	Dir string `envconfig:"STATE_DIR" default:".filemanager"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// KeymapConfig points at the optional TOML keymap file.
type KeymapConfig struct {
	Path string `envconfig:"KEYMAP_PATH" default:""`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8040",
			Host: "0.0.0.0",
		},
		Backend: BackendConfig{
			BaseURL:        "http://localhost:8080",
			TimeoutSeconds: 30,
		},
		State: StateConfig{
			Dir: ".filemanager",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

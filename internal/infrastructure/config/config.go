package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// DefaultFile is the config file consulted when WEBDECK_CONFIG is unset.
const DefaultFile = "webdeck.toml"

// Config holds all application configuration. Precedence, lowest to
// highest: built-in defaults, the TOML file, environment variables.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Fetch     FetchConfig     `toml:"fetch"`
	Applets   AppletConfig    `toml:"applets"`
	Logging   LogConfig       `toml:"logging"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration. The backend serves a
// local shell, so the default bind stays on loopback.
type ServerConfig struct {
	Port string `envconfig:"PORT" toml:"port"`
	Host string `envconfig:"HOST" toml:"host"`
}

// FetchConfig holds the outbound HTTP client pool configuration.
type FetchConfig struct {
	PoolSize       int    `envconfig:"FETCH_POOL_SIZE" toml:"pool_size"`
	TimeoutSeconds int    `envconfig:"FETCH_TIMEOUT_SECONDS" toml:"timeout_seconds"`
	UserAgent      string `envconfig:"FETCH_USER_AGENT" toml:"user_agent"`
	ProxyURL       string `envconfig:"FETCH_PROXY_URL" toml:"proxy_url"`
	MaxBodyBytes   int64  `envconfig:"FETCH_MAX_BODY_BYTES" toml:"max_body_bytes"`
}

// Timeout returns the per-exchange timeout as a duration.
func (c FetchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AppletConfig holds applet manifest loading configuration.
type AppletConfig struct {
	Dir string `envconfig:"APPLETS_DIR" toml:"dir"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" toml:"development"`
}

// RateLimitConfig holds per-IP rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" toml:"enabled"`
}

// Load builds the configuration: defaults, then the TOML file when one
// exists, then environment variables on top.
func Load() (*Config, error) {
	cfg := Default()

	path := os.Getenv("WEBDECK_CONFIG")
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := loadFile(path, cfg); err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration or falls back to defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "9180",
			Host: "127.0.0.1",
		},
		Fetch: FetchConfig{
			PoolSize:       4,
			TimeoutSeconds: 30,
			UserAgent:      "WebDeck/1.0",
			MaxBodyBytes:   512 << 20,
		},
		Applets: AppletConfig{
			Dir: "./applets",
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

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return err
	}
	return nil
}

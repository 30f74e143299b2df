package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "9180", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)

	// Fetch config
	assert.Equal(t, 4, cfg.Fetch.PoolSize)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout())
	assert.Equal(t, "WebDeck/1.0", cfg.Fetch.UserAgent)
	assert.Equal(t, int64(512<<20), cfg.Fetch.MaxBodyBytes)
	assert.Empty(t, cfg.Fetch.ProxyURL)

	// Applet config
	assert.Equal(t, "./applets", cfg.Applets.Dir)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadOrDefault(t *testing.T) {
	t.Setenv("WEBDECK_CONFIG", "")

	cfg := LoadOrDefault()
	assert.NotNil(t, cfg)
	assert.Equal(t, "9180", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	t.Setenv("WEBDECK_CONFIG", "")
	envVars := map[string]string{
		"PORT":                  "9000",
		"HOST":                  "0.0.0.0",
		"FETCH_POOL_SIZE":       "8",
		"FETCH_TIMEOUT_SECONDS": "10",
		"FETCH_USER_AGENT":      "Custom/2.0",
		"FETCH_PROXY_URL":       "http://proxy:3128",
		"APPLETS_DIR":           "/srv/applets",
		"LOG_LEVEL":             "debug",
		"LOG_DEV":               "true",
		"RATE_LIMIT_RPS":        "500",
		"RATE_LIMIT_BURST":      "1000",
		"RATE_LIMIT_ENABLED":    "false",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8, cfg.Fetch.PoolSize)
	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout())
	assert.Equal(t, "Custom/2.0", cfg.Fetch.UserAgent)
	assert.Equal(t, "http://proxy:3128", cfg.Fetch.ProxyURL)
	assert.Equal(t, "/srv/applets", cfg.Applets.Dir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webdeck.toml")
	content := `
[server]
port = "7000"

[fetch]
pool_size = 9
user_agent = "Deck/2.0"

[rate_limit]
enabled = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("WEBDECK_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9, cfg.Fetch.PoolSize)
	assert.Equal(t, "Deck/2.0", cfg.Fetch.UserAgent)
	assert.False(t, cfg.RateLimit.Enabled)

	// Environment still wins over the file.
	t.Setenv("FETCH_POOL_SIZE", "2")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Fetch.PoolSize)
	assert.Equal(t, "7000", cfg.Server.Port)
}

func TestLoadExplicitFileMissing(t *testing.T) {
	t.Setenv("WEBDECK_CONFIG", filepath.Join(t.TempDir(), "absent.toml"))

	_, err := Load()
	assert.Error(t, err)

	cfg := LoadOrDefault()
	assert.Equal(t, "9180", cfg.Server.Port)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webdeck.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0o644))
	t.Setenv("WEBDECK_CONFIG", path)

	_, err := Load()
	assert.Error(t, err)
}

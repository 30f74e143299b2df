// Package config provides 12-factor configuration management for the
// WebDeck backend.
//
// Configuration starts from built-in defaults, takes overrides from a
// TOML file (WEBDECK_CONFIG, or ./webdeck.toml when present), and lets
// environment variables win over both.
//
// Configuration Sections:
//   - Server: HTTP bind settings (loopback by default)
//   - Fetch: outbound client pool (size, timeout, user agent, proxy, body cap)
//   - Applets: manifest directory
//   - Logging: log level and output format
//   - RateLimit: per-IP rate limiting
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("listening on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, WEBDECK_CONFIG, APPLETS_DIR
//   - FETCH_POOL_SIZE, FETCH_TIMEOUT_SECONDS, FETCH_USER_AGENT,
//     FETCH_PROXY_URL, FETCH_MAX_BODY_BYTES
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config

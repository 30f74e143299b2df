// Package main is the entry point for the WebDeck backend server.
//
// The backend is the local service behind the deck shell: it executes
// cookie-aware fetches through a shared client pool, serves page
// extraction tools, and scopes each applet to its manifest permissions.
//
// Architecture:
//
//	Deck shell (webview) → Go Backend → Remote HTTP services
//	Applets (webviews)  ↗
//
// The server provides:
//   - REST API for service discovery and execution
//   - WebSocket invoke transport for applets
//   - Applet manifest registry
//   - Prometheus metrics, rate limiting
//
// Configuration:
//   - TOML file (webdeck.toml or WEBDECK_CONFIG)
//   - Environment variables on top
//   - CLI flags for quick overrides
//
// Usage:
//
//	# Default configuration
//	./server
//
//	# Development mode (colored logs, debug level)
//	./server -dev -port 9180 -applets ./applets
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main

// Package http provides HTTP handlers for the deck REST API.
//
// This package implements all HTTP endpoints using the Gin framework,
// covering health checks, service discovery and execution, and applet
// manifest lookup.
//
// Endpoints:
//   - Health: / and /health
//   - Services: /services, /services/discover, /services/execute
//   - Applets: /applets, /applets/:id
//
// Example Usage:
//
//	handlers := http.NewHandlers(registry, applets, fetcher, metrics)
//	router.GET("/health", handlers.Health)
//	router.POST("/services/execute", handlers.ExecuteService)
package http

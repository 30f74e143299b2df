// Package server wires the backend together and runs the HTTP server.
//
// This package orchestrates all components:
//   - HTTP routing with the Gin framework
//   - Middleware stack (recovery, metrics, CORS, rate limiting)
//   - Shared fetch service and client pool
//   - Service provider registration (net, page)
//   - Applet manifest seeding
//
// Server Lifecycle:
//  1. Load configuration from file/environment
//  2. Initialize logger and metrics
//  3. Build the fetch service and register providers
//  4. Seed applet manifests from the applets directory
//  5. Setup HTTP routes and middleware
//  6. Start HTTP server
//  7. Graceful shutdown on signal
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server

// Package middleware provides HTTP middleware for the deck backend.
//
// Middleware stack includes:
//   - CORS: Cross-origin resource sharing for webview-hosted applets
//   - RateLimit: Per-client token bucket rate limiting
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware

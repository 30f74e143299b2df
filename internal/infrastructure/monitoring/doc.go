/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the deck,
tracking inbound HTTP requests, outbound fetches, client pool occupancy,
service tool calls, and WebSocket connections.

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record custom metrics
	metrics.RecordFetch("GET", "200", duration)
	metrics.SetPoolStats(inUse, waiting)

	// Time operations
	timer := monitoring.NewTimer(metrics, "net", "net.fetch")
	// ... perform operation ...
	timer.Stop("success")

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring

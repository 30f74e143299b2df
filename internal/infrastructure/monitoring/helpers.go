package monitoring

import "time"

// Snapshot returns current metric values for the JSON status API.
func (m *Metrics) Snapshot() map[string]interface{} {
	m.mu.RLock()
	snap := m.snapshot
	m.mu.RUnlock()

	var avgDuration float64
	if snap.RequestCount > 0 {
		avgDuration = snap.TotalDuration / float64(snap.RequestCount)
	}

	return map[string]interface{}{
		"total_requests":       snap.TotalRequests,
		"total_errors":         snap.TotalErrors,
		"total_fetches":        snap.TotalFetches,
		"active_connections":   snap.ActiveConnections,
		"avg_request_duration": avgDuration,
		"uptime_seconds":       time.Since(m.startTime).Seconds(),
	}
}

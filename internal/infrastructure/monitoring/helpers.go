package monitoring

// Snapshot returns the current values for the JSON health API
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.snapshot
}

// AverageLatency returns the mean HTTP request duration in milliseconds
func (s MetricsSnapshot) AverageLatency() float64 {
	if s.RequestCount == 0 {
		return 0
	}
	return s.TotalDuration / float64(s.RequestCount) * 1000
}

// ErrorRate returns the fraction of HTTP requests answered with 4xx or 5xx
func (s MetricsSnapshot) ErrorRate() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.TotalErrors) / float64(s.TotalRequests)
}

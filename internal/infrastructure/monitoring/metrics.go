package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Terminal metrics
	SessionsActive  prometheus.Gauge
	SessionsCreated *prometheus.CounterVec
	SessionExits    *prometheus.CounterVec
	LaunchFailures  prometheus.Counter
	OutputBytes     prometheus.Counter
	EventsDropped   *prometheus.CounterVec
	FindSearches    *prometheus.CounterVec

	// Trust metrics
	TrustDecisions *prometheus.CounterVec
	TrustPrompts   prometheus.Counter

	// Command metrics
	CommandCalls    *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	ActiveSessions    int64   `json:"active_sessions"`
	ActiveConnections int64   `json:"active_connections"`
	TotalDuration     float64 `json:"-"` // sum of all request durations
	RequestCount      int64   `json:"-"` // count for averaging
}

// NewMetrics creates a metrics collector registered with reg.
// A nil reg uses the default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shellgate_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shellgate_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shellgate_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shellgate_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Terminal metrics
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "shellgate_sessions_active",
				Help: "Number of terminal sessions in the registry",
			},
		),
		SessionsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shellgate_sessions_created_total",
				Help: "Total number of terminal sessions created, by shell configuration source",
			},
			[]string{"source"},
		),
		SessionExits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shellgate_session_exits_total",
				Help: "Total number of terminal process exits",
			},
			[]string{"reason"},
		),
		LaunchFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "shellgate_launch_failures_total",
				Help: "Total number of shell processes that failed to start",
			},
		),
		OutputBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "shellgate_output_bytes_total",
				Help: "Total bytes read from terminal processes",
			},
		),
		EventsDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shellgate_events_dropped_total",
				Help: "Events dropped because a subscriber was not keeping up",
			},
			[]string{"kind"},
		),
		FindSearches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shellgate_find_searches_total",
				Help: "Total number of find-in-buffer searches",
			},
			[]string{"result"},
		),

		// Trust metrics
		TrustDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shellgate_trust_decisions_total",
				Help: "Total number of workspace shell trust decisions",
			},
			[]string{"state"},
		),
		TrustPrompts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "shellgate_trust_prompts_total",
				Help: "Sessions launched while a workspace shell override awaited a decision",
			},
		),

		// Command metrics
		CommandCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shellgate_command_calls_total",
				Help: "Total number of terminal commands executed",
			},
			[]string{"command", "status"},
		),
		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shellgate_command_duration_seconds",
				Help:    "Terminal command duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"command"},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "shellgate_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shellgate_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "shellgate_uptime_seconds",
			Help: "Server uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordCommand records one terminal command execution
func (m *Metrics) RecordCommand(command, status string, duration time.Duration) {
	m.CommandCalls.WithLabelValues(command, status).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// SetSessionsActive sets the number of sessions in the registry
func (m *Metrics) SetSessionsActive(count int) {
	m.SessionsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveSessions = int64(count)
	m.mu.Unlock()
}

// IncSessionsCreated counts a launched session by configuration source
func (m *Metrics) IncSessionsCreated(source string) {
	m.SessionsCreated.WithLabelValues(source).Inc()
}

// IncSessionExits counts a process exit
func (m *Metrics) IncSessionExits(reason string) {
	m.SessionExits.WithLabelValues(reason).Inc()
}

// IncLaunchFailures counts a failed spawn
func (m *Metrics) IncLaunchFailures() {
	m.LaunchFailures.Inc()
}

// AddOutputBytes counts bytes read from a process
func (m *Metrics) AddOutputBytes(n int) {
	m.OutputBytes.Add(float64(n))
}

// IncEventsDropped counts an event a subscriber missed
func (m *Metrics) IncEventsDropped(kind string) {
	m.EventsDropped.WithLabelValues(kind).Inc()
}

// RecordFind counts a search by whether it matched
func (m *Metrics) RecordFind(found bool) {
	result := "miss"
	if found {
		result = "hit"
	}
	m.FindSearches.WithLabelValues(result).Inc()
}

// IncTrustDecisions counts an allow or disallow
func (m *Metrics) IncTrustDecisions(state string) {
	m.TrustDecisions.WithLabelValues(state).Inc()
}

// IncTrustPrompts counts a launch that needed a trust decision
func (m *Metrics) IncTrustPrompts() {
	m.TrustPrompts.Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Uptime returns how long the collector has existed
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}

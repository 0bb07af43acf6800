package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordHTTPRequest("GET", "/health", "200", 10*time.Millisecond, 0, 10)
	m.RecordHTTPRequest("GET", "/terminals/:id", "404", 30*time.Millisecond, 0, 10)
	m.SetSessionsActive(3)
	m.IncWSConnections()

	snap := m.Snapshot()
	assert.EqualValues(t, 2, snap.TotalRequests)
	assert.EqualValues(t, 1, snap.TotalErrors)
	assert.EqualValues(t, 3, snap.ActiveSessions)
	assert.EqualValues(t, 1, snap.ActiveConnections)
	assert.InDelta(t, 20.0, snap.AverageLatency(), 0.001)
	assert.InDelta(t, 0.5, snap.ErrorRate(), 0.001)
}

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.IncSessionsCreated("workspace")
	m.IncLaunchFailures()
	m.RecordFind(true)
	m.RecordFind(false)
	m.RecordFind(false)
	m.IncEventsDropped("output")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsCreated.WithLabelValues("workspace")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LaunchFailures))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FindSearches.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsDropped.WithLabelValues("output")))
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(prometheus.NewRegistry())

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/terminals/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/terminals/term_123", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/terminals/:id", "204")))
}

func TestTimerNilMetrics(t *testing.T) {
	assert.NotPanics(t, func() {
		NewTimer(nil, "terminal.create").Stop("success")
	})
}

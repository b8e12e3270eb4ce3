package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AppletOS/backend/internal/domain/session"
	"github.com/GriffinCanCode/AppletOS/backend/internal/infrastructure/monitoring"
)

// MetricsAggregator serves the JSON view of the service metrics
type MetricsAggregator struct {
	metrics  *monitoring.Metrics
	sessions *session.Manager
	started  time.Time
}

// NewMetricsAggregator creates a metrics aggregator
func NewMetricsAggregator(metrics *monitoring.Metrics, sessions *session.Manager) *MetricsAggregator {
	return &MetricsAggregator{
		metrics:  metrics,
		sessions: sessions,
		started:  time.Now(),
	}
}

// MetricsSnapshot represents a snapshot of all system metrics
type MetricsSnapshot struct {
	Timestamp time.Time      `json:"timestamp"`
	Backend   map[string]any `json:"backend"`
	Sessions  session.Stats  `json:"sessions"`
	Summary   MetricsSummary `json:"summary"`
}

// MetricsSummary provides high-level metrics
type MetricsSummary struct {
	TotalRequests     int64   `json:"total_requests"`
	AverageLatencyMs  float64 `json:"average_latency_ms"`
	ErrorRate         float64 `json:"error_rate"`
	ParameterBlocked  float64 `json:"parameter_blocked_rate"`
	ActiveConnections int64   `json:"active_connections"`
	ActiveHLEApplets  int64   `json:"active_hle_applets"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// GetAggregatedMetrics returns the backend metrics with a summary
func (ma *MetricsAggregator) GetAggregatedMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, ma.Collect())
}

// Collect builds a snapshot without an HTTP context
func (ma *MetricsAggregator) Collect() MetricsSnapshot {
	var raw monitoring.MetricsSnapshot
	if ma.metrics != nil {
		raw = ma.metrics.Snapshot()
	}
	out := MetricsSnapshot{
		Timestamp: time.Now(),
		Backend: map[string]any{
			"total_requests":     raw.TotalRequests,
			"total_errors":       raw.TotalErrors,
			"total_parameters":   raw.TotalParameters,
			"blocked_parameters": raw.BlockedParameters,
			"active_sessions":    raw.ActiveSessions,
		},
		Summary: summarize(raw, time.Since(ma.started)),
	}
	if ma.sessions != nil {
		out.Sessions = ma.sessions.Stats()
	}
	return out
}

func summarize(raw monitoring.MetricsSnapshot, uptime time.Duration) MetricsSummary {
	s := MetricsSummary{
		TotalRequests:     raw.TotalRequests,
		ActiveConnections: raw.ActiveConnections,
		ActiveHLEApplets:  raw.ActiveHLEApplets,
		UptimeSeconds:     uptime.Seconds(),
	}
	if raw.RequestCount > 0 {
		s.AverageLatencyMs = raw.TotalDuration / float64(raw.RequestCount) * 1000
	}
	if raw.TotalRequests > 0 {
		s.ErrorRate = float64(raw.TotalErrors) / float64(raw.TotalRequests)
	}
	if raw.TotalParameters > 0 {
		s.ParameterBlocked = float64(raw.BlockedParameters) / float64(raw.TotalParameters)
	}
	return s
}

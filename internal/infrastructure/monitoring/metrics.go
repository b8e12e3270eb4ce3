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

	// Applet manager metrics
	Parameters        *prometheus.CounterVec
	ParametersBlocked *prometheus.CounterVec
	Notifications     *prometheus.CounterVec
	Lifecycle         *prometheus.CounterVec
	Launches          *prometheus.CounterVec
	HLEApplets        prometheus.Gauge
	HLETicks          *prometheus.CounterVec

	// Collaborator call metrics
	ServiceCalls    *prometheus.CounterVec
	ServiceDuration *prometheus.HistogramVec

	// Session metrics
	SessionsActive prometheus.Gauge
	SessionsTotal  prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	TotalParameters   int64   `json:"total_parameters"`
	BlockedParameters int64   `json:"blocked_parameters"`
	ActiveHLEApplets  int64   `json:"active_hle_applets"`
	ActiveSessions    int64   `json:"active_sessions"`
	ActiveConnections int64   `json:"active_connections"`
	TotalDuration     float64 `json:"total_duration"` // sum of all request durations
	RequestCount      int64   `json:"request_count"`  // count for averaging
}

// NewMetrics creates a new metrics collector registered with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apt_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "apt_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "apt_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "apt_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Applet manager metrics
		Parameters: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apt_parameters_total",
				Help: "Total number of delivered parameters",
			},
			[]string{"signal", "path"},
		),
		ParametersBlocked: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apt_parameters_blocked_total",
				Help: "Total number of parameters rejected by a full mailbox",
			},
			[]string{"signal"},
		),
		Notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apt_notifications_total",
				Help: "Total number of notifications posted to slots",
			},
			[]string{"notification"},
		),
		Lifecycle: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apt_lifecycle_operations_total",
				Help: "Total number of applet lifecycle operations",
			},
			[]string{"operation", "result"},
		),
		Launches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apt_title_launches_total",
				Help: "Total number of native title launches",
			},
			[]string{"kind", "result"},
		),
		HLEApplets: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "apt_hle_applets",
				Help: "Number of running emulated applets",
			},
		),
		HLETicks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apt_hle_ticks_total",
				Help: "Total number of emulated applet update ticks",
			},
			[]string{"applet"},
		),

		// Collaborator call metrics
		ServiceCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apt_service_calls_total",
				Help: "Total number of collaborator calls",
			},
			[]string{"service", "method", "status"},
		),
		ServiceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "apt_service_duration_seconds",
				Help:    "Collaborator call duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"service", "method"},
		),

		// Session metrics
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "apt_sessions_active",
				Help: "Number of active sessions",
			},
		),
		SessionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "apt_sessions_total",
				Help: "Total number of sessions created",
			},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "apt_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apt_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "apt_uptime_seconds",
			Help: "Service uptime in seconds",
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
	if len(status) > 0 && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordParameter records a parameter delivered through path (mailbox or hle)
func (m *Metrics) RecordParameter(signal, path string) {
	m.Parameters.WithLabelValues(signal, path).Inc()
	m.mu.Lock()
	m.snapshot.TotalParameters++
	m.mu.Unlock()
}

// RecordParameterBlocked records a send rejected by a full mailbox
func (m *Metrics) RecordParameterBlocked(signal string) {
	m.ParametersBlocked.WithLabelValues(signal).Inc()
	m.mu.Lock()
	m.snapshot.BlockedParameters++
	m.mu.Unlock()
}

// RecordNotification records a notification posted to a slot
func (m *Metrics) RecordNotification(notification string) {
	m.Notifications.WithLabelValues(notification).Inc()
}

// RecordLifecycle records a lifecycle operation and its result kind
func (m *Metrics) RecordLifecycle(op, result string) {
	m.Lifecycle.WithLabelValues(op, result).Inc()
}

// RecordLaunch records a native title launch
func (m *Metrics) RecordLaunch(kind, result string) {
	m.Launches.WithLabelValues(kind, result).Inc()
}

// SetHLEApplets sets the number of running emulated applets
func (m *Metrics) SetHLEApplets(count int) {
	m.HLEApplets.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveHLEApplets = int64(count)
	m.mu.Unlock()
}

// RecordHLETick records one emulated applet update
func (m *Metrics) RecordHLETick(applet string) {
	m.HLETicks.WithLabelValues(applet).Inc()
}

// RecordServiceCall records a collaborator call
func (m *Metrics) RecordServiceCall(service, method, status string, duration time.Duration) {
	m.ServiceCalls.WithLabelValues(service, method, status).Inc()
	m.ServiceDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// SetSessionsActive sets the number of active sessions
func (m *Metrics) SetSessionsActive(count int) {
	m.SessionsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveSessions = int64(count)
	m.mu.Unlock()
}

// IncSessionsTotal increments the sessions created counter
func (m *Metrics) IncSessionsTotal() {
	m.SessionsTotal.Inc()
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

// Snapshot returns the current JSON-friendly metric values
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

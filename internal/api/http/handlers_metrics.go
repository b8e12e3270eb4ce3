package http

import (
	"time"

	"github.com/GriffinCanCode/AppletOS/backend/internal/infrastructure/monitoring"
)

// HandlerMetrics wraps handlers with metrics tracking
type HandlerMetrics struct {
	metrics *monitoring.Metrics
}

// NewHandlerMetrics creates a metrics wrapper
func NewHandlerMetrics(metrics *monitoring.Metrics) *HandlerMetrics {
	return &HandlerMetrics{metrics: metrics}
}

// TrackAPTOperation tracks one APT service call. A nil wrapper tracks nothing.
func (hm *HandlerMetrics) TrackAPTOperation(operation string) func(error) {
	return hm.track("apt", operation)
}

// TrackSessionOperation tracks session operations
func (hm *HandlerMetrics) TrackSessionOperation(operation string) func(error) {
	return hm.track("session_manager", operation)
}

func (hm *HandlerMetrics) track(service, operation string) func(error) {
	if hm == nil || hm.metrics == nil {
		return func(error) {}
	}
	start := time.Now()
	return func(err error) {
		status := "success"
		if err != nil {
			status = "error"
		}
		hm.metrics.RecordServiceCall(service, operation, status, time.Since(start))
	}
}

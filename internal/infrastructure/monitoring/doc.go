/*
Package monitoring provides metrics collection for the APT service.

# Overview

This package implements Prometheus-based metrics for the applet manager
(parameters, notifications, lifecycle operations, native launches and
emulated applet ticks) and for the HTTP and WebSocket surfaces in front of it.

Metrics are registered with an explicit registry so tests and multiple
servers never share collectors.

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", monitoring.Handler(reg))

	// Time collaborator calls
	timer := monitoring.NewTimer(metrics, "loader", "launch")
	// ... perform operation ...
	timer.Stop("success")
*/
package monitoring

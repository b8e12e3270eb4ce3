// Package main is the entry point for the AppletOS APT service.
//
// The server hosts emulated console sessions. Each session owns an applet
// manager, the kernel objects it signals and the virtual clock that drives
// its periodic button and library-applet updates.
//
// The server provides:
//   - REST API for every APT service call (/apt/:op)
//   - Session registry with a default session
//   - WebSocket stream of kernel signals
//   - Prometheus and JSON metrics
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -region 1
//
//	# Development mode (console logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main

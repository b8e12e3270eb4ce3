// Package logging provides structured logging using uber/zap.
//
// This package offers production-ready logging with two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// The applet manager logs routine parameter deliveries at Debug, rejected
// sends and occupied slots at Warn, and failed launches at Error. Every
// session gets a child logger carrying its id.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "8000"))
//	log := logger.ForSession(sess.ID())
//	log.Warn("parameter already pending", zap.Stringer("destination", id))
package logging

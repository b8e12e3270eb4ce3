/*
Package resilience provides a circuit breaker for remote collaborators.

# Overview

The remote title loader calls an external launcher service. This package
stops those calls from piling up when the service is down so that applet
lifecycle calls fail fast instead of waiting on timeouts.

# Design

Breaker wraps github.com/sony/gobreaker behind an error-only Execute and
re-exports its states and counts, so callers never import it directly.
An IsSuccessful hook lets a caller treat answers such as "title not found"
as healthy responses.

# Usage

	breaker := resilience.New("loader-remote", resilience.Settings{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("breaker state changed", zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})

	err := breaker.Execute(func() error {
		return client.Launch(ctx, media, titleID)
	})

# States

- Closed: Normal operation, requests pass through
- Open: Service unavailable, requests fail immediately
- Half-Open: Testing if service recovered, limited requests allowed

# Pattern

The circuit breaker transitions between states based on success/failure rates:

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open
*/
package resilience

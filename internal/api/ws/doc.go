// Package ws streams session events over WebSocket.
//
// A connection is bound to one session: the default session on /events,
// or the session named in /sessions/:id/events. Every kernel signal the
// session raises is forwarded to the client as it happens.
//
// Message Types (Client → Server):
//   - ping: Keep-alive ping
//   - button: Press or release a system button ({"name":"home","pressed":true})
//
// Message Types (Server → Client):
//   - system: Connection established
//   - signal: A kernel object was signaled
//   - pong: Reply to ping
//   - button: Button state accepted
//   - error: Error occurred
//
// Example Usage:
//
//	handler := ws.NewHandler(sessions, metrics, logger)
//	router.GET("/events", handler.HandleConnection)
package ws

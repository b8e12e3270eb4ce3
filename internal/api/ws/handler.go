package ws

import (
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AppletOS/backend/internal/domain/session"
	"github.com/GriffinCanCode/AppletOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AppletOS/backend/internal/input"
	"github.com/GriffinCanCode/AppletOS/backend/internal/kernel"
	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/id"
)

const (
	eventBuffer  = 64
	writeTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is a client request.
type Message struct {
	Type    string `json:"type"`
	Name    string `json:"name,omitempty"`
	Pressed bool   `json:"pressed,omitempty"`
}

// Handler manages WebSocket connections
type Handler struct {
	sessions *session.Manager
	metrics  *monitoring.Metrics
	log      *zap.Logger
}

// NewHandler creates a new WebSocket handler. metrics and log may be nil.
func NewHandler(sessions *session.Manager, metrics *monitoring.Metrics, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		sessions: sessions,
		metrics:  metrics,
		log:      log,
	}
}

func (h *Handler) resolve(c *gin.Context) (*session.Session, int) {
	raw := c.Param("id")
	if raw == "" {
		if s := h.sessions.Default(); s != nil {
			return s, 0
		}
		return nil, http.StatusServiceUnavailable
	}
	if !id.IsValid(raw) {
		return nil, http.StatusBadRequest
	}
	s, err := h.sessions.Get(id.SessionID(raw))
	if err != nil {
		return nil, http.StatusNotFound
	}
	return s, 0
}

// HandleConnection upgrades the request and streams the session's events
func (h *Handler) HandleConnection(c *gin.Context) {
	s, status := h.resolve(c)
	if s == nil {
		c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status)})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	events, unsubscribe := s.Kernel().Subscribe(eventBuffer)
	defer unsubscribe()

	out := make(chan any, eventBuffer)
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		h.writeLoop(conn, events, out, done)
		conn.Close()
	}()
	defer close(done)

	push := func(v any) {
		select {
		case out <- v:
		case <-stopped:
		}
	}

	push(map[string]any{
		"type":       "system",
		"session_id": s.ID(),
		"timestamp":  time.Now().Unix(),
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket read error", zap.Error(err))
			}
			return
		}
		var msg Message
		if err := sonic.Unmarshal(raw, &msg); err != nil {
			push(errorMessage("malformed message"))
			continue
		}
		h.record("inbound", msg.Type)

		switch msg.Type {
		case "ping":
			push(map[string]any{"type": "pong"})
		case "button":
			push(h.handleButton(s, msg))
		default:
			push(errorMessage("unknown message type"))
		}
	}
}

func (h *Handler) handleButton(s *session.Session, msg Message) any {
	name, err := input.ParseName(msg.Name)
	if err != nil {
		return errorMessage(err.Error())
	}
	if err := s.Devices().Set(name, msg.Pressed); err != nil {
		return errorMessage(err.Error())
	}
	return map[string]any{
		"type":    "button",
		"name":    name,
		"pressed": msg.Pressed,
	}
}

// writeLoop owns every write to conn.
func (h *Handler) writeLoop(conn *websocket.Conn, events <-chan kernel.SignalEvent, out <-chan any, done <-chan struct{}) {
	for {
		var payload any
		select {
		case <-done:
			return
		case msg := <-out:
			payload = msg
		case ev, ok := <-events:
			if !ok {
				return
			}
			payload = map[string]any{
				"type":   "signal",
				"handle": ev.Handle,
				"name":   ev.Name,
				"count":  ev.Count,
				"at":     ev.At,
			}
		}
		if err := h.send(conn, payload); err != nil {
			h.log.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
}

func (h *Handler) send(conn *websocket.Conn, data any) error {
	b, err := sonic.Marshal(data)
	if err != nil {
		return err
	}
	if m, ok := data.(map[string]any); ok {
		if t, ok := m["type"].(string); ok {
			h.record("outbound", t)
		}
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, b)
}

func (h *Handler) record(direction, msgType string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage(direction, msgType)
	}
}

func errorMessage(msg string) map[string]any {
	return map[string]any{
		"type":      "error",
		"message":   msg,
		"timestamp": time.Now().Unix(),
	}
}

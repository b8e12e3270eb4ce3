package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AppletOS/backend/internal/domain/session"
	"github.com/GriffinCanCode/AppletOS/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/id"
)

func setupServer(t *testing.T) (*session.Manager, *httptest.Server) {
	t.Helper()
	cfg := session.ConfigFrom(config.Default())
	cfg.Timing.Realtime = false
	sessions, err := session.NewManager(cfg, session.Deps{Clock: clockwork.NewFakeClock()})
	require.NoError(t, err)
	t.Cleanup(sessions.Shutdown)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewHandler(sessions, nil, nil)
	router.GET("/events", h.HandleConnection)
	router.GET("/sessions/:id/events", h.HandleConnection)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return sessions, srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg map[string]any
	require.NoError(t, sonic.Unmarshal(raw, &msg))
	return msg
}

func write(t *testing.T, conn *websocket.Conn, msg Message) {
	t.Helper()
	b, err := sonic.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, b))
}

func TestHandleConnectionWelcome(t *testing.T) {
	sessions, srv := setupServer(t)
	conn := dial(t, srv, "/events")

	msg := read(t, conn)
	assert.Equal(t, "system", msg["type"])
	assert.Equal(t, sessions.Default().ID().String(), msg["session_id"])
}

func TestHandleConnectionForwardsSignals(t *testing.T) {
	sessions, srv := setupServer(t)
	conn := dial(t, srv, "/events")
	read(t, conn)

	k := sessions.Default().Kernel()
	h := k.CreateEvent("test event")
	k.Signal(h)

	msg := read(t, conn)
	assert.Equal(t, "signal", msg["type"])
	assert.Equal(t, "test event", msg["name"])
	assert.EqualValues(t, h, msg["handle"])
}

func TestHandleConnectionMessages(t *testing.T) {
	sessions, srv := setupServer(t)
	_, err := sessions.Default().Advance(16666 * time.Microsecond)
	require.NoError(t, err)

	conn := dial(t, srv, "/events")
	read(t, conn)

	tests := []struct {
		name     string
		msg      Message
		wantType string
	}{
		{"ping", Message{Type: "ping"}, "pong"},
		{"button press", Message{Type: "button", Name: "home", Pressed: true}, "button"},
		{"unknown button", Message{Type: "button", Name: "start"}, "error"},
		{"unknown type", Message{Type: "chat"}, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			write(t, conn, tt.msg)
			assert.Equal(t, tt.wantType, read(t, conn)["type"])
		})
	}
}

func TestHandleConnectionScopedSession(t *testing.T) {
	sessions, srv := setupServer(t)
	s, err := sessions.Create()
	require.NoError(t, err)

	conn := dial(t, srv, "/sessions/"+s.ID().String()+"/events")
	assert.Equal(t, s.ID().String(), read(t, conn)["session_id"])
}

func TestHandleConnectionRejectsUnknownSession(t *testing.T) {
	_, srv := setupServer(t)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"unknown session", "/sessions/" + id.NewSessionID().String() + "/events", http.StatusNotFound},
		{"malformed id", "/sessions/nope/events", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := "ws" + strings.TrimPrefix(srv.URL, "http") + tt.path
			_, resp, err := websocket.DefaultDialer.Dial(url, nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

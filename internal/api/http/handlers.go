package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AppletOS/backend/internal/domain/applet"
	"github.com/GriffinCanCode/AppletOS/backend/internal/domain/session"
	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/id"
)

// Version is reported by the root handler.
const Version = "0.3.0"

const sessionKey = "session"

// Handlers contains all HTTP handlers
type Handlers struct {
	sessions *session.Manager
	metrics  *HandlerMetrics
	log      *zap.Logger
	started  time.Time
}

// NewHandlers creates a new handler set. metrics and log may be nil.
func NewHandlers(sessions *session.Manager, metrics *HandlerMetrics, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		sessions: sessions,
		metrics:  metrics,
		log:      log,
		started:  time.Now(),
	}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "AppletOS APT service",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"sessions":       h.sessions.Stats(),
		"uptime_seconds": time.Since(h.started).Seconds(),
	})
}

// DefaultSession binds the default session for the unscoped routes.
func (h *Handlers) DefaultSession(c *gin.Context) {
	s := h.sessions.Default()
	if s == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "default session is unavailable"})
		return
	}
	c.Set(sessionKey, s)
	c.Next()
}

// ScopedSession binds the session named by the :id path parameter.
func (h *Handlers) ScopedSession(c *gin.Context) {
	raw := c.Param("id")
	if !id.IsValid(raw) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	s, err := h.sessions.Get(id.SessionID(raw))
	if err != nil {
		respondError(c, err)
		c.Abort()
		return
	}
	c.Set(sessionKey, s)
	c.Next()
}

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

// respondError maps domain errors onto status codes. Console result codes
// are conflicts the guest is expected to handle, so they carry the packed
// code alongside the description.
func respondError(c *gin.Context, err error) {
	var aptErr *applet.Error
	switch {
	case errors.As(err, &aptErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":       aptErr.Kind,
			"code":        aptErr.Code(),
			"description": aptErr.Description,
		})
	case errors.Is(err, applet.ErrProtocolViolation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrDefaultSession):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrClosed):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
}

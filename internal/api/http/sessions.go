package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/id"
)

// ListSessions lists the live sessions
func (h *Handlers) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sessions": h.sessions.List(),
		"stats":    h.sessions.Stats(),
	})
}

// CreateSession starts a new emulated session
func (h *Handlers) CreateSession(c *gin.Context) {
	done := h.metrics.TrackSessionOperation("create")
	s, err := h.sessions.Create()
	done(err)
	if err != nil {
		respondError(c, err)
		return
	}
	h.log.Info("session created", zap.String("session_id", s.ID().String()))
	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"id":         s.ID(),
		"created_at": s.CreatedAt(),
	})
}

// GetSession returns a snapshot of the bound session
func (h *Handlers) GetSession(c *gin.Context) {
	snap, err := currentSession(c).Snapshot()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// DeleteSession closes a session
func (h *Handlers) DeleteSession(c *gin.Context) {
	sid := id.SessionID(c.Param("id"))
	done := h.metrics.TrackSessionOperation("close")
	err := h.sessions.Close(sid)
	done(err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": sid})
}

// AdvanceRequest moves virtual time forward.
type AdvanceRequest struct {
	Microseconds int64 `json:"us" binding:"required,min=1"`
}

// AdvanceTime runs the periodic callbacks due within the requested span
func (h *Handlers) AdvanceTime(c *gin.Context) {
	var req AdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s := currentSession(c)
	ran, err := s.Advance(time.Duration(req.Microseconds) * time.Microsecond)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"callbacks":       ran,
		"virtual_time_us": s.Now().Microseconds(),
	})
}

// GetCaptures lists the framebuffer captures of the bound session
func (h *Handlers) GetCaptures(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"captures": currentSession(c).Captures()})
}

// GetLaunches lists the titles the bound session launched
func (h *Handlers) GetLaunches(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"launches": currentSession(c).Launches()})
}

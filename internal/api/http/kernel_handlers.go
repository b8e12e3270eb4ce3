package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AppletOS/backend/internal/input"
	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/types"
)

// GetKernelStats reports the signal-object table of the bound session
func (h *Handlers) GetKernelStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   currentSession(c).Kernel().Stats(),
	})
}

// GetKernelObject describes one signal object
func (h *Handlers) GetKernelObject(c *gin.Context) {
	raw, err := strconv.ParseUint(c.Param("handle"), 0, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid handle: " + err.Error(),
		})
		return
	}

	obj, err := currentSession(c).Kernel().Lookup(types.Handle(raw))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"object":  obj,
	})
}

// ConsumeKernelObject clears a pending signal the way a guest wait would
func (h *Handlers) ConsumeKernelObject(c *gin.Context) {
	raw, err := strconv.ParseUint(c.Param("handle"), 0, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid handle: " + err.Error(),
		})
		return
	}

	signaled, err := currentSession(c).Kernel().Consume(types.Handle(raw))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"signaled": signaled,
	})
}

// SetButton changes the state of a system button
func (h *Handlers) SetButton(c *gin.Context) {
	name, err := input.ParseName(c.Param("button"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	var req struct {
		Pressed *bool `json:"pressed" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := currentSession(c).Devices().Set(name, *req.Pressed); err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"button":  name,
		"pressed": *req.Pressed,
	})
}

// File: handlers/providercrud.go
package handlers

import (
	"net/http"
	"time"

	"calibook/models"
	"calibook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CreateProviderHandler handles POST /api/admin/providers.
func (h *HandlerBundle) CreateProviderHandler(c *gin.Context) {
	var p models.Provider
	if err := c.ShouldBindJSON(&p); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if err := h.ProviderRepo.Create(c.Request.Context(), &p); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to create provider", "")
		return
	}
	c.JSON(http.StatusCreated, p)
}

// GetProviderHandler handles GET /api/admin/providers/:id.
func (h *HandlerBundle) GetProviderHandler(c *gin.Context) {
	logger := utils.GetLogger()
	id := c.Param("id")
	p, err := h.ProviderRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		logger.Warn("Provider not found", zap.String("id", id))
		c.JSON(http.StatusNotFound, gin.H{"error": "Provider not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateProviderHandler handles PUT /api/admin/providers/:id.
func (h *HandlerBundle) UpdateProviderHandler(c *gin.Context) {
	var p models.Provider
	if err := c.ShouldBindJSON(&p); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	p.ID = c.Param("id")
	if err := h.ProviderRepo.Update(c.Request.Context(), &p); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Provider not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeleteProviderHandler handles DELETE /api/admin/providers/:id.
func (h *HandlerBundle) DeleteProviderHandler(c *gin.Context) {
	if err := h.ProviderRepo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Provider not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateAgentHandler handles POST /api/admin/providers/:id/agents.
func (h *HandlerBundle) CreateAgentHandler(c *gin.Context) {
	var a models.Agent
	if err := c.ShouldBindJSON(&a); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	a.ProviderID = c.Param("id")
	if err := h.AgentRepo.Create(c.Request.Context(), &a); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to create agent", "")
		return
	}
	c.JSON(http.StatusCreated, a)
}

// ListAgentsHandler handles GET /api/admin/providers/:id/agents.
func (h *HandlerBundle) ListAgentsHandler(c *gin.Context) {
	agents, err := h.AgentRepo.ListByProvider(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to list agents", "")
		return
	}
	c.JSON(http.StatusOK, agents)
}

// UpdateAgentHandler handles PUT /api/admin/agents/:id.
func (h *HandlerBundle) UpdateAgentHandler(c *gin.Context) {
	var a models.Agent
	if err := c.ShouldBindJSON(&a); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	a.ID = c.Param("id")
	if err := h.AgentRepo.Update(c.Request.Context(), &a); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Agent not found"})
		return
	}
	c.JSON(http.StatusOK, a)
}

// SetAgentModeHandler handles PUT /api/admin/agents/:id/mode. The operator
// flips the availability mode or takes the channel with a manual override.
func (h *HandlerBundle) SetAgentModeHandler(c *gin.Context) {
	var input struct {
		Mode                string     `json:"mode"`
		ManualOverrideUntil *time.Time `json:"manualOverrideUntil"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")

	if input.Mode != "" {
		switch input.Mode {
		case models.ModeActive, models.ModeAway, models.ModeGhost:
		default:
			utils.JSONError(c, http.StatusBadRequest, "invalid mode", input.Mode)
			return
		}
		if err := h.AgentRepo.SetAvailabilityMode(ctx, id, input.Mode); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Agent not found"})
			return
		}
	}
	if input.ManualOverrideUntil != nil {
		if err := h.AgentRepo.SetManualOverride(ctx, id, *input.ManualOverrideUntil); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Agent not found"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// File: handlers/schedulecrud.go
package handlers

import (
	"net/http"
	"strconv"

	"calibook/models"
	"calibook/utils"

	"github.com/gin-gonic/gin"
)

// UpsertHoursHandler handles PUT /api/admin/hours. One record per (scope,
// weekday); the scope is either an agent ID or a provider ID.
func (h *HandlerBundle) UpsertHoursHandler(c *gin.Context) {
	var hrs models.BusinessHours
	if err := c.ShouldBindJSON(&hrs); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if !hrs.IsClosed && hrs.CloseMinute <= hrs.OpenMinute {
		utils.JSONError(c, http.StatusBadRequest, "invalid hours", "close must be after open")
		return
	}
	if err := h.ScheduleRepo.UpsertHours(c.Request.Context(), &hrs); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "failed to save hours", err.Error())
		return
	}
	c.JSON(http.StatusOK, hrs)
}

// GetHoursHandler handles GET /api/admin/hours/:scopeId.
func (h *HandlerBundle) GetHoursHandler(c *gin.Context) {
	hours, err := h.ScheduleRepo.GetHoursByScope(c.Request.Context(), c.Param("scopeId"))
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to load hours", "")
		return
	}
	c.JSON(http.StatusOK, hours)
}

// DeleteHoursHandler handles DELETE /api/admin/hours/:scopeId/:weekday.
func (h *HandlerBundle) DeleteHoursHandler(c *gin.Context) {
	weekday, err := strconv.Atoi(c.Param("weekday"))
	if err != nil || weekday < 0 || weekday > 6 {
		utils.JSONError(c, http.StatusBadRequest, "invalid weekday", c.Param("weekday"))
		return
	}
	if err := h.ScheduleRepo.DeleteHours(c.Request.Context(), c.Param("scopeId"), weekday); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Hours not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateBlockedRangeHandler handles POST /api/admin/agents/:id/blocked.
func (h *HandlerBundle) CreateBlockedRangeHandler(c *gin.Context) {
	var b models.BlockedRange
	if err := c.ShouldBindJSON(&b); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	b.AgentID = c.Param("id")
	if err := h.ScheduleRepo.CreateBlockedRange(c.Request.Context(), &b); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "failed to save blocked range", err.Error())
		return
	}
	c.JSON(http.StatusCreated, b)
}

// DeleteBlockedRangeHandler handles DELETE /api/admin/blocked/:id.
func (h *HandlerBundle) DeleteBlockedRangeHandler(c *gin.Context) {
	if err := h.ScheduleRepo.DeleteBlockedRange(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Blocked range not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// File: handlers/appointment.go
package handlers

import (
	"errors"
	"net/http"
	"time"

	"calibook/services/booking"
	"calibook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CreateAppointmentHandler handles POST /api/admin/appointments. The
// dashboard creates appointments through the arbiter like everyone else, so
// the no-overlap invariant holds no matter who writes.
func (h *HandlerBundle) CreateAppointmentHandler(c *gin.Context) {
	var input struct {
		ProviderID  string    `json:"providerId" binding:"required"`
		AgentID     string    `json:"agentId" binding:"required"`
		ClientPhone string    `json:"clientPhone" binding:"required"`
		ServiceID   string    `json:"serviceId"`
		Start       time.Time `json:"start" binding:"required"`
		DurationMin int       `json:"durationMin" binding:"required"`
		PriceMinor  int64     `json:"priceMinor"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	appt, err := h.Arbiter.Commit(c.Request.Context(), booking.CommitRequest{
		ProviderID:  input.ProviderID,
		AgentID:     input.AgentID,
		ClientPhone: input.ClientPhone,
		ServiceID:   input.ServiceID,
		Start:       input.Start,
		DurationMin: input.DurationMin,
		PriceMinor:  input.PriceMinor,
	})
	if err != nil {
		var averr *booking.AvailabilityError
		if errors.As(err, &averr) {
			c.JSON(http.StatusConflict, gin.H{"error": averr.Code, "details": averr.Message})
			return
		}
		logger := utils.GetLogger()
		logger.Error("appointment create failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to create appointment", "")
		return
	}
	c.JSON(http.StatusCreated, appt)
}

// ListAppointmentsHandler handles GET /api/admin/agents/:id/appointments with
// from/to query params (RFC 3339).
func (h *HandlerBundle) ListAppointmentsHandler(c *gin.Context) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid 'from'", c.Query("from"))
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid 'to'", c.Query("to"))
		return
	}
	appts, err := h.AppointmentRepo.ListByAgent(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to list appointments", "")
		return
	}
	c.JSON(http.StatusOK, appts)
}

// CancelAppointmentHandler handles POST /api/admin/appointments/:id/cancel.
func (h *HandlerBundle) CancelAppointmentHandler(c *gin.Context) {
	if err := h.Arbiter.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Appointment not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// UpdateAppointmentStatusHandler handles PUT /api/admin/appointments/:id/status
// for the completed / no-show bookkeeping transitions.
func (h *HandlerBundle) UpdateAppointmentStatusHandler(c *gin.Context) {
	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	switch input.Status {
	case "completed", "no_show", "cancelled":
	default:
		utils.JSONError(c, http.StatusBadRequest, "invalid status", input.Status)
		return
	}
	if err := h.AppointmentRepo.UpdateStatus(c.Request.Context(), c.Param("id"), input.Status); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Appointment not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": input.Status})
}

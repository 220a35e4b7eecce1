// File: handlers/chat.go
package handlers

import (
	"errors"
	"net/http"

	"calibook/services/session"
	"calibook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChatTurnHandler handles POST /api/chat/turn. The messaging transport
// delivers each inbound message here keyed by (provider, client phone) and
// relays the returned reply back to the client.
func (h *HandlerBundle) ChatTurnHandler(c *gin.Context) {
	var input struct {
		ProviderID string `json:"providerId" binding:"required"`
		Phone      string `json:"phone" binding:"required"`
		Text       string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	reply, err := h.Engine.HandleTurn(c.Request.Context(), input.ProviderID, input.Phone, input.Text)
	if err != nil {
		var verr *session.ValidationError
		if errors.As(err, &verr) {
			utils.JSONError(c, http.StatusBadRequest, verr.Message, "")
			return
		}
		logger := utils.GetLogger()
		logger.Error("chat turn failed",
			zap.String("providerId", input.ProviderID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to process message", "")
		return
	}
	c.JSON(http.StatusOK, reply)
}

// ActiveSessionsHandler handles GET /api/admin/providers/:id/sessions and
// lists non-terminal sessions. Expiry is lazy, so sessions already past the
// idle window are filtered out here even before their record is flipped.
func (h *HandlerBundle) ActiveSessionsHandler(c *gin.Context) {
	sessions, err := h.SessionRepo.ListActive(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to list sessions", "")
		return
	}
	now := h.Engine.Now().UTC()
	out := sessions[:0]
	for _, s := range sessions {
		if !s.IdleSince(now, h.Engine.IdleTimeout) {
			out = append(out, s)
		}
	}
	c.JSON(http.StatusOK, out)
}

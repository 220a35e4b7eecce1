// File: handlers/blacklist.go
package handlers

import (
	"net/http"

	"calibook/utils"

	"github.com/gin-gonic/gin"
)

// AddBlacklistHandler handles POST /api/admin/blacklist.
func (h *HandlerBundle) AddBlacklistHandler(c *gin.Context) {
	var input struct {
		Phone  string `json:"phone" binding:"required"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if err := h.BlacklistRepo.Add(c.Request.Context(), input.Phone, input.Reason); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to add blacklist entry", "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "listed"})
}

// RemoveBlacklistHandler handles DELETE /api/admin/blacklist/:phone.
func (h *HandlerBundle) RemoveBlacklistHandler(c *gin.Context) {
	if err := h.BlacklistRepo.Remove(c.Request.Context(), c.Param("phone")); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to remove blacklist entry", "")
		return
	}
	c.Status(http.StatusNoContent)
}

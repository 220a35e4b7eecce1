// File: handlers/pricingcrud.go
package handlers

import (
	"net/http"

	"calibook/models"
	"calibook/utils"

	"github.com/gin-gonic/gin"
)

// UpsertTierHandler handles PUT /api/admin/tiers.
func (h *HandlerBundle) UpsertTierHandler(c *gin.Context) {
	var t models.PricingTier
	if err := c.ShouldBindJSON(&t); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if t.DurationMin <= 0 || t.PriceMinor < 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid tier", "duration and price must be positive")
		return
	}
	switch t.Category {
	case models.CategoryPrivate, models.CategoryOutcall:
	default:
		utils.JSONError(c, http.StatusBadRequest, "invalid category", t.Category)
		return
	}
	if err := h.PricingRepo.UpsertTier(c.Request.Context(), &t); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to save tier", "")
		return
	}
	c.JSON(http.StatusOK, t)
}

// ListTiersHandler handles GET /api/admin/tiers/:id, where id is the scope
// (provider or agent) the tiers belong to.
func (h *HandlerBundle) ListTiersHandler(c *gin.Context) {
	tiers, err := h.PricingRepo.ListTiersByScope(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to list tiers", "")
		return
	}
	c.JSON(http.StatusOK, tiers)
}

// DeleteTierHandler handles DELETE /api/admin/tiers/:id.
func (h *HandlerBundle) DeleteTierHandler(c *gin.Context) {
	if err := h.PricingRepo.DeleteTier(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tier not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// UpsertExtraHandler handles PUT /api/admin/providers/:id/extras.
func (h *HandlerBundle) UpsertExtraHandler(c *gin.Context) {
	var e models.Extra
	if err := c.ShouldBindJSON(&e); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	e.ProviderID = c.Param("id")
	if e.Name == "" || e.SurchargeMinor < 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid extra", "name required, surcharge must not be negative")
		return
	}
	if err := h.PricingRepo.UpsertExtra(c.Request.Context(), &e); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to save extra", "")
		return
	}
	c.JSON(http.StatusOK, e)
}

// ListExtrasHandler handles GET /api/admin/providers/:id/extras.
func (h *HandlerBundle) ListExtrasHandler(c *gin.Context) {
	extras, err := h.PricingRepo.ListExtras(c.Request.Context(), c.Param("id"), false)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to list extras", "")
		return
	}
	c.JSON(http.StatusOK, extras)
}

// DeleteExtraHandler handles DELETE /api/admin/extras/:id.
func (h *HandlerBundle) DeleteExtraHandler(c *gin.Context) {
	if err := h.PricingRepo.DeleteExtra(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Extra not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

package handlers

import (
	"net/http"
	"strconv"

	"stagepass/internal/models"

	"github.com/gin-gonic/gin"
)

// GetAvailability - GET /api/ticket-types/:id/availability
// Снимок доступности одного типа билета
func (h *Handlers) GetAvailability(c *gin.Context) {
	ticketTypeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || ticketTypeID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket type id"})
		return
	}

	response, err := h.services.Availability.Get(c.Request.Context(), ticketTypeID)
	if err != nil {
		h.handleServiceError(c, err, "Failed to get availability")
		return
	}

	c.JSON(http.StatusOK, response)
}

// CheckAvailability - POST /api/availability/check
// Проверить, можно ли купить указанное количество; не резервирует билеты
func (h *Handlers) CheckAvailability(c *gin.Context) {
	var req models.CheckAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	response, err := h.services.Availability.Check(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err, "Failed to check availability")
		return
	}

	c.JSON(http.StatusOK, response)
}

// ValidatePromoCode - POST /api/promo-codes/validate
// Проверить промокод без фиксации использования
func (h *Handlers) ValidatePromoCode(c *gin.Context) {
	var req models.ValidatePromoCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	response, err := h.services.Availability.ValidatePromoCode(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err, "Failed to validate promo code")
		return
	}

	c.JSON(http.StatusOK, response)
}

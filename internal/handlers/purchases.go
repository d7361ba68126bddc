package handlers

import (
	"net/http"

	"stagepass/internal/models"

	"github.com/gin-gonic/gin"
)

// CreatePurchase - POST /api/purchases
// Провести покупку билетов
func (h *Handlers) CreatePurchase(c *gin.Context) {
	var req models.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	response, err := h.services.Purchases.Purchase(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err, "Failed to process purchase")
		return
	}

	c.JSON(http.StatusCreated, response)
}

// GetSale - GET /api/purchases/:order_number
// Получить продажу по номеру заказа
func (h *Handlers) GetSale(c *gin.Context) {
	orderNumber := c.Param("order_number")
	if orderNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order number is required"})
		return
	}

	sale, err := h.services.Purchases.GetSaleByOrderNumber(c.Request.Context(), orderNumber)
	if err != nil {
		h.handleServiceError(c, err, "Failed to get sale")
		return
	}

	c.JSON(http.StatusOK, sale)
}

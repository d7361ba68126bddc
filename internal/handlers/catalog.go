package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"stagepass/internal/models"

	"github.com/gin-gonic/gin"
)

// ListTicketTypes - GET /api/events/:event_id/ticket-types
// Каталог типов билетов события с вычисленной доступностью
func (h *Handlers) ListTicketTypes(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("event_id"), 10, 64)
	if err != nil || eventID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	includeAnalytics := c.Query("include_analytics") == "true"

	// Try to get from cache if cache client is available
	if h.catalogCache != nil {
		rawJSON, err := h.catalogCache.GetListingRaw(c.Request.Context(), eventID, includeAnalytics)
		if err == nil {
			c.Data(http.StatusOK, "application/json", rawJSON)
			return
		}
		// Cache miss or error - continue to fetch from database
	}

	response, err := h.services.Catalog.ListTicketTypes(c.Request.Context(), eventID, includeAnalytics)
	if err != nil {
		h.handleServiceError(c, err, "Failed to list ticket types")
		return
	}

	if h.catalogCache != nil {
		if err := h.catalogCache.SetListing(c.Request.Context(), eventID, includeAnalytics, response); err != nil {
			slog.Warn("Failed to cache ticket type listing", "error", err, "event_id", eventID)
		}
	}

	c.JSON(http.StatusOK, response)
}

// GetSocialStats - GET /api/events/:event_id/social-stats
// Агрегированная статистика шеринга по платформам
func (h *Handlers) GetSocialStats(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("event_id"), 10, 64)
	if err != nil || eventID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	includeEntries := c.Query("include_entries") == "true"

	response, err := h.services.Catalog.GetSocialStats(c.Request.Context(), eventID, includeEntries)
	if err != nil {
		h.handleServiceError(c, err, "Failed to get social stats")
		return
	}

	c.JSON(http.StatusOK, response)
}

// RecordShareClick - POST /api/events/:event_id/shares
// Учесть клик по шеринг-ссылке
func (h *Handlers) RecordShareClick(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("event_id"), 10, 64)
	if err != nil || eventID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	var req models.RecordShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.services.Catalog.RecordShareClick(c.Request.Context(), eventID, &req); err != nil {
		h.handleServiceError(c, err, "Failed to record share click")
		return
	}

	c.Status(http.StatusNoContent)
}

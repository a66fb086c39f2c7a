package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cpe-tracking-backend/internal/store"
)

// GetDashboardStats handles the GET /api/dashboard-stats request.
func (h *Handler) GetDashboardStats(c *gin.Context) {
	stats, err := h.store.DashboardStats(c.Request.Context())
	if err != nil {
		if h.rejectNonSelect(c, err) {
			return
		}
		h.log(c).Error("failed to compute dashboard stats", "error", err)
		if errors.Is(err, store.ErrUnavailable) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Database connection failed"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Query execution failed"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

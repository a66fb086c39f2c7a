package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cpe-tracking-backend/internal/store"
)

// GetFilters handles the GET /api/filters request.
func (h *Handler) GetFilters(c *gin.Context) {
	options, err := h.store.FilterOptions(c.Request.Context())
	if err != nil {
		if h.rejectNonSelect(c, err) {
			return
		}
		h.log(c).Error("failed to load filter options", "error", err)
		if errors.Is(err, store.ErrUnavailable) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Database connection failed"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, options)
}

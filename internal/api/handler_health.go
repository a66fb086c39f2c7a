package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetHealth handles the GET /healthz request.
func (h *Handler) GetHealth(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.log(c).Warn("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

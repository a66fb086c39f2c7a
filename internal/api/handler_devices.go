package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cpe-tracking-backend/internal/model"
	"cpe-tracking-backend/internal/parse"
)

// GetDevices handles the GET /api/devices request.
func (h *Handler) GetDevices(c *gin.Context) {
	h.listDevices(c, false)
}

// GetDevicesPaginated handles the GET /api/devices/paginated request.
func (h *Handler) GetDevicesPaginated(c *gin.Context) {
	h.listDevices(c, true)
}

func (h *Handler) listDevices(c *gin.Context, paginated bool) {
	p, err := parse.Query(c.Request.URL.Query(), paginated, h.limits)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := h.store.ListDevices(c.Request.Context(), p)
	if err != nil {
		if h.rejectNonSelect(c, err) {
			return
		}
		h.log(c).Error("failed to list devices", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, []model.Record{})
		return
	}

	c.JSON(http.StatusOK, records)
}

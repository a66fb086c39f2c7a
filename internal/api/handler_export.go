package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cpe-tracking-backend/internal/parse"
	"cpe-tracking-backend/internal/report"
)

// ExportDevices handles the GET /api/devices/export request. It accepts the
// same filters and sort as GET /api/devices and returns the rows as CSV.
func (h *Handler) ExportDevices(c *gin.Context) {
	p, err := parse.Query(c.Request.URL.Query(), false, h.limits)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := h.store.ListDevices(c.Request.Context(), p)
	if err != nil {
		if h.rejectNonSelect(c, err) {
			return
		}
		h.log(c).Error("failed to export devices", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Export failed"})
		return
	}

	filename := fmt.Sprintf("cpe_devices_%s.csv", h.now().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	columns := report.Columns()
	if err := w.Write(columns); err != nil {
		h.log(c).Error("failed to write csv header", "error", err)
		return
	}
	row := make([]string, len(columns))
	for _, r := range records {
		for i, col := range columns {
			v, _ := r.Get(col)
			row[i] = csvValue(v)
		}
		if err := w.Write(row); err != nil {
			h.log(c).Error("failed to write csv row", "error", err)
			return
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		h.log(c).Error("failed to flush csv", "error", err)
	}
}

func csvValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

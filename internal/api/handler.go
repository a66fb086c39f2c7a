package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cpe-tracking-backend/internal/logging"
	"cpe-tracking-backend/internal/mw"
	"cpe-tracking-backend/internal/parse"
	"cpe-tracking-backend/internal/report"
	"cpe-tracking-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store  store.Store
	logger *logging.Logger
	limits parse.Limits
	now    func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, l *logging.Logger, limits parse.Limits) *Handler {
	return &Handler{
		store:  s,
		logger: l,
		limits: limits,
		now:    time.Now,
	}
}

func (h *Handler) log(c *gin.Context) *logging.Logger {
	return h.logger.With("request_id", mw.GetRequestID(c), "path", c.Request.URL.Path)
}

// rejectNonSelect answers 403 if err came from the read-only gate.
func (h *Handler) rejectNonSelect(c *gin.Context, err error) bool {
	if !errors.Is(err, report.ErrNotSelect) {
		return false
	}
	h.log(c).Error("query rejected by read-only gate", "error", err)
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Only SELECT queries are allowed"})
	return true
}

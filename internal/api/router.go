package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"cpe-tracking-backend/config"
	"cpe-tracking-backend/internal/logging"
	"cpe-tracking-backend/internal/mw"
	"cpe-tracking-backend/internal/parse"
	"cpe-tracking-backend/internal/store"
)

// limiterIdle is how long a client's rate limiter is kept after its last request.
const limiterIdle = 10 * time.Minute

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, cfg *config.Config, l *logging.Logger) *gin.Engine {
	r := gin.New()
	r.Use(
		mw.RequestID(),
		mw.RequestLogger(l),
		mw.Recovery(l),
		mw.CORS(cfg.Server.CORSAllowedOrigins),
	)

	handler := NewHandler(s, l, parse.Limits{
		DefaultPerPage: cfg.Report.DefaultPerPage,
		MaxPerPage:     cfg.Report.MaxPerPage,
	})

	rateLimiter := mw.RateLimiter(mw.NewIPRateLimiter(
		rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst, limiterIdle))

	r.GET("/healthz", handler.GetHealth)

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/devices", handler.GetDevices)
		api.GET("/devices/paginated", handler.GetDevicesPaginated)
		api.GET("/devices/export", handler.ExportDevices)
		api.GET("/filters", handler.GetFilters)
		api.GET("/dashboard-stats", handler.GetDashboardStats)
	}

	return r
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"cpe-tracking-backend/config"
	"cpe-tracking-backend/internal/api"
	"cpe-tracking-backend/internal/db"
	"cpe-tracking-backend/internal/logging"
	"cpe-tracking-backend/internal/model"
	"cpe-tracking-backend/internal/report"
	"cpe-tracking-backend/internal/store"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	bootLogger := logging.Default()

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		bootLogger.Error("failed to load configuration", "path", configPath, "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging, version)
	logger.Info("configuration loaded", "path", configPath)

	// Initialize database
	gormDB, dialect, err := db.Init(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	appStore := store.NewGormStore(gormDB, report.NewBuilder(cfg.Report.Table, dialect), store.Options{
		QueryTimeout: cfg.QueryTimeout(),
		Parallel:     cfg.Report.ParallelSubqueries,
		StatusValues: statusValues(cfg.Report.StatusValues),
	})
	logger.Info("data store initialized", "table", cfg.Report.Table, "dialect", string(dialect))

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(appStore, cfg, logger)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  cfg.IdleTimeout(),
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("HTTP server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe", "error", err)
			os.Exit(1)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Info("shutdown signal received, stopping server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server Shutdown", "error", err)
	}

	if sqlDB, err := gormDB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Warn("closing database", "error", err)
		}
	}

	logger.Info("server gracefully stopped")
}

func statusValues(sv config.StatusValues) report.StatusValues {
	return report.StatusValues{
		Allocated: model.AllocationStatus(sv.Allocated),
		Available: model.AllocationStatus(sv.Available),
		Repaired:  model.AllocationStatus(sv.Repaired),
		Repairing: model.AllocationStatus(sv.Repairing),
		Faulty:    model.AllocationStatus(sv.Faulty),
	}
}

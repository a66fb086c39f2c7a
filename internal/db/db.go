package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cpe-tracking-backend/config"
	"cpe-tracking-backend/internal/logging"
	"cpe-tracking-backend/internal/report"
)

const pingTimeout = 5 * time.Second

// Init opens the reporting database and tunes the connection pool. The view is
// owned by the billing system, so no migrations run. An unreachable database
// is logged but not fatal; requests report it until it comes back.
func Init(cfg *config.DatabaseConfig, l *logging.Logger) (*gorm.DB, report.Dialect, error) {
	dialector, dialect, err := dialectorFor(cfg)
	if err != nil {
		return nil, "", err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(l.StdLogger(slog.LevelInfo), logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  GormLogLevel(cfg.LogLevel),
			IgnoreRecordNotFoundError: true,
		}),
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		l.Warn("database not reachable at startup", "driver", cfg.Driver, "error", err)
	} else {
		l.Info("database initialized", "driver", cfg.Driver)
	}

	return db, dialect, nil
}

func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, report.Dialect, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres", "":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	return dialector, report.DialectFor(dialector.Name()), nil
}

// GormLogLevel maps a configured level name to gorm's logger levels.
// Unknown names fall back to warn.
func GormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info", "debug":
		return logger.Info
	default:
		return logger.Warn
	}
}

package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"cpe-tracking-backend/internal/report"
)

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Report   ReportConfig   `yaml:"report"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port                int      `yaml:"port"`
	RateLimitPerSec     float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst      int      `yaml:"rate_limit_burst"`
	ReadTimeoutSeconds  int      `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int      `yaml:"write_timeout_seconds"`
	IdleTimeoutSeconds  int      `yaml:"idle_timeout_seconds"`
	CORSAllowedOrigins  []string `yaml:"cors_allowed_origins"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // postgres or sqlite
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogLevel               string `yaml:"log_level"`
}

// ReportConfig controls how the reporting view is queried.
type ReportConfig struct {
	Table               string       `yaml:"table"`
	DefaultPerPage      int          `yaml:"default_per_page"`
	MaxPerPage          int          `yaml:"max_per_page"`
	QueryTimeoutSeconds int          `yaml:"query_timeout_seconds"`
	ParallelSubqueries  bool         `yaml:"parallel_subqueries"`
	StatusValues        StatusValues `yaml:"status_values"`
}

// StatusValues maps each dashboard counter to the allocation code it counts.
type StatusValues struct {
	Allocated string `yaml:"allocated"`
	Available string `yaml:"available"`
	Repaired  string `yaml:"repaired"`
	Repairing string `yaml:"repairing"`
	Faulty    string `yaml:"faulty"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*(\.[A-Za-z_][A-Za-z0-9_$]*)?$`)

// Load reads the configuration from the given path.
//
// Values are layered: defaults, then the YAML file (a missing file is not an
// error), then a .env file in the working directory, then CPE_* environment
// variables.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		log.Printf("config file %s not found; using defaults and environment", path)
	default:
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if cfg.Report.DefaultPerPage <= 0 {
		cfg.Report.DefaultPerPage = 50
	}
	if cfg.Report.MaxPerPage < cfg.Report.DefaultPerPage {
		log.Printf("report.max_per_page (%d) is below default_per_page; raising it to %d",
			cfg.Report.MaxPerPage, cfg.Report.DefaultPerPage)
		cfg.Report.MaxPerPage = cfg.Report.DefaultPerPage
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                5001,
			RateLimitPerSec:     10,
			RateLimitBurst:      20,
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 60,
			IdleTimeoutSeconds:  120,
		},
		Database: DatabaseConfig{
			Driver:                 "postgres",
			MaxOpenConns:           10,
			MaxIdleConns:           5,
			ConnMaxLifetimeMinutes: 30,
			LogLevel:               "warn",
		},
		Report: ReportConfig{
			Table:               "pin.mso_cpe_tracking_report",
			DefaultPerPage:      50,
			MaxPerPage:          500,
			QueryTimeoutSeconds: 30,
			StatusValues: StatusValues{
				Allocated: "ALLOCATED",
				Available: "GOOD",
				Repaired:  "REPAIRED",
				Repairing: "REPAIRING",
				Faulty:    "FAULTY",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies CPE_SECTION_KEY environment variables.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("CPE_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("CPE_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("CPE_REPORT_TABLE"); v != "" {
		cfg.Report.Table = v
	}
	if v := os.Getenv("CPE_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CPE_SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CPE_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (postgres, sqlite)", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, "database.dsn is required (set CPE_DATABASE_DSN)")
	}
	// The table name is interpolated into every query, so it must be a plain identifier.
	if !tableNameRe.MatchString(c.Report.Table) {
		errs = append(errs, fmt.Sprintf("report.table %q must be an identifier, optionally schema-qualified", c.Report.Table))
	} else if err := report.Guard("SELECT 1 FROM " + c.Report.Table); err != nil {
		// The table appears in every statement the gate checks.
		errs = append(errs, fmt.Sprintf("report.table %q is rejected by the read-only gate: %v", c.Report.Table, err))
	}
	sv := c.Report.StatusValues
	if sv.Allocated == "" || sv.Available == "" || sv.Repaired == "" || sv.Repairing == "" || sv.Faulty == "" {
		errs = append(errs, "report.status_values must name every counter")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// QueryTimeout returns the per-request database deadline.
func (c *Config) QueryTimeout() time.Duration {
	if c.Report.QueryTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Report.QueryTimeoutSeconds) * time.Second
}

// ReadTimeout returns the HTTP read timeout as a Duration.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the HTTP write timeout as a Duration.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.Server.WriteTimeoutSeconds) * time.Second
}

// IdleTimeout returns the HTTP idle timeout as a Duration.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Server.IdleTimeoutSeconds) * time.Second
}

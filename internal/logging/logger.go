// Package logging provides the structured logger shared by the HTTP layer,
// the store and gorm.
package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"cpe-tracking-backend/config"
)

// Logger wraps slog.Logger. It is safe for concurrent use.
type Logger struct {
	*slog.Logger
}

// New creates a Logger writing JSON (default) or text to stdout or stderr,
// tagged with the service name and version.
func New(cfg config.LoggingConfig, version string) *Logger {
	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}
	return NewWithWriter(cfg, version, output)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(cfg config.LoggingConfig, version string, output io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(output, opts)
	default:
		handler = slog.NewJSONHandler(output, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "cpetrackd"),
		slog.String("version", version),
	})

	return &Logger{Logger: slog.New(handler)}
}

// ParseLevel converts a string log level to slog.Level. Unknown values map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a new Logger with additional default attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// StdLogger adapts the logger to a *log.Logger for libraries that only
// accept Printf-style writers, such as gorm.
func (l *Logger) StdLogger(level slog.Level) *log.Logger {
	return slog.NewLogLogger(l.Handler(), level)
}

// Default creates a logger for use before configuration is loaded.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}, "dev")
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	return NewWithWriter(config.LoggingConfig{Level: "error"}, "test", io.Discard)
}

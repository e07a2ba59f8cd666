// Package logging configures the structured slog logger used by background
// components (daemon, importer, notifiers).
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Component names attached to log records.
const (
	ComponentApp      = "app"
	ComponentDaemon   = "daemon"
	ComponentImport   = "import"
	ComponentStore    = "store"
	ComponentNotify   = "notify"
	ComponentPrices   = "pricefeed"
	ComponentExport   = "export"
	FieldComponent    = "component"
	FieldError        = "error"
	FieldOperation    = "operation"
	FieldFile         = "file"
	FieldDuration     = "duration_ms"
	FieldAlertLevel   = "alert_level"
	FieldSubscription = "subscription"
)

// Config holds logger configuration.
type Config struct {
	Level slog.Level
	Out   io.Writer
}

// DefaultConfig reads the level from PARTSBIN_LOG_LEVEL and writes to stderr.
func DefaultConfig() Config {
	return Config{
		Level: ParseLevel(os.Getenv("PARTSBIN_LOG_LEVEL")),
		Out:   os.Stderr,
	}
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// New returns a text logger.
func New(cfg Config) *slog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: cfg.Level}))
}

// Setup builds a logger from cfg and installs it as the slog default.
func Setup(cfg Config) *slog.Logger {
	l := New(cfg)
	slog.SetDefault(l)
	return l
}

// For returns the default logger tagged with a component name.
func For(component string) *slog.Logger {
	return slog.Default().With(FieldComponent, component)
}

// Discard returns a logger that drops everything. Used in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Package logger configures the process-wide slog logger. Diagnostics go to
// stderr so command output on stdout stays clean.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup installs the default logger. format is "json" or "text"; level is
// one of debug, info, warn, error (unknown values mean info).
func Setup(level, format string) {
	SetupWriter(os.Stderr, level, format)
}

// SetupWriter is Setup with an explicit destination (the daemon log file).
func SetupWriter(w io.Writer, level, format string) {
	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// WithComponent returns a child of the default logger tagged with component.
func WithComponent(component string) *slog.Logger {
	return slog.Default().With("component", component)
}

// ParseLevel maps a level name to a slog.Level.
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

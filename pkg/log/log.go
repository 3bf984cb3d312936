// Package log configures the process-wide structured logger.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup installs the default logger writing text to stderr. The binaries
// call it once, before any other wiring.
func Setup(logLevel string) {
	slog.SetDefault(New(os.Stderr, logLevel, "text"))
}

// SetupJSON is Setup with JSON output, for deployments that ship logs to a
// collector.
func SetupJSON(logLevel string) {
	slog.SetDefault(New(os.Stderr, logLevel, "json"))
}

// New builds a logger for the given writer. Unknown levels and formats fall
// back to info and text.
func New(w io.Writer, logLevel, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(logLevel)}

	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

func ParseLevel(logLevel string) slog.Level {
	switch strings.ToLower(logLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}

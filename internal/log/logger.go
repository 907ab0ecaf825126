// Package log provides structured logging for the paragraph store.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the log output format.
type Format string

// Format values.
const (
	FormatPretty Format = "pretty"
	FormatJSON   Format = "json"
)

// ParseFormat parses a format string, defaulting to pretty.
func ParseFormat(s string) Format {
	if strings.EqualFold(s, string(FormatJSON)) {
		return FormatJSON
	}
	return FormatPretty
}

// ParseLevel parses a level name, defaulting to Info.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a slog.Logger writing to stdout with the given level and format.
func New(level string, format Format) *slog.Logger {
	return NewWithWriter(os.Stdout, level, format)
}

// NewWithWriter creates a slog.Logger writing to w.
func NewWithWriter(w io.Writer, level string, format Format) *slog.Logger {
	lvl := ParseLevel(level)

	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	default:
		handler = newTerminalHandler(w, lvl)
	}

	return slog.New(handler)
}

// Configure builds a logger and installs it as the process default, so
// packages that fall back to slog.Default() (e.g. GORM tracing) share the
// same sink.
func Configure(level string, format Format) *slog.Logger {
	l := New(level, format)
	slog.SetDefault(l)
	return l
}

package internal

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// LevelTrace sits below debug and is used for per-trial output
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a LOG_LEVEL value to a slog level. Unknown values yield info.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return slog.LevelError
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "DEBUG":
		return slog.LevelDebug
	case "TRACE":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a tint-backed structured logger writing to w
func NewLogger(w io.Writer, level slog.Level, noColor bool) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	}))
}

// NewDefaultLogger creates a stderr logger based on the LOG_LEVEL and NO_COLOR environment variables
func NewDefaultLogger() *slog.Logger {
	_, noColor := os.LookupEnv("NO_COLOR")
	return NewLogger(os.Stderr, ParseLevel(os.Getenv("LOG_LEVEL")), noColor)
}

// DiscardLogger drops every record; drivers fall back to it when no logger is supplied.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Err wraps an error as a log attribute
func Err(err error) slog.Attr {
	return tint.Err(err)
}

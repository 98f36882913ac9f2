// Package logging builds the slog loggers used across a scaffold run.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// RunKey is the attribute carrying the per-run identifier.
const RunKey = "run"

// ParseLevel maps a level name to its slog level.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelWarn, false
	}
}

// ParseFormat accepts "text" and "json".
func ParseFormat(s string) (string, bool) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "text", "json":
		return f, true
	default:
		return "text", false
	}
}

// New creates a logger writing to w. Unknown levels fall back to warn and
// unknown formats to text. It does not touch the global logger.
func New(level, format string, w io.Writer) *slog.Logger {
	lvl, _ := ParseLevel(level)
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	if f, _ := ParseFormat(format); f == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// NewRunID returns a fresh identifier for one invocation.
func NewRunID() string {
	return uuid.NewString()
}

// WithRun tags every record of l with the run id.
func WithRun(l *slog.Logger, id string) *slog.Logger {
	return l.With(slog.String(RunKey, id))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

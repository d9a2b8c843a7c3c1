// Package logger provides structured logging setup for the agent core.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/axiome/agentcore/internal/config"
)

// New builds a *slog.Logger from the Logging config. The handler format is
// "json" (the default, one object per line on stdout) or "text" for local
// runs. Every record carries a "service" attribute so log aggregation can
// separate this process from its neighbours.
func New(cfg config.Logging) *slog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter is New with an explicit output, used in tests.
func NewWithWriter(cfg config.Logging, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		h = slog.NewTextHandler(w, opts)
	default:
		h = slog.NewJSONHandler(w, opts)
	}

	return slog.New(h).With("service", cfg.Service)
}

// ParseLevel maps a config level string onto a slog.Level. Unknown values
// fall back to info rather than failing startup.
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

package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/axiome/agentcore/internal/config"
	"github.com/axiome/agentcore/internal/logger"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"Warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"ERROR":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := logger.ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestJSONOutputCarriesServiceAttr(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(config.Logging{Level: "info", Service: "agentcore"}, &buf)

	log.Info("hello", "k", "v")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if rec["service"] != "agentcore" {
		t.Errorf("service = %v, want agentcore", rec["service"])
	}
	if rec["k"] != "v" {
		t.Errorf("k = %v, want v", rec["k"])
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(config.Logging{Level: "warn"}, &buf)

	log.Debug("dropped")
	log.Info("dropped too")
	log.Warn("kept")

	if n := strings.Count(buf.String(), "\n"); n != 1 {
		t.Errorf("got %d records, want 1: %s", n, buf.String())
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(config.Logging{Level: "info", Format: "text", Service: "agentcore"}, &buf)

	log.Info("hello")

	out := buf.String()
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("expected text output, got %s", out)
	}
	if !strings.Contains(out, "service=agentcore") {
		t.Errorf("missing service attr: %s", out)
	}
}

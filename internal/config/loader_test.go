package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/axiome/agentcore/internal/config"
)

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("port = %s, want 8080", cfg.Server.Port)
	}
	if cfg.Reasoning.MaxRetries != 2 {
		t.Errorf("max retries = %d, want 2", cfg.Reasoning.MaxRetries)
	}
	if cfg.Limits.AbsoluteDailyBudgetUSD != 100 {
		t.Errorf("absolute budget = %f, want 100", cfg.Limits.AbsoluteDailyBudgetUSD)
	}
	if cfg.Idempotency.CacheTTL != time.Minute {
		t.Errorf("cache ttl = %s, want 1m", cfg.Idempotency.CacheTTL)
	}
}

func TestLoadFromYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentcore.yaml")
	yaml := `
server:
  port: "9090"
limits:
  absolute_daily_budget_usd: 50
reasoning:
  default_model: gpt-4o
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("port = %s, want 9090", cfg.Server.Port)
	}
	if cfg.Limits.AbsoluteDailyBudgetUSD != 50 {
		t.Errorf("absolute budget = %f, want 50", cfg.Limits.AbsoluteDailyBudgetUSD)
	}
	if cfg.Reasoning.DefaultModel != "gpt-4o" {
		t.Errorf("model = %s, want gpt-4o", cfg.Reasoning.DefaultModel)
	}
	// Untouched keys keep their defaults.
	if cfg.Postgres.MaxConns != 15 {
		t.Errorf("max conns = %d, want 15", cfg.Postgres.MaxConns)
	}
}

func TestLoadFromEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentcore.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"9090\"\n"), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	t.Setenv("AGENTCORE_PORT", "7070")
	t.Setenv("AGENTCORE_REASONING_TIMEOUT", "5s")

	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("port = %s, want env value 7070", cfg.Server.Port)
	}
	if cfg.Reasoning.AttemptTimeout != 5*time.Second {
		t.Errorf("timeout = %s, want 5s", cfg.Reasoning.AttemptTimeout)
	}
}

func TestLoadRejectsBadEncryptionKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentcore.yaml")
	if err := os.WriteFile(path, []byte("crypto:\n  encryption_key: not-hex\n"), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	if _, err := config.LoadFrom(path); err == nil {
		t.Fatal("accepted a non-hex encryption key")
	}

	if err := os.WriteFile(path, []byte("crypto:\n  encryption_key: abcd\n"), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	if _, err := config.LoadFrom(path); err == nil {
		t.Fatal("accepted a short encryption key")
	}
}

package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "agentcore.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "AGENTCORE_PORT")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "AGENTCORE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "AGENTCORE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "AGENTCORE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "AGENTCORE_PG_MAX_CONN_IDLE_TIME")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Logging.Level, "AGENTCORE_LOG_LEVEL")
	setString(&cfg.Logging.Format, "AGENTCORE_LOG_FORMAT")
	setString(&cfg.Logging.Service, "AGENTCORE_LOG_SERVICE")
	// OPENAI_API_KEY, ANTHROPIC_API_KEY and ENCRYPTION_KEY are read
	// through the secrets vault, not here.
	setString(&cfg.Reasoning.DefaultModel, "AGENTCORE_REASONING_MODEL")
	setDuration(&cfg.Reasoning.AttemptTimeout, "AGENTCORE_REASONING_TIMEOUT")
	setInt(&cfg.Reasoning.MaxRetries, "AGENTCORE_REASONING_MAX_RETRIES")
	setFloat64(&cfg.Limits.AbsoluteDailyBudgetUSD, "AGENTCORE_ABSOLUTE_DAILY_BUDGET_USD")
	setInt(&cfg.Limits.ProcessedRetentionDays, "AGENTCORE_PROCESSED_RETENTION_DAYS")
	setDuration(&cfg.Limits.CleanupInterval, "AGENTCORE_CLEANUP_INTERVAL")
	setDuration(&cfg.Idempotency.CacheTTL, "AGENTCORE_IDEMPOTENCY_TTL")
	setInt(&cfg.Breaker.MaxFailures, "AGENTCORE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "AGENTCORE_BREAKER_TIMEOUT")
	setString(&cfg.Otel.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// validate rejects configurations the service cannot start with.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres dsn is required")
	}
	if cfg.Reasoning.MaxRetries < 0 {
		return errors.New("reasoning max_retries must not be negative")
	}
	if cfg.Limits.AbsoluteDailyBudgetUSD <= 0 {
		return errors.New("absolute daily budget must be positive")
	}
	if cfg.Crypto.EncryptionKey != "" {
		key, err := hex.DecodeString(cfg.Crypto.EncryptionKey)
		if err != nil {
			return fmt.Errorf("encryption key is not valid hex: %w", err)
		}
		if len(key) != 32 {
			return fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
		}
	}
	return nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func setInt(dst *int, env string) {
	if v := os.Getenv(env); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, env string) {
	if v := os.Getenv(env); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, env string) {
	if v := os.Getenv(env); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *time.Duration, env string) {
	if v := os.Getenv(env); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

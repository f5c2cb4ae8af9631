package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "aigate.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML file is optional; a missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV.
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
	setString(&cfg.Server.Port, "AIGATE_PORT")
	setString(&cfg.Server.CORSOrigin, "AIGATE_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "AIGATE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "AIGATE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "AIGATE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "AIGATE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "AIGATE_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Provider.URL, "AIGATE_PROVIDER_URL")
	setString(&cfg.Provider.APIKey, "AIGATE_PROVIDER_API_KEY")
	setDuration(&cfg.Provider.Timeout, "AIGATE_PROVIDER_TIMEOUT")
	setString(&cfg.Logging.Level, "AIGATE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "AIGATE_LOG_SERVICE")
	setInt(&cfg.Breaker.Threshold, "AIGATE_BREAKER_THRESHOLD")
	setDuration(&cfg.Breaker.Cooldown, "AIGATE_BREAKER_COOLDOWN")
	setInt64(&cfg.Cache.L1MaxBytes, "AIGATE_CACHE_L1_MAX_BYTES")
	setDuration(&cfg.Cache.L1TTL, "AIGATE_CACHE_L1_TTL")
	setDuration(&cfg.Cache.SearchTTL, "AIGATE_CACHE_SEARCH_TTL")
	setDuration(&cfg.Cache.EmbeddingTTL, "AIGATE_CACHE_EMBEDDING_TTL")
	setDuration(&cfg.Cache.SweepInterval, "AIGATE_CACHE_SWEEP_INTERVAL")
	setDuration(&cfg.Governor.CheckTimeout, "AIGATE_GOVERNOR_TIMEOUT")
	setBool(&cfg.Auth.Enabled, "AIGATE_AUTH_ENABLED")
	setBool(&cfg.OTel.Enabled, "AIGATE_OTEL_ENABLED")
	setString(&cfg.OTel.Endpoint, "AIGATE_OTEL_ENDPOINT")
}

// validate checks invariants that would otherwise surface as confusing
// runtime failures.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port must not be empty")
	}
	if cfg.Postgres.MaxConns < cfg.Postgres.MinConns {
		return fmt.Errorf("postgres.max_conns (%d) < postgres.min_conns (%d)",
			cfg.Postgres.MaxConns, cfg.Postgres.MinConns)
	}
	if cfg.Governor.CheckTimeout <= 0 {
		return errors.New("governor.check_timeout must be positive")
	}
	if cfg.Cache.L1TTL <= 0 || cfg.Cache.SearchTTL <= 0 || cfg.Cache.EmbeddingTTL <= 0 {
		return errors.New("cache TTLs must be positive")
	}
	for i, c := range cfg.Auth.Callers {
		if c.ID == "" || c.KeyHash == "" {
			return fmt.Errorf("auth.callers[%d]: id and key_hash are required", i)
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

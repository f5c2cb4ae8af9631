package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lexorahq/aigate/internal/config"
)

func TestDefaults(t *testing.T) {
	cfg := config.Defaults()

	if cfg.Server.Port != "8080" {
		t.Errorf("default port = %s, want 8080", cfg.Server.Port)
	}
	if cfg.Governor.CheckTimeout != 10*time.Second {
		t.Errorf("default governor timeout = %v, want 10s", cfg.Governor.CheckTimeout)
	}
	if cfg.Cache.EmbeddingTTL != 14*24*time.Hour {
		t.Errorf("default embedding TTL = %v, want 14 days", cfg.Cache.EmbeddingTTL)
	}
	if cfg.Auth.Enabled {
		t.Error("auth must default to disabled for local development")
	}
}

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("port = %s, want default 8080", cfg.Server.Port)
	}
}

func TestLoadFromYAMLOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aigate.yaml")
	data := []byte(`
server:
  port: "9090"
cache:
  search_ttl: 30m
governor:
  check_timeout: 5s
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("port = %s, want 9090 from yaml", cfg.Server.Port)
	}
	if cfg.Cache.SearchTTL != 30*time.Minute {
		t.Errorf("search TTL = %v, want 30m from yaml", cfg.Cache.SearchTTL)
	}
	if cfg.Governor.CheckTimeout != 5*time.Second {
		t.Errorf("governor timeout = %v, want 5s from yaml", cfg.Governor.CheckTimeout)
	}
	// Untouched values keep their defaults.
	if cfg.Cache.L1TTL != 2*time.Minute {
		t.Errorf("l1 TTL = %v, want default 2m", cfg.Cache.L1TTL)
	}
}

func TestLoadFromEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aigate.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"9090\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("AIGATE_PORT", "7070")
	t.Setenv("DATABASE_URL", "postgres://env-host/db")
	t.Setenv("AIGATE_GOVERNOR_TIMEOUT", "3s")

	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("port = %s, env must beat yaml", cfg.Server.Port)
	}
	if cfg.Postgres.DSN != "postgres://env-host/db" {
		t.Errorf("dsn = %s, want env value", cfg.Postgres.DSN)
	}
	if cfg.Governor.CheckTimeout != 3*time.Second {
		t.Errorf("governor timeout = %v, want 3s from env", cfg.Governor.CheckTimeout)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aigate.yaml")
	if err := os.WriteFile(path, []byte("governor:\n  check_timeout: -1s\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := config.LoadFrom(path); err == nil {
		t.Fatal("a negative governor timeout must fail validation")
	}
}

func TestValidateRejectsCallerWithoutKeyHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aigate.yaml")
	data := []byte(`
auth:
  enabled: true
  callers:
    - id: caller-1
      tier: pro
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := config.LoadFrom(path); err == nil {
		t.Fatal("a caller without key_hash must fail validation")
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "skreaver.yaml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(contents)), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 0.0.0.0
  bogus_field: true
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadRejectsMultipleDocuments(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 0.0.0.0
---
server:
  host: 127.0.0.1
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for multiple YAML documents")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `server: {}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != 8080 || cfg.Server.MetricsPort != 9090 {
		t.Fatalf("unexpected server defaults: %+v", cfg.Server)
	}
	if cfg.Memory.Backend != "memory" {
		t.Fatalf("expected default memory backend, got %q", cfg.Memory.Backend)
	}
	if cfg.Mesh.DLQMaxRetries != 3 || cfg.Mesh.SupervisorMaxRetries != 3 {
		t.Fatalf("unexpected mesh defaults: %+v", cfg.Mesh)
	}
}

func TestLoadValidatesMemoryBackend(t *testing.T) {
	path := writeConfig(t, `
memory:
  backend: carrier-pigeon
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "memory.backend") {
		t.Fatalf("expected memory.backend validation error, got %v", err)
	}
}

func TestLoadValidatesMemoryDSNRequired(t *testing.T) {
	path := writeConfig(t, `
memory:
  backend: postgres
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "memory.dsn") {
		t.Fatalf("expected memory.dsn validation error, got %v", err)
	}
}

func TestLoadValidatesBackpressureThresholdOrdering(t *testing.T) {
	path := writeConfig(t, `
backpressure:
  warning_threshold: 100
  blocking_threshold: 10
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "backpressure") {
		t.Fatalf("expected backpressure ordering error, got %v", err)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := writeConfig(t, `server: {}`)
	t.Setenv("SKREAVER_HTTP_PORT", "9999")
	t.Setenv("SKREAVER_JWT_SECRET", "overridden-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != 9999 {
		t.Fatalf("expected env override for http_port, got %d", cfg.Server.HTTPPort)
	}
	if cfg.Auth.JWTSecret != "overridden-secret" {
		t.Fatalf("expected env override for jwt_secret, got %q", cfg.Auth.JWTSecret)
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("SKREAVER_TEST_HOST", "10.0.0.5")
	path := writeConfig(t, `
server:
  host: ${SKREAVER_TEST_HOST}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Host != "10.0.0.5" {
		t.Fatalf("expected expanded host, got %q", cfg.Server.Host)
	}
}

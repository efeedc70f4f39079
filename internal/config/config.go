// Package config loads and validates Skreaver's runtime configuration:
// a single Config struct assembled from YAML with environment-variable
// overrides and defaults, grounded on the teacher's
// internal/config/config.go Load/applyDefaults/applyEnvOverrides/
// validateConfig pipeline.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Skreaver configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Backpressure  BackpressureConfig  `yaml:"backpressure"`
	Memory        MemoryConfig        `yaml:"memory"`
	Mesh          MeshConfig          `yaml:"mesh"`
	Observability ObservabilityConfig `yaml:"observability"`
	Security      SecurityConfig      `yaml:"security"`
}

// ServerConfig configures the HTTP runtime's listen addresses.
type ServerConfig struct {
	Host        string `yaml:"host"`
	HTTPPort    int    `yaml:"http_port"`
	MetricsPort int    `yaml:"metrics_port"`
}

// AuthConfig configures JWT issuance/validation and API-key auth.
type AuthConfig struct {
	JWTSecret     string         `yaml:"jwt_secret"`
	TokenExpiry   time.Duration  `yaml:"token_expiry"`
	RefreshExpiry time.Duration  `yaml:"refresh_expiry"`
	APIKeys       []APIKeyConfig `yaml:"api_keys"`
}

// APIKeyConfig is a statically configured API key grant.
type APIKeyConfig struct {
	HashedKey string   `yaml:"hashed_key"`
	Principal string   `yaml:"principal"`
	Roles     []string `yaml:"roles"`
}

// RateLimitConfig configures the global/per-IP/per-user rate limit
// dimensions applied by internal/ratelimit.MultiLimiter.
type RateLimitConfig struct {
	Enabled              bool    `yaml:"enabled"`
	GlobalRPS            float64 `yaml:"global_rps"`
	GlobalBurst          int     `yaml:"global_burst"`
	PerIPRPS             float64 `yaml:"per_ip_rps"`
	PerIPBurst           int     `yaml:"per_ip_burst"`
	PerUserRPS           float64 `yaml:"per_user_rps"`
	PerUserBurst         int     `yaml:"per_user_burst"`
}

// BackpressureConfig configures admission control ahead of the
// coordinator and mesh task queues.
type BackpressureConfig struct {
	WarningThreshold  int  `yaml:"warning_threshold"`
	BlockingThreshold int  `yaml:"blocking_threshold"`
	Enabled           bool `yaml:"enabled"`
}

// MemoryConfig selects and configures the memory backend (C2).
type MemoryConfig struct {
	Backend  string        `yaml:"backend"` // "memory", "sqlite", "postgres", "redis"
	DSN      string        `yaml:"dsn"`
	TTL      time.Duration `yaml:"ttl"`
}

// MeshConfig configures the agent mesh's DLQ and backpressure (C11).
type MeshConfig struct {
	DLQMaxSize    int           `yaml:"dlq_max_size"`
	DLQTTL        time.Duration `yaml:"dlq_ttl"`
	DLQMaxRetries int           `yaml:"dlq_max_retries"`

	SupervisorMaxTasksPerWorker int           `yaml:"supervisor_max_tasks_per_worker"`
	SupervisorHeartbeatTimeout  time.Duration `yaml:"supervisor_heartbeat_timeout"`
	SupervisorMaxRetries        int           `yaml:"supervisor_max_retries"`
}

// ObservabilityConfig configures logging and tracing.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	TracingMode string `yaml:"tracing_mode"` // "stdout", "disabled"
}

// SecurityConfig points at the secpolicy document and tunes the
// emergency-lockdown tumbling window.
type SecurityConfig struct {
	PolicyPath        string `yaml:"policy_path"`
	LockdownWindowSec int    `yaml:"lockdown_window_sec"`
	LockdownThreshold int    `yaml:"lockdown_threshold"`
}

// Load reads path, expands environment variables, decodes exactly one
// YAML document, applies env overrides and defaults, and validates the
// result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	decoder := yaml.NewDecoder(strings.NewReader(expanded))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("config: %s must contain a single YAML document", path)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyAuthDefaults(&cfg.Auth)
	applyRateLimitDefaults(&cfg.RateLimit)
	applyBackpressureDefaults(&cfg.Backpressure)
	applyMemoryDefaults(&cfg.Memory)
	applyMeshDefaults(&cfg.Mesh)
	applyObservabilityDefaults(&cfg.Observability)
	applySecurityDefaults(&cfg.Security)
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = 8080
	}
	if cfg.MetricsPort == 0 {
		cfg.MetricsPort = 9090
	}
}

func applyAuthDefaults(cfg *AuthConfig) {
	if cfg.TokenExpiry == 0 {
		cfg.TokenExpiry = time.Hour
	}
	if cfg.RefreshExpiry == 0 {
		cfg.RefreshExpiry = 24 * time.Hour
	}
}

func applyRateLimitDefaults(cfg *RateLimitConfig) {
	if cfg.GlobalRPS == 0 {
		cfg.GlobalRPS = 1000
	}
	if cfg.GlobalBurst == 0 {
		cfg.GlobalBurst = 2000
	}
	if cfg.PerIPRPS == 0 {
		cfg.PerIPRPS = 50
	}
	if cfg.PerIPBurst == 0 {
		cfg.PerIPBurst = 100
	}
	if cfg.PerUserRPS == 0 {
		cfg.PerUserRPS = 20
	}
	if cfg.PerUserBurst == 0 {
		cfg.PerUserBurst = 40
	}
}

func applyBackpressureDefaults(cfg *BackpressureConfig) {
	if cfg.WarningThreshold == 0 {
		cfg.WarningThreshold = 1000
	}
	if cfg.BlockingThreshold == 0 {
		cfg.BlockingThreshold = 5000
	}
}

func applyMemoryDefaults(cfg *MemoryConfig) {
	if cfg.Backend == "" {
		cfg.Backend = "memory"
	}
}

func applyMeshDefaults(cfg *MeshConfig) {
	if cfg.DLQMaxSize == 0 {
		cfg.DLQMaxSize = 10_000
	}
	if cfg.DLQTTL == 0 {
		cfg.DLQTTL = 24 * time.Hour
	}
	if cfg.DLQMaxRetries == 0 {
		cfg.DLQMaxRetries = 3
	}
	if cfg.SupervisorMaxTasksPerWorker == 0 {
		cfg.SupervisorMaxTasksPerWorker = 10
	}
	if cfg.SupervisorHeartbeatTimeout == 0 {
		cfg.SupervisorHeartbeatTimeout = 30 * time.Second
	}
	if cfg.SupervisorMaxRetries == 0 {
		cfg.SupervisorMaxRetries = 3
	}
}

func applyObservabilityDefaults(cfg *ObservabilityConfig) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.TracingMode == "" {
		cfg.TracingMode = "disabled"
	}
}

func applySecurityDefaults(cfg *SecurityConfig) {
	if cfg.LockdownWindowSec == 0 {
		cfg.LockdownWindowSec = 60
	}
	if cfg.LockdownThreshold == 0 {
		cfg.LockdownThreshold = 5
	}
}

func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	if v := strings.TrimSpace(os.Getenv("SKREAVER_HOST")); v != "" {
		cfg.Server.Host = v
	}
	if v := strings.TrimSpace(os.Getenv("SKREAVER_HTTP_PORT")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Server.HTTPPort = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("SKREAVER_METRICS_PORT")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("SKREAVER_JWT_SECRET")); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := strings.TrimSpace(os.Getenv("SKREAVER_TOKEN_EXPIRY")); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Auth.TokenExpiry = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("SKREAVER_MEMORY_BACKEND")); v != "" {
		cfg.Memory.Backend = v
	}
	if v := strings.TrimSpace(os.Getenv("SKREAVER_MEMORY_DSN")); v != "" {
		cfg.Memory.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("SKREAVER_SECURITY_POLICY_PATH")); v != "" {
		cfg.Security.PolicyPath = v
	}
}

// ValidationError reports every problem found validating a Config at once.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return "config validation failed:\n- " + strings.Join(e.Issues, "\n- ")
}

var validBackends = map[string]bool{"memory": true, "sqlite": true, "postgres": true, "redis": true}

func validateConfig(cfg *Config) error {
	if cfg == nil {
		return nil
	}
	var issues []string

	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		issues = append(issues, "server.http_port must be between 1 and 65535")
	}
	if cfg.Server.MetricsPort <= 0 || cfg.Server.MetricsPort > 65535 {
		issues = append(issues, "server.metrics_port must be between 1 and 65535")
	}
	if !validBackends[cfg.Memory.Backend] {
		issues = append(issues, fmt.Sprintf("memory.backend %q must be one of memory, sqlite, postgres, redis", cfg.Memory.Backend))
	}
	if cfg.Memory.Backend != "memory" && strings.TrimSpace(cfg.Memory.DSN) == "" {
		issues = append(issues, "memory.dsn is required when memory.backend is not \"memory\"")
	}
	if cfg.RateLimit.GlobalRPS < 0 || cfg.RateLimit.PerIPRPS < 0 || cfg.RateLimit.PerUserRPS < 0 {
		issues = append(issues, "rate_limit RPS values must be >= 0")
	}
	if cfg.Backpressure.WarningThreshold > cfg.Backpressure.BlockingThreshold {
		issues = append(issues, "backpressure.warning_threshold must be <= backpressure.blocking_threshold")
	}
	if cfg.Mesh.DLQMaxRetries < 0 || cfg.Mesh.SupervisorMaxRetries < 0 {
		issues = append(issues, "mesh retry counts must be >= 0")
	}
	if cfg.Security.LockdownWindowSec <= 0 {
		issues = append(issues, "security.lockdown_window_sec must be > 0")
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

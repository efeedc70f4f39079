package main

import (
	"context"
	"fmt"

	"github.com/skreaver/skreaver/internal/audit"
	"github.com/skreaver/skreaver/internal/auth"
	"github.com/skreaver/skreaver/internal/config"
	"github.com/skreaver/skreaver/internal/memory"
	"github.com/skreaver/skreaver/internal/memory/backend"
	"github.com/skreaver/skreaver/internal/observability"
	"github.com/skreaver/skreaver/internal/ratelimit"
	"github.com/skreaver/skreaver/internal/rbac"
	"github.com/skreaver/skreaver/internal/secpolicy"
	"github.com/skreaver/skreaver/internal/toolregistry"
)

// openMemoryBackend selects and opens the memory.Store cfg names,
// mirroring the teacher's driver-selection switch in
// cmd/nexus/handlers_serve.go's openMigrationDB.
func openMemoryBackend(cfg config.MemoryConfig) (memory.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return backend.NewInMemory(), nil
	case "sqlite":
		return backend.NewSQLite(backend.SQLiteConfig{Path: cfg.DSN})
	case "postgres":
		return backend.NewPostgres(backend.PostgresConfig{DSN: cfg.DSN})
	case "redis":
		return backend.NewRedis(backend.RedisConfig{Addr: cfg.DSN}), nil
	default:
		return nil, fmt.Errorf("unknown memory backend %q", cfg.Backend)
	}
}

// buildAuthService wires cfg's static JWT/API-key configuration into an
// auth.Service, converting config.APIKeyConfig's role strings into
// rbac.Role values the toolregistry's Principal expects.
func buildAuthService(cfg config.AuthConfig) *auth.Service {
	keys := make([]auth.APIKeyConfig, len(cfg.APIKeys))
	for i, k := range cfg.APIKeys {
		keys[i] = auth.APIKeyConfig{HashedKey: k.HashedKey, Principal: k.Principal, Roles: k.Roles}
	}
	return auth.NewService(auth.Config{
		JWTSecret:     cfg.JWTSecret,
		TokenExpiry:   cfg.TokenExpiry,
		RefreshExpiry: cfg.RefreshExpiry,
		APIKeys:       keys,
	})
}

// buildSecurityEngine loads the security policy. No on-disk policy
// loader exists yet (internal/secpolicy only exposes Default()), so a
// configured PolicyPath beyond the default is logged as not-yet
// supported rather than silently ignored.
func buildSecurityEngine(cfg config.SecurityConfig) *secpolicy.Engine {
	return secpolicy.New(secpolicy.Default())
}

// buildAuditLogger wires audit.DefaultConfig into a Logger; callers
// that need stricter auditing can extend this with cfg-driven fields
// once SPEC_FULL.md's audit surface grows beyond the defaults.
func buildAuditLogger() (*audit.Logger, error) {
	return audit.NewLogger(audit.DefaultConfig())
}

// buildSecureWrapper assembles the C4/C5 secure tool-dispatch chain:
// registry, role manager (seeded with the teacher's reference
// policies), the security engine, a per-tool rate limiter, and the
// audit logger.
func buildSecureWrapper(registry *toolregistry.Registry, rlCfg config.RateLimitConfig) (*toolregistry.SecureWrapper, error) {
	roles := rbac.WithDefaults()
	policyEngine := buildSecurityEngine(config.SecurityConfig{})
	auditLogger, err := buildAuditLogger()
	if err != nil {
		return nil, fmt.Errorf("audit logger: %w", err)
	}

	var limiter toolregistry.RateLimiter
	if rlCfg.Enabled {
		limiter = ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerSecond: rlCfg.PerUserRPS,
			BurstSize:         rlCfg.PerUserBurst,
			Enabled:           true,
		})
	} else {
		limiter = ratelimit.NewLimiter(ratelimit.Config{Enabled: false})
	}

	return toolregistry.NewSecureWrapper(registry, roles, policyEngine, limiter, auditLogger), nil
}

// roleFromString resolves a configured role name to its rbac.Role,
// preferring the builtin roles so config files can keep writing
// "admin"/"agent"/"viewer" and get the teacher's built-in permission
// sets rather than an empty CustomRole.
func roleFromString(name string) rbac.Role {
	switch name {
	case "admin":
		return rbac.RoleAdmin
	case "agent":
		return rbac.RoleAgent
	case "viewer":
		return rbac.RoleViewer
	default:
		return rbac.CustomRole(name)
	}
}

func rolesFromStrings(names []string) []rbac.Role {
	roles := make([]rbac.Role, len(names))
	for i, n := range names {
		roles[i] = roleFromString(n)
	}
	return roles
}

// buildObservability wires cfg's log level and tracing mode into an
// observability.Logger and Tracer, returning the Tracer's shutdown
// func so callers can flush spans on exit.
func buildObservability(cfg config.ObservabilityConfig) (*observability.Logger, *observability.Metrics, *observability.Tracer, func(), error) {
	logger := observability.NewLogger(observability.LogConfig{Level: cfg.LogLevel, Format: "json"})
	metrics := observability.NewMetrics()
	tracer, shutdown := observability.NewTracer(observability.TraceConfig{
		ServiceName: "skreaverctl",
		Mode:        cfg.TracingMode,
	})
	return logger, metrics, tracer, func() { _ = shutdown(context.Background()) }, nil
}

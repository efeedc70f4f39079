package security

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/skreaver/skreaver/internal/config"
)

// auditConfigContent checks configuration content for security issues:
// hardcoded secrets, weak auth settings, and permissive defaults.
func auditConfigContent(cfg *config.Config) []AuditFinding {
	var findings []AuditFinding
	if cfg == nil {
		return findings
	}

	findings = append(findings, auditSecretsInConfig(cfg)...)
	findings = append(findings, auditAuthConfig(cfg)...)
	findings = append(findings, auditRateLimitConfig(cfg)...)

	return findings
}

// hardcodedPatterns are API-key shapes that suggest a value was pasted
// directly into the config file rather than sourced from the environment.
var hardcodedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^sk-[a-zA-Z0-9]{20,}`),      // OpenAI-style API key
	regexp.MustCompile(`^ghp_[a-zA-Z0-9]{36}`),      // GitHub personal access token
	regexp.MustCompile(`^github_pat_[a-zA-Z0-9_]+`), // GitHub fine-grained PAT
	regexp.MustCompile(`^AKIA[0-9A-Z]{16}`),         // AWS access key
	regexp.MustCompile(`^AIza[0-9A-Za-z_-]{35}`),    // Google API key
}

func looksHardcoded(value string) bool {
	for _, pattern := range hardcodedPatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

func auditSecretsInConfig(cfg *config.Config) []AuditFinding {
	var findings []AuditFinding

	if looksHardcoded(cfg.Auth.JWTSecret) {
		findings = append(findings, AuditFinding{
			CheckID:     "config.hardcoded_jwt_secret",
			Severity:    SeverityWarn,
			Title:       "JWT secret looks like a pasted API key",
			Detail:      "auth.jwt_secret matches a known API-key shape rather than a generated signing secret.",
			Remediation: "Generate a random signing secret and load it via SKREAVER_JWT_SECRET.",
		})
	}

	if containsEmbeddedPassword(cfg.Memory.DSN) {
		findings = append(findings, AuditFinding{
			CheckID:     "config.memory_dsn_password",
			Severity:    SeverityWarn,
			Title:       "Memory backend DSN may contain an embedded password",
			Detail:      "memory.dsn appears to embed a plaintext credential.",
			Remediation: "Use SKREAVER_MEMORY_DSN at deploy time instead of committing credentials to config.",
		})
	}

	for i, key := range cfg.Auth.APIKeys {
		if looksHardcoded(key.HashedKey) {
			findings = append(findings, AuditFinding{
				CheckID:     fmt.Sprintf("config.api_key_not_hashed.%d", i),
				Severity:    SeverityCritical,
				Title:       "API key entry holds a raw key, not a hash",
				Detail:      fmt.Sprintf("auth.api_keys[%d].hashed_key looks like a raw API key rather than a SHA-256 hash.", i),
				Remediation: "Store only the salted hash of an API key, never the key itself.",
			})
		}
	}

	return findings
}

func auditAuthConfig(cfg *config.Config) []AuditFinding {
	var findings []AuditFinding

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		findings = append(findings, AuditFinding{
			CheckID:     "config.jwt_secret_empty",
			Severity:    SeverityCritical,
			Title:       "JWT secret is empty",
			Detail:      "auth.jwt_secret is unset; token signing will fail or use an insecure default.",
			Remediation: "Set auth.jwt_secret or SKREAVER_JWT_SECRET before serving traffic.",
		})
	}
	if len(cfg.Auth.JWTSecret) > 0 && len(cfg.Auth.JWTSecret) < 32 {
		findings = append(findings, AuditFinding{
			CheckID:     "config.jwt_secret_weak",
			Severity:    SeverityWarn,
			Title:       "JWT secret is shorter than recommended",
			Detail:      "auth.jwt_secret is under 32 bytes; HS256 signing secrets should be at least 32 random bytes.",
			Remediation: "Generate a longer random secret, e.g. via `openssl rand -base64 32`.",
		})
	}
	return findings
}

func auditRateLimitConfig(cfg *config.Config) []AuditFinding {
	var findings []AuditFinding
	if !cfg.RateLimit.Enabled {
		findings = append(findings, AuditFinding{
			CheckID:     "config.rate_limit_disabled",
			Severity:    SeverityWarn,
			Title:       "Rate limiting is disabled",
			Detail:      "rate_limit.enabled is false; the HTTP runtime accepts requests without admission control.",
			Remediation: "Enable rate_limit in production deployments.",
		})
	}
	return findings
}

// containsEmbeddedPassword checks whether a DSN/URL contains a
// user:password@ component that isn't an environment-variable reference.
func containsEmbeddedPassword(dsn string) bool {
	if !strings.Contains(dsn, "://") {
		return false
	}
	parts := strings.SplitN(dsn, "://", 2)
	if len(parts) != 2 {
		return false
	}
	authPart := strings.SplitN(parts[1], "@", 2)
	if len(authPart) != 2 {
		return false
	}
	if !strings.Contains(authPart[0], ":") {
		return false
	}
	userPass := strings.SplitN(authPart[0], ":", 2)
	return len(userPass) == 2 && userPass[1] != "" && !strings.HasPrefix(userPass[1], "${")
}

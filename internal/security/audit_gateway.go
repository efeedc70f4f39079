package security

import (
	"fmt"

	"github.com/skreaver/skreaver/internal/config"
)

// AuditServerConfig checks the HTTP runtime's bind address and auth
// configuration for security issues.
func AuditServerConfig(cfg *config.Config) []Finding {
	var findings []Finding
	if cfg == nil {
		return findings
	}

	findings = append(findings, auditServerBind(cfg)...)
	findings = append(findings, auditServerAuth(cfg)...)
	findings = append(findings, auditLockdownConfig(cfg)...)

	return findings
}

func auditServerBind(cfg *config.Config) []Finding {
	var findings []Finding

	host := cfg.Server.Host
	if host == "" {
		host = "localhost"
	}

	if host == "0.0.0.0" || host == "::" {
		hasAuth := len(cfg.Auth.APIKeys) > 0 || cfg.Auth.JWTSecret != ""
		if !hasAuth {
			findings = append(findings, Finding{
				CheckID:     "server.bind_no_auth",
				Severity:    SeverityCritical,
				Title:       "Server binds to all interfaces without auth",
				Detail:      fmt.Sprintf("server.host=%q but no API keys or JWT secret configured.", host),
				Remediation: "Add auth.api_keys or auth.jwt_secret, or bind to localhost only.",
			})
		} else {
			findings = append(findings, Finding{
				CheckID:  "server.bind_public",
				Severity: SeverityWarn,
				Title:    "Server binds to all interfaces",
				Detail:   fmt.Sprintf("server.host=%q exposes the server beyond localhost.", host),
			})
		}
	}

	return findings
}

func auditServerAuth(cfg *config.Config) []Finding {
	var findings []Finding

	for i, key := range cfg.Auth.APIKeys {
		if len(key.HashedKey) < 24 {
			findings = append(findings, Finding{
				CheckID:     "auth.weak_api_key_hash",
				Severity:    SeverityWarn,
				Title:       fmt.Sprintf("API key #%d has a suspiciously short hash", i+1),
				Detail:      fmt.Sprintf("auth.api_keys[%d].hashed_key has only %d characters; a SHA-256 hex digest should have 64.", i, len(key.HashedKey)),
				Remediation: "Store the full SHA-256 hex digest of the key, not a truncated value.",
			})
		}
	}

	if cfg.Auth.JWTSecret != "" && len(cfg.Auth.JWTSecret) < 32 {
		findings = append(findings, Finding{
			CheckID:     "auth.weak_jwt_secret",
			Severity:    SeverityWarn,
			Title:       "JWT secret is short",
			Detail:      fmt.Sprintf("JWT secret has only %d characters; use at least 32 for security.", len(cfg.Auth.JWTSecret)),
			Remediation: "Generate a longer random JWT secret (64+ characters recommended).",
		})
	}

	return findings
}

func auditLockdownConfig(cfg *config.Config) []Finding {
	var findings []Finding

	if cfg.Security.LockdownThreshold > 100 {
		findings = append(findings, Finding{
			CheckID:     "security.lockdown_threshold_high",
			Severity:    SeverityInfo,
			Title:       "Emergency lockdown threshold is very permissive",
			Detail:      fmt.Sprintf("security.lockdown_threshold=%d allows many policy violations per window before tripping.", cfg.Security.LockdownThreshold),
			Remediation: "Lower security.lockdown_threshold so lockdown engages promptly under attack.",
		})
	}
	if cfg.Security.PolicyPath == "" {
		findings = append(findings, Finding{
			CheckID:  "security.policy_path_unset",
			Severity: SeverityWarn,
			Title:    "No secpolicy document configured",
			Detail:   "security.policy_path is empty; the engine falls back to secpolicy.Default().",
		})
	}

	return findings
}

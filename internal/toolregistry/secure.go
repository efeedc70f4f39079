package toolregistry

import (
	"context"
	"encoding/json"
	"regexp"
	"time"

	"github.com/skreaver/skreaver/internal/audit"
	"github.com/skreaver/skreaver/internal/rbac"
	"github.com/skreaver/skreaver/internal/secpolicy"
)

// builtinSecretPatterns are always applied to tool input/output, grounded
// on the teacher's ToolResultGuard secret-pattern table (formerly
// internal/agent/tool_result_guard.go), recreated here since that package
// was deleted as entangled LLM-conversation code.
var builtinSecretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[:=]\s*['"]?[\w-]{20,}['"]?`),
	regexp.MustCompile(`(?i)bearer\s+[\w-\.]+`),
	regexp.MustCompile(`(?i)(aws|amazon).*?(key|secret|token)\s*[:=]\s*['"]?[\w/+=]{20,}['"]?`),
	regexp.MustCompile(`(?i)(password|passwd|secret|token)\s*[:=]\s*['"]?[^\s'"]{8,}['"]?`),
	regexp.MustCompile(`-----BEGIN (RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`),
}

func containsSecret(s string) bool {
	for _, re := range builtinSecretPatterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// RateLimiter bounds per-tool invocation rate. Implementations live in
// internal/ratelimit; this is the narrow interface SecureWrapper needs.
type RateLimiter interface {
	Allow(key string) bool
}

// Principal is the caller identity a dispatch is evaluated against.
type Principal struct {
	ID    string
	Roles []rbac.Role
}

// SecureWrapper interposes RBAC + the security policy engine + optional
// rate limiting + secret scanning + audit trail between a coordinator and
// the inner Registry, implementing the 7-step order spec.md §4.2
// specifies.
type SecureWrapper struct {
	registry *Registry
	roles    *rbac.RoleManager
	policy   *secpolicy.Engine
	limiter  RateLimiter
	audit    *audit.Logger
}

// NewSecureWrapper composes the given components. limiter and auditLogger
// may be nil (steps 4 and 7 then become no-ops beyond the nil check).
func NewSecureWrapper(registry *Registry, roles *rbac.RoleManager, policy *secpolicy.Engine, limiter RateLimiter, auditLogger *audit.Logger) *SecureWrapper {
	return &SecureWrapper{registry: registry, roles: roles, policy: policy, limiter: limiter, audit: auditLogger}
}

// toolOperations declares what operations each known tool performs, so the
// policy engine can be consulted per declared operation (step 2). Unknown
// tools declare no operations and skip that step.
func (w *SecureWrapper) toolOperations(name string) []string {
	t, ok := w.registry.Get(name)
	if !ok {
		return nil
	}
	return t.Operations()
}

// Dispatch runs the full secure-dispatch pipeline for call, on behalf of
// principal.
func (w *SecureWrapper) Dispatch(ctx context.Context, call ToolCall, principal Principal) *ExecutionResult {
	start := time.Now()
	var result *ExecutionResult

	defer func() {
		// Step 7: audit regardless of outcome.
		if w.audit == nil {
			return
		}
		w.audit.LogToolInvocation(ctx, call.Name, "", json.RawMessage(`"`+call.Input+`"`), principal.ID)
		success := result != nil && result.Success
		output := ""
		if result != nil {
			output = result.Output
		}
		w.audit.LogToolCompletion(ctx, call.Name, "", success, output, time.Since(start), principal.ID)
	}()

	// Step 1: RBAC.
	if w.roles != nil && !w.roles.CheckToolAccess(call.Name, principal.Roles) {
		result = Fail(FailurePermission, "tool "+call.Name+" requires higher privileges")
		return result
	}

	// Step 2: policy engine, per declared operation.
	if w.policy != nil {
		for _, op := range w.toolOperations(call.Name) {
			if !w.checkOperation(op) {
				result = Fail(FailureSecurity, "operation "+op+" denied by security policy")
				return result
			}
		}

		// Step 3: emergency lockdown.
		if w.policy.IsLockedDown() && !w.policy.ToolAllowedUnderLockdown(call.Name) {
			result = Fail(FailureSecurity, "emergency lockdown active: "+call.Name+" is not allow-listed")
			return result
		}
	}

	// Step 4: per-tool rate limit.
	if w.limiter != nil && !w.limiter.Allow(call.Name) {
		result = Fail(FailureSecurity, "rate limit exceeded for tool "+call.Name)
		return result
	}

	// Step 5: scan input for secrets.
	if containsSecret(call.Input) {
		result = Fail(FailureSecurity, "input rejected: matched a secret pattern")
		return result
	}

	// Step 6: dispatch to inner registry, scan output before returning.
	res, known := w.registry.Dispatch(ctx, call)
	if !known {
		result = Fail(FailureInvalidInput, "tool not found: "+call.Name)
		return result
	}
	if res.Success && containsSecret(res.Output) {
		result = Fail(FailureSecurity, "output withheld: matched a secret pattern")
		return result
	}
	result = res
	return result
}

// checkOperation consults the policy engine for a coarse-grained category
// of operation a tool declares (e.g. "fs:read", "http:get"). Concrete
// path/URL admission (ValidatePath/ValidateURL) happens inside the tool
// itself, where the actual path or host is known; this step only denies
// categories the policy has switched off entirely (fs or http disabled).
func (w *SecureWrapper) checkOperation(op string) bool {
	switch {
	case len(op) >= 3 && op[:3] == "fs:":
		return w.policy.FSEnabled()
	case len(op) >= 5 && op[:5] == "http:":
		return w.policy.HTTPEnabled()
	default:
		return true
	}
}

package secpolicy

import (
	"net"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Engine evaluates a Policy against concrete requests (paths, URLs,
// resource requests) and tracks violations for the emergency-lockdown
// auto-trigger.
type Engine struct {
	mu     sync.Mutex
	policy *Policy
	secretRe []*regexp.Regexp

	// tumbling violation-count window; see DESIGN.md Open Question (c) —
	// a tumbling window was chosen over a sliding one for simplicity under
	// concurrent access.
	windowStart time.Time
	windowCount int

	lockdown bool
}

// New builds an Engine for policy, pre-compiling its secret patterns.
// Invalid regex patterns are skipped (never silently treated as matching
// everything, nor as fatal — they are simply inert).
func New(policy *Policy) *Engine {
	e := &Engine{policy: policy, windowStart: time.Now()}
	for _, pat := range policy.Secrets {
		if re, err := regexp.Compile(pat); err == nil {
			e.secretRe = append(e.secretRe, re)
		}
	}
	e.lockdown = policy.Emergency.Active
	return e
}

// ValidatePath admits rawPath under the FS policy, returning a PathHandle
// only on success. deny_patterns are evaluated against the pre-canonical
// input (to catch ".." before it's resolved away), and canonicalization
// must place the result under one of allow_paths.
func (e *Engine) ValidatePath(rawPath string) (PathHandle, error) {
	if e.policy.FS.Access == FSDisabled {
		e.recordViolation()
		return PathHandle{}, violation(ViolationFSDisabled, "filesystem access is disabled")
	}
	if strings.ContainsRune(rawPath, 0) {
		e.recordViolation()
		return PathHandle{}, violation(ViolationFSNullByte, "path contains a null byte")
	}
	for _, pat := range e.policy.FS.DenyPatterns {
		if strings.Contains(rawPath, pat) {
			e.recordViolation()
			return PathHandle{}, violation(ViolationFSDenyPattern, "path %q matches deny pattern %q", rawPath, pat)
		}
	}

	canonical, err := filepath.Abs(rawPath)
	if err != nil {
		e.recordViolation()
		return PathHandle{}, violation(ViolationFSDenied, "path %q could not be canonicalized: %v", rawPath, err)
	}
	canonical = filepath.Clean(canonical)

	allowed := false
	for _, base := range e.policy.FS.AllowPaths {
		baseAbs, err := filepath.Abs(base)
		if err != nil {
			continue
		}
		if canonical == baseAbs || strings.HasPrefix(canonical, baseAbs+string(filepath.Separator)) {
			allowed = true
			break
		}
	}
	if !allowed {
		e.recordViolation()
		return PathHandle{}, violation(ViolationFSDenied, "path %q is not under any allowed directory", canonical)
	}
	return PathHandle{path: canonical}, nil
}

// CheckFileSize enforces FSPolicy.MaxFileSize against a read or write of n
// bytes.
func (e *Engine) CheckFileSize(n int64) error {
	if e.policy.FS.MaxFileSize > 0 && n > e.policy.FS.MaxFileSize {
		e.recordViolation()
		return violation(ViolationFSTooLarge, "size %d exceeds max_file_size %d", n, e.policy.FS.MaxFileSize)
	}
	return nil
}

// ValidateURL admits a URL host under the HTTP policy: SSRF-denied
// ranges are rejected unconditionally, then the domain filter is applied.
func (e *Engine) ValidateURL(host string) error {
	if e.policy.HTTP.Access == HTTPDisabled {
		e.recordViolation()
		return violation(ViolationHTTPDisabled, "http access is disabled")
	}

	hostOnly := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		hostOnly = h
	}

	if ip := net.ParseIP(hostOnly); ip != nil {
		if IsPrivateOrLinkLocal(ip) {
			e.recordViolation()
			return violation(ViolationHTTPPrivateIP, "address %s is private/link-local and denied by default", hostOnly)
		}
	}

	if !e.domainAllowed(hostOnly) {
		e.recordViolation()
		return violation(ViolationHTTPDenied, "host %q is not permitted by the domain filter", hostOnly)
	}
	return nil
}

func (e *Engine) domainAllowed(host string) bool {
	host = strings.ToLower(host)
	filter := e.policy.HTTP.Filter

	for _, d := range filter.DenyList {
		if domainMatches(host, d) {
			return false
		}
	}

	switch filter.Mode {
	case DomainAllowList:
		for _, d := range filter.AllowList {
			if domainMatches(host, d) {
				return true
			}
		}
		return false
	default: // DomainAllowAll
		return true
	}
}

// domainMatches compares hostnames case-insensitively; a leading "*."
// matches one or more sub-labels.
func domainMatches(host, pattern string) bool {
	pattern = strings.ToLower(pattern)
	if strings.HasPrefix(pattern, "*.") {
		suffix := strings.TrimPrefix(pattern, "*")
		return strings.HasSuffix(host, suffix) && host != strings.TrimPrefix(suffix, ".")
	}
	return host == pattern
}

// ScanForSecrets reports whether text matches any configured secret
// pattern.
func (e *Engine) ScanForSecrets(text string) bool {
	for _, re := range e.secretRe {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// IsLockedDown reports whether emergency lockdown is currently active,
// either configured or auto-triggered.
func (e *Engine) IsLockedDown() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lockdown
}

// ToolAllowedUnderLockdown reports whether toolName may run while
// lockdown is active.
func (e *Engine) ToolAllowedUnderLockdown(toolName string) bool {
	for _, t := range e.policy.Emergency.AllowList {
		if t == toolName {
			return true
		}
	}
	return false
}

// recordViolation increments the tumbling-window violation counter and
// auto-triggers lockdown if the threshold is exceeded within the window.
func (e *Engine) recordViolation() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	if e.policy.Emergency.Window > 0 && now.Sub(e.windowStart) > e.policy.Emergency.Window {
		e.windowStart = now
		e.windowCount = 0
	}
	e.windowCount++
	if e.policy.Emergency.ViolationThreshold > 0 && e.windowCount >= e.policy.Emergency.ViolationThreshold {
		e.lockdown = true
	}
}

// TriggerLockdown manually activates lockdown (e.g. from an operator
// command), independent of the violation counter.
func (e *Engine) TriggerLockdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lockdown = true
}

// ClearLockdown deactivates lockdown and resets the violation window.
func (e *Engine) ClearLockdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lockdown = false
	e.windowCount = 0
	e.windowStart = time.Now()
}

// FSEnabled reports whether filesystem access is enabled at all.
func (e *Engine) FSEnabled() bool { return e.policy.FS.Access != FSDisabled }

// HTTPEnabled reports whether HTTP access is enabled at all.
func (e *Engine) HTTPEnabled() bool { return e.policy.HTTP.Access != HTTPDisabled }

// ResourcePolicyFor returns the effective resource policy for toolName,
// falling back to the engine's default when no per-tool override exists.
func (e *Engine) ResourcePolicyFor(toolName string) ResourcePolicy {
	if override, ok := e.policy.Tools[toolName]; ok && override != nil {
		return *override
	}
	return e.policy.Resources
}

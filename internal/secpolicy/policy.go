// Package secpolicy implements the security policy engine (C4): a
// declarative policy covering filesystem, HTTP/network, resource caps,
// per-tool overrides, emergency lockdown, and secret redaction. Grounded
// structurally on internal/tools/policy's allow/deny/profile approach,
// generalized to the broader surface spec.md describes, and on
// original_source/crates/skreaver-core/src/security/fs.rs and secret.rs
// for the path-handle and secret-wrapper contracts.
package secpolicy

import (
	"fmt"
	"net"
	"time"
)

// FSAccess selects the filesystem access mode.
type FSAccess int

const (
	FSDisabled FSAccess = iota
	FSRestricted
)

// FSPolicy governs filesystem access.
type FSPolicy struct {
	Access      FSAccess
	AllowPaths  []string
	DenyPatterns []string
	MaxFileSize int64 // bytes; 0 means unbounded
}

// HTTPAccess selects the HTTP access mode.
type HTTPAccess int

const (
	HTTPDisabled HTTPAccess = iota
	HTTPInternet
)

// DomainFilterMode selects allow-all-except-deny vs. allow-list-only.
type DomainFilterMode int

const (
	DomainAllowAll DomainFilterMode = iota
	DomainAllowList
)

// DomainFilter governs which hostnames an Internet HTTP policy admits.
type DomainFilter struct {
	Mode      DomainFilterMode
	AllowList []string
	DenyList  []string
}

// HTTPPolicy governs outbound HTTP access.
type HTTPPolicy struct {
	Access HTTPAccess
	Filter DomainFilter
}

// ResourcePolicy bounds per-tool-execution resource consumption.
type ResourcePolicy struct {
	MaxMemoryMB             int
	MaxCPUPercent           int
	MaxExecutionTime        time.Duration
	MaxOpenFiles            int
	MaxConcurrentOperations int
}

// Emergency is the lockdown configuration: when Active, every tool
// dispatch not in AllowList is denied.
type Emergency struct {
	Active           bool
	AllowList        []string
	ViolationThreshold int           // violations within WindowSecs to auto-trigger
	Window           time.Duration
}

// Policy is the full declarative security policy document.
type Policy struct {
	FS        FSPolicy
	HTTP      HTTPPolicy
	Resources ResourcePolicy
	Tools     map[string]*ResourcePolicy // per-tool override
	Secrets   []string                   // regex patterns, compiled lazily by Engine
	Emergency Emergency
}

// Default returns a safe-by-default policy: filesystem and HTTP access
// disabled, conservative resource caps, no secrets configured. Used when
// the configured policy file is missing or invalid — per spec.md's
// explicit requirement to fail closed, never escalate privileges, and log
// a warning rather than crash-loop.
func Default() *Policy {
	return &Policy{
		FS:   FSPolicy{Access: FSDisabled},
		HTTP: HTTPPolicy{Access: HTTPDisabled},
		Resources: ResourcePolicy{
			MaxMemoryMB:             512,
			MaxCPUPercent:           50,
			MaxExecutionTime:        30 * time.Second,
			MaxOpenFiles:            64,
			MaxConcurrentOperations: 8,
		},
		Tools:     map[string]*ResourcePolicy{},
		Emergency: Emergency{ViolationThreshold: 10, Window: time.Minute},
	}
}

// privateRanges lists the CIDR blocks denied by default for SSRF
// mitigation, matching spec.md §4.3 exactly.
var privateRanges = mustParseCIDRs(
	"127.0.0.0/8", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16",
	"169.254.0.0/16", "::1/128", "fc00::/7", "fe80::/10",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic(fmt.Sprintf("secpolicy: invalid built-in CIDR %q: %v", c, err))
		}
		nets = append(nets, n)
	}
	return nets
}

// IsPrivateOrLinkLocal reports whether ip falls in a denied SSRF range.
func IsPrivateOrLinkLocal(ip net.IP) bool {
	for _, n := range privateRanges {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// PathHandle is an I/O-eligible path that can only be constructed through
// Engine.ValidatePath. Its field is unexported so raw path strings cannot
// be smuggled past validation into an I/O call.
type PathHandle struct {
	path string
}

// String returns the canonicalized, validated path.
func (h PathHandle) String() string { return h.path }

// ViolationKind discriminates why a policy check failed.
type ViolationKind string

const (
	ViolationFSDisabled     ViolationKind = "fs_disabled"
	ViolationFSDenied       ViolationKind = "fs_denied"
	ViolationFSDenyPattern  ViolationKind = "fs_deny_pattern"
	ViolationFSNullByte     ViolationKind = "fs_null_byte"
	ViolationFSTooLarge     ViolationKind = "fs_too_large"
	ViolationHTTPDisabled   ViolationKind = "http_disabled"
	ViolationHTTPDenied     ViolationKind = "http_denied"
	ViolationHTTPPrivateIP  ViolationKind = "http_private_ip"
	ViolationResourceCap    ViolationKind = "resource_cap"
	ViolationLockdown       ViolationKind = "lockdown_active"
	ViolationSecretLeak     ViolationKind = "secret_leak"
)

// Violation reports a denied operation.
type Violation struct {
	Kind    ViolationKind
	Message string
}

func (v *Violation) Error() string { return v.Message }

func violation(kind ViolationKind, format string, args ...any) *Violation {
	return &Violation{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

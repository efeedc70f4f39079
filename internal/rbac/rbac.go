// Package rbac implements roles, permissions, and tool-pattern policies
// that decide whether a (role, permission-set) pair may invoke a named
// tool. Grounded on the reference implementation's
// skreaver-core/src/auth/rbac.rs, generalized from Rust enums to Go
// structs with an exported Display-equivalent String() method (the
// wire-string form audit logs depend on).
package rbac

import "strings"

// Permission is a single capability a role may hold.
type Permission string

const (
	PermissionReadMemory    Permission = "memory:read"
	PermissionWriteMemory   Permission = "memory:write"
	PermissionExecuteTool   Permission = "tool:execute"
	PermissionManageAgents  Permission = "agents:manage"
	PermissionManageAuth    Permission = "auth:manage"
	PermissionViewMetrics   Permission = "metrics:view"
	PermissionModifyConfig  Permission = "config:modify"
	PermissionAccessAdmin   Permission = "admin:access"
)

// CustomPermission builds a Permission for a caller-defined capability,
// mirroring the reference's Permission::Custom(String) variant.
func CustomPermission(name string) Permission {
	return Permission("custom:" + name)
}

// Role is a named bundle of permissions.
type Role struct {
	name string
}

var (
	RoleAdmin  = Role{name: "admin"}
	RoleAgent  = Role{name: "agent"}
	RoleViewer = Role{name: "viewer"}
)

// CustomRole constructs a named role with no built-in permission set; its
// permissions must be registered via RoleManager.SetCustomRolePermissions.
func CustomRole(name string) Role {
	return Role{name: name}
}

func (r Role) String() string { return r.name }

// builtinPermissions returns the fixed permission set for built-in roles,
// matching rbac.rs's Role::permissions() exactly.
func builtinPermissions(r Role) (map[Permission]struct{}, bool) {
	switch r.name {
	case "admin":
		return setOf(
			PermissionReadMemory, PermissionWriteMemory, PermissionExecuteTool,
			PermissionManageAgents, PermissionManageAuth, PermissionViewMetrics,
			PermissionModifyConfig, PermissionAccessAdmin,
		), true
	case "agent":
		return setOf(PermissionReadMemory, PermissionWriteMemory, PermissionExecuteTool, PermissionViewMetrics), true
	case "viewer":
		return setOf(PermissionReadMemory, PermissionViewMetrics), true
	default:
		return nil, false
	}
}

func setOf(perms ...Permission) map[Permission]struct{} {
	m := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		m[p] = struct{}{}
	}
	return m
}

// ToolPolicy gates a set of tools (matched by pattern) behind required
// roles and/or permissions, or blocks them outright.
type ToolPolicy struct {
	// Pattern is "*" (all tools), "prefix*" (prefix match), or an exact
	// tool name.
	Pattern             string
	RequiredRoles        []Role
	RequiredPermissions  []Permission
	Blocked              bool
}

// NewToolPolicy starts a ToolPolicy for the given pattern.
func NewToolPolicy(pattern string) *ToolPolicy {
	return &ToolPolicy{Pattern: pattern}
}

// RequireRole adds a role requirement; all required roles must be held.
func (p *ToolPolicy) RequireRole(r Role) *ToolPolicy {
	p.RequiredRoles = append(p.RequiredRoles, r)
	return p
}

// RequirePermission adds a permission requirement.
func (p *ToolPolicy) RequirePermission(perm Permission) *ToolPolicy {
	p.RequiredPermissions = append(p.RequiredPermissions, perm)
	return p
}

// Block marks every tool this pattern matches as unconditionally denied.
func (p *ToolPolicy) Block() *ToolPolicy {
	p.Blocked = true
	return p
}

// Matches reports whether toolName falls under this policy's pattern.
func (p *ToolPolicy) Matches(toolName string) bool {
	switch {
	case p.Pattern == "*":
		return true
	case strings.HasSuffix(p.Pattern, "*"):
		return strings.HasPrefix(toolName, strings.TrimSuffix(p.Pattern, "*"))
	default:
		return p.Pattern == toolName
	}
}

// IsAllowed reports whether a principal holding roles/perms may invoke a
// tool this policy matches: Blocked short-circuits to deny; otherwise
// every required role and every required permission must be held (AND).
func (p *ToolPolicy) IsAllowed(roles map[Role]struct{}, perms map[Permission]struct{}) bool {
	if p.Blocked {
		return false
	}
	for _, r := range p.RequiredRoles {
		if _, ok := roles[r]; !ok {
			return false
		}
	}
	for _, perm := range p.RequiredPermissions {
		if _, ok := perms[perm]; !ok {
			return false
		}
	}
	return true
}

// RoleManager holds tool policies and custom role permission sets, and
// answers access-control decisions.
type RoleManager struct {
	toolPolicies []*ToolPolicy
	customRoles  map[string]map[Permission]struct{}
}

// NewRoleManager returns an empty RoleManager with no policies.
func NewRoleManager() *RoleManager {
	return &RoleManager{customRoles: make(map[string]map[Permission]struct{})}
}

// WithDefaults returns a RoleManager seeded with the reference
// implementation's default policies: shell_* requires Admin, file_delete
// requires Admin, http_get requires the ExecuteTool permission only.
func WithDefaults() *RoleManager {
	rm := NewRoleManager()
	rm.AddPolicy(NewToolPolicy("shell_*").RequireRole(RoleAdmin))
	rm.AddPolicy(NewToolPolicy("file_delete").RequireRole(RoleAdmin))
	rm.AddPolicy(NewToolPolicy("http_get").RequirePermission(PermissionExecuteTool))
	return rm
}

// AddPolicy registers a tool policy. Policies are checked in registration
// order but all matching policies are consulted (not just the first).
func (rm *RoleManager) AddPolicy(p *ToolPolicy) *RoleManager {
	rm.toolPolicies = append(rm.toolPolicies, p)
	return rm
}

// SetCustomRolePermissions registers the permission set for a custom role.
func (rm *RoleManager) SetCustomRolePermissions(name string, perms ...Permission) {
	rm.customRoles[name] = setOf(perms...)
}

// PermissionsFor returns the full permission set for a role, resolving
// built-in roles from their fixed table and custom roles from the
// registered set.
func (rm *RoleManager) PermissionsFor(r Role) map[Permission]struct{} {
	if perms, ok := builtinPermissions(r); ok {
		return perms
	}
	if perms, ok := rm.customRoles[r.name]; ok {
		return perms
	}
	return map[Permission]struct{}{}
}

// HasPermission reports whether r's permission set includes perm.
func (rm *RoleManager) HasPermission(r Role, perm Permission) bool {
	_, ok := rm.PermissionsFor(r)[perm]
	return ok
}

// CheckToolAccess decides whether a principal holding roles may invoke
// toolName. If no registered policy matches the tool, the default is to
// require the ExecuteTool permission (derived from roles) and nothing
// else. If one or more policies match, ALL matching policies must allow
// (AND semantics) — any Blocked match denies unconditionally.
func (rm *RoleManager) CheckToolAccess(toolName string, roles []Role) bool {
	roleSet := make(map[Role]struct{}, len(roles))
	perms := make(map[Permission]struct{})
	for _, r := range roles {
		roleSet[r] = struct{}{}
		for p := range rm.PermissionsFor(r) {
			perms[p] = struct{}{}
		}
	}

	matched := false
	for _, p := range rm.toolPolicies {
		if !p.Matches(toolName) {
			continue
		}
		matched = true
		if !p.IsAllowed(roleSet, perms) {
			return false
		}
	}
	if matched {
		return true
	}
	_, ok := perms[PermissionExecuteTool]
	return ok
}

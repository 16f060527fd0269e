package abac

import "strings"

// Role is the coarse permission grouping assigned to every user.
type Role string

const (
	// RoleAdmin has unrestricted access to every governed resource.
	RoleAdmin Role = "admin"
	// RoleProjectManager owns and runs projects.
	RoleProjectManager Role = "project_manager"
	// RoleTeamMember is field staff; stored as "staff" in the users table.
	RoleTeamMember Role = "staff"
	// RoleClient is an external customer.
	RoleClient Role = "client"
)

// Roles lists every known role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleProjectManager, RoleTeamMember, RoleClient}
}

// ParseRole normalizes a stored role string. Unknown values are returned
// as-is; policy lookups on them fail closed.
func ParseRole(raw string) Role {
	return Role(strings.TrimSpace(strings.ToLower(raw)))
}

// Known reports whether the role is part of the fixed registry.
func (r Role) Known() bool {
	switch r {
	case RoleAdmin, RoleProjectManager, RoleTeamMember, RoleClient:
		return true
	}
	return false
}

// Principal is the authenticated actor as decoded from the access token.
// The authorization layer trusts these fields verbatim; verifying the
// token signature happens upstream.
type Principal struct {
	ID    string
	Email string
	Role  Role
}

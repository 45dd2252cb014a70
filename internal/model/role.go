package model

import (
	"fmt"
	"strings"
)

// Role is the closed set of account roles. Roles are stored as
// uppercase strings in the `users.role` column and carried verbatim
// in the JWT role claim.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleCompany    Role = "COMPANY"
	RoleSupervisor Role = "SUPERVISOR"
	RoleTrainee    Role = "TRAINEE"
)

// Roles lists every valid role, in display order.
var Roles = []Role{RoleAdmin, RoleCompany, RoleSupervisor, RoleTrainee}

// ParseRole normalizes a client-supplied role string and rejects
// anything outside the closed set. Matching is case-insensitive.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case RoleAdmin, RoleCompany, RoleSupervisor, RoleTrainee:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether the role is one of the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCompany, RoleSupervisor, RoleTrainee:
		return true
	}
	return false
}

// Permission names a capability that endpoints can be gated on.
// Permissions are resolved from the role through an explicit lookup
// rather than ad-hoc string comparisons in handlers.
type Permission string

const (
	PermManageUsers    Permission = "users:manage"     // administer accounts
	PermPublishProgram Permission = "programs:publish" // publish training programs
	PermReviewTrainees Permission = "trainees:review"  // supervise and give feedback
	PermEnroll         Permission = "programs:enroll"  // enroll into programs
)

// rolePermissions is the single source of truth for what each role
// may do. Every role can enumerate but only the listed extras.
var rolePermissions = map[Role][]Permission{
	RoleAdmin:      {PermManageUsers, PermPublishProgram, PermReviewTrainees},
	RoleCompany:    {PermPublishProgram},
	RoleSupervisor: {PermReviewTrainees},
	RoleTrainee:    {PermEnroll},
}

// Permissions returns the capabilities granted to a role. The
// returned slice must not be mutated by callers.
func (r Role) Permissions() []Permission {
	return rolePermissions[r]
}

// Has reports whether the role grants the given permission.
func (r Role) Has(p Permission) bool {
	for _, q := range rolePermissions[r] {
		if q == p {
			return true
		}
	}
	return false
}

package entity

import "errors"

// Role is the internal, canonical role stored in the users table.
type Role string

const (
	RoleOne Role = "Role_1"
	RoleTwo Role = "Role_2"

	// DefaultRole is the lowest-privilege role, given to federated signups.
	DefaultRole = RoleOne
)

// External spellings exchanged with clients.
const (
	ExternalRoleOne = "Role-1"
	ExternalRoleTwo = "Role-2"
)

var ErrInvalidRole = errors.New("invalid role")

// Roles lists every supported internal role.
func Roles() []Role { return []Role{RoleOne, RoleTwo} }

// RoleFromExternal maps a client-facing role label to the internal role.
// Unknown labels are rejected, never defaulted.
func RoleFromExternal(s string) (Role, error) {
	switch s {
	case ExternalRoleOne:
		return RoleOne, nil
	case ExternalRoleTwo:
		return RoleTwo, nil
	default:
		return "", ErrInvalidRole
	}
}

// External returns the client-facing label for r.
func (r Role) External() string {
	switch r {
	case RoleOne:
		return ExternalRoleOne
	case RoleTwo:
		return ExternalRoleTwo
	}
	// unreachable for stored rows: Create rejects roles that are not Valid
	return string(r)
}

// Valid reports whether r is one of the supported internal roles.
func (r Role) Valid() bool {
	return r == RoleOne || r == RoleTwo
}

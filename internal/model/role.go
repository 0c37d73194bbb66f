package model

import "fmt"

// Role is the closed set of roles a user can hold. The value is stored in
// the `users.role` column and embedded in token claims; it must never be
// treated as a free-form string. Use ParseRole at every boundary where a
// role arrives from outside the process (request bodies, token claims,
// database rows).
type Role string

const (
	RoleCustomer Role = "customer" // default role assigned on self-registration
	RoleManager  Role = "manager"  // tenant-scoped manager
	RoleAdmin    Role = "admin"    // full administrative access
)

// ParseRole validates a raw string against the role enumeration. It returns
// an error for anything outside the closed set so that an unexpected claim
// or column value is rejected instead of silently passed along.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCustomer, RoleManager, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether the role is a member of the closed set.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

func (r Role) String() string { return string(r) }

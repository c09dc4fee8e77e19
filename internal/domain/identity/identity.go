package identity

// Package identity contains domain-level types for the resolved principal
// attached to a request or connection. It is pure and free of
// framework/adapter concerns.

// Role names recognized across the platform. Tokens may carry additional
// roles; these are the ones the core makes decisions on.
const (
	RoleVisitor    = "visitor"
	RoleCommercial = "commercial"
	RoleAdmin      = "admin"
)

// RoleClass partitions identities into the two presence-room classes.
// Valid values are defined as constants below.
type RoleClass string

const (
	ClassCommercial RoleClass = "commercial"
	ClassVisitor    RoleClass = "visitor"
)

// ValidRoleClass reports whether s is one of the two allowed role classes.
func ValidRoleClass(s string) bool {
	return s == string(ClassCommercial) || s == string(ClassVisitor)
}

// Identity represents the resolved principal. Exactly one resolution
// strategy produces it per request/connection; a nil *Identity means
// "unauthenticated". It is never mutated after being attached to a context.
type Identity struct {
	ID        string
	Roles     []string
	Username  string
	Email     string
	CompanyID string
}

// HasAnyRole reports whether the identity holds at least one of the given
// roles. Matching is OR across the list, never AND.
func (i *Identity) HasAnyRole(roles ...string) bool {
	if i == nil {
		return false
	}
	for _, want := range roles {
		for _, have := range i.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// IsStaff reports whether the identity holds a staff-like role.
func (i *Identity) IsStaff() bool {
	return i.HasAnyRole(RoleCommercial, RoleAdmin)
}

// Class returns the presence-room class for the identity.
func (i *Identity) Class() RoleClass {
	if i.IsStaff() {
		return ClassCommercial
	}
	return ClassVisitor
}

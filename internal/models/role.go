package models

// Role is the profile type assigned at registration. It never changes
// afterwards; every permission predicate switches exhaustively on it.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleBusiness Role = "business"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the Role is one of the known values.
func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleBusiness:
		return true
	default:
		return false
	}
}

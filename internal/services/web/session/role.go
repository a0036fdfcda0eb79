package session

// Role is a warehouse role tag carried by an authenticated identity.
type Role string

const (
	RoleAdmin            Role = "admin"
	RoleWarehouseManager Role = "warehouse_manager"
	RoleStaff            Role = "staff"
)

var knownRoles = map[Role]struct{}{
	RoleAdmin:            {},
	RoleWarehouseManager: {},
	RoleStaff:            {},
}

// Roles returns the closed role set in a stable order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleWarehouseManager, RoleStaff}
}

// ParseRole maps raw to a known role. Matching is exact and case-sensitive:
// "Admin" and " admin" are not roles.
func ParseRole(raw string) (Role, bool) {
	role := Role(raw)
	if !role.Known() {
		return "", false
	}
	return role, true
}

// Known reports whether r belongs to the closed role set.
func (r Role) Known() bool {
	_, ok := knownRoles[r]
	return ok
}

func (r Role) String() string {
	return string(r)
}

package auth

// Permission names every mutating endpoint checks before touching state.
type Permission string

const (
	PermManageTables  Permission = "manage_tables"
	PermManageOrders  Permission = "manage_orders"
	PermManageMenu    Permission = "manage_menu"
	PermManageStaff   Permission = "manage_staff"
	PermViewDashboard Permission = "view_dashboard"
	PermPlaceOrder    Permission = "place_order"
)

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
	RoleUser    = "user"
)

// rolePermissions is enumerated explicitly per role rather than computed from
// the next role down, so the whole mapping stays auditable in one place.
var rolePermissions = map[string][]Permission{
	RoleAdmin: {
		PermManageTables,
		PermManageOrders,
		PermManageMenu,
		PermManageStaff,
		PermViewDashboard,
		PermPlaceOrder,
	},
	RoleManager: {
		PermManageTables,
		PermManageOrders,
		PermManageMenu,
		PermViewDashboard,
		PermPlaceOrder,
	},
	RoleStaff: {
		PermManageTables,
		PermManageOrders,
		PermViewDashboard,
		PermPlaceOrder,
	},
	RoleUser: {
		PermPlaceOrder,
	},
}

// PermissionsFor returns the permission set for a role. An unknown role gets
// the minimal "user" set, never more.
func PermissionsFor(role string) []Permission {
	perms, ok := rolePermissions[role]
	if !ok {
		perms = rolePermissions[RoleUser]
	}
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// HasPermission reports whether a role may perform the given action. Admin
// passes every check without consulting the set.
func HasPermission(role string, perm Permission) bool {
	if role == RoleAdmin {
		return true
	}
	for _, p := range PermissionsFor(role) {
		if p == perm {
			return true
		}
	}
	return false
}

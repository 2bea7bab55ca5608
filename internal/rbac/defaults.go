package rbac

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RolePowerAdmin Role = "POWER_ADMIN"
	RoleNormalUser Role = "NORMAL_USER"
)

const (
	PermDashboardView   Permission = "dashboard:view"
	PermUsersRead       Permission = "users:read"
	PermUsersCreate     Permission = "users:create"
	PermUsersUpdate     Permission = "users:update"
	PermUsersDelete     Permission = "users:delete"
	PermCustomersRead   Permission = "customers:read"
	PermCustomersCreate Permission = "customers:create"
	PermCustomersUpdate Permission = "customers:update"
	PermCustomersDelete Permission = "customers:delete"
	PermReportsView     Permission = "reports:view"
	PermSettingsManage  Permission = "settings:manage"
)

// DefaultRolePermissions es la tabla de referencia; config.Default la usa cuando
// el YAML no define rbac.roles.
func DefaultRolePermissions() RolePermissionMap {
	return RolePermissionMap{
		RoleSuperAdmin: {
			PermDashboardView,
			PermUsersRead, PermUsersCreate, PermUsersUpdate, PermUsersDelete,
			PermCustomersRead, PermCustomersCreate, PermCustomersUpdate, PermCustomersDelete,
			PermReportsView,
			PermSettingsManage,
		},
		RolePowerAdmin: {
			PermDashboardView,
			PermUsersRead, PermUsersCreate, PermUsersUpdate,
			PermCustomersRead, PermCustomersCreate, PermCustomersUpdate, PermCustomersDelete,
			PermReportsView,
		},
		RoleNormalUser: {
			PermDashboardView,
			PermCustomersRead,
		},
	}
}

// DefaultPrecedence: rank menor = más privilegiado.
//
//	SUPER_ADMIN 0 > POWER_ADMIN 1 > NORMAL_USER 2 > (roles desconocidos)
func DefaultPrecedence() Precedence {
	return Precedence{
		RoleSuperAdmin: 0,
		RolePowerAdmin: 1,
		RoleNormalUser: 2,
	}
}

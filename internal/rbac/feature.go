package rbac

// Feature es una entrada de navegación (sidebar, menú) gateada por permisos.
type Feature struct {
	Key         string       `json:"key" yaml:"key"`
	Title       string       `json:"title" yaml:"title"`
	Path        string       `json:"path" yaml:"path"`
	Permissions []Permission `json:"permissions,omitempty" yaml:"permissions"`
}

// FilterFeatures devuelve las features visibles para u, en el orden de entrada.
// Una feature sin permisos no tiene gate y es visible para cualquier usuario
// autenticado; con user nil no se devuelve nada.
func (r *Resolver) FilterFeatures(u *User, features []Feature) []Feature {
	out := []Feature{}
	if u == nil {
		return out
	}
	for _, f := range features {
		if len(f.Permissions) == 0 || r.CanAccessFeature(u, f.Permissions) {
			out = append(out, f)
		}
	}
	return out
}

// DefaultFeatures es la navegación de referencia del dashboard.
func DefaultFeatures() []Feature {
	return []Feature{
		{Key: "dashboard", Title: "Dashboard", Path: "/dashboard", Permissions: []Permission{PermDashboardView}},
		{Key: "customers", Title: "Customers", Path: "/customers", Permissions: []Permission{PermCustomersRead}},
		{Key: "users", Title: "Users", Path: "/users", Permissions: []Permission{PermUsersRead}},
		{Key: "reports", Title: "Reports", Path: "/reports", Permissions: []Permission{PermReportsView}},
		{Key: "settings", Title: "Settings", Path: "/settings", Permissions: []Permission{PermSettingsManage}},
		{Key: "profile", Title: "Profile", Path: "/profile"},
	}
}

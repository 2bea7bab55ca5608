package rbac

// HasPermission: false para user nil; si no, pertenencia a los permisos efectivos.
func (r *Resolver) HasPermission(u *User, p Permission) bool {
	if u == nil {
		return false
	}
	_, ok := r.permissionSet(u)[p]
	return ok
}

// HasAnyPermission: false para user nil o lista vacía.
func (r *Resolver) HasAnyPermission(u *User, perms []Permission) bool {
	if u == nil || len(perms) == 0 {
		return false
	}
	set := r.permissionSet(u)
	for _, p := range perms {
		if _, ok := set[p]; ok {
			return true
		}
	}
	return false
}

// HasAllPermissions: false para user nil; true para lista vacía (verdad vacua).
func (r *Resolver) HasAllPermissions(u *User, perms []Permission) bool {
	if u == nil {
		return false
	}
	set := r.permissionSet(u)
	for _, p := range perms {
		if _, ok := set[p]; !ok {
			return false
		}
	}
	return true
}

// HasRole compara el rol directamente (sin jerarquía).
func (r *Resolver) HasRole(u *User, role Role) bool {
	return u != nil && role != "" && u.Role == role
}

// HasAnyRole: false para user nil o lista vacía.
func (r *Resolver) HasAnyRole(u *User, roles []Role) bool {
	if u == nil || len(roles) == 0 {
		return false
	}
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

// IsRoleHigherThan reporta si a precede a b en la tabla de precedencia.
// Rank menor = más privilegiado. Los roles desconocidos quedan debajo de todos
// los conocidos; dos desconocidos no se ordenan entre sí.
func (r *Resolver) IsRoleHigherThan(a, b Role) bool {
	ra, aok := r.precedence[a]
	rb, bok := r.precedence[b]
	switch {
	case !aok:
		return false
	case !bok:
		return true
	default:
		return ra < rb
	}
}

// MissingPermissions devuelve required menos los permisos efectivos, en el orden
// de required. Con user nil devuelve required completo.
func (r *Resolver) MissingPermissions(u *User, required []Permission) []Permission {
	if u == nil {
		return append([]Permission{}, required...)
	}
	set := r.permissionSet(u)
	out := []Permission{}
	for _, p := range required {
		if _, ok := set[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}

// CanAccessFeature es el gate "any permission" que usa el filtrado de navegación.
func (r *Resolver) CanAccessFeature(u *User, featurePerms []Permission) bool {
	return r.HasAnyPermission(u, featurePerms)
}

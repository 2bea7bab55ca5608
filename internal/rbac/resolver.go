package rbac

import "sort"

// Resolver mapea roles y usuarios a permisos. Es inmutable y seguro para uso concurrente.
type Resolver struct {
	roles      RolePermissionMap
	precedence Precedence
}

// NewResolver copia las tablas recibidas; nil equivale a tabla vacía.
func NewResolver(roles RolePermissionMap, precedence Precedence) *Resolver {
	r := &Resolver{
		roles:      make(RolePermissionMap, len(roles)),
		precedence: make(Precedence, len(precedence)),
	}
	for role, perms := range roles {
		r.roles[role] = append([]Permission(nil), perms...)
	}
	for role, rank := range precedence {
		r.precedence[role] = rank
	}
	return r
}

// NewDefaultResolver usa las tablas de referencia.
func NewDefaultResolver() *Resolver {
	return NewResolver(DefaultRolePermissions(), DefaultPrecedence())
}

// PermissionsForRole devuelve los permisos del rol; rol desconocido => [] (nunca nil, nunca error).
func (r *Resolver) PermissionsForRole(role Role) []Permission {
	perms, ok := r.roles[role]
	if !ok {
		return []Permission{}
	}
	return append([]Permission{}, perms...)
}

// EffectivePermissions = dedupe(permisos del rol ∪ user.Permissions).
// Se recalcula en cada llamada. Salida ordenada solo por estabilidad.
func (r *Resolver) EffectivePermissions(u *User) []Permission {
	if u == nil {
		return []Permission{}
	}
	rolePerms := r.roles[u.Role]
	seen := make(map[Permission]struct{}, len(rolePerms)+len(u.Permissions))
	out := make([]Permission, 0, len(rolePerms)+len(u.Permissions))
	add := func(ps []Permission) {
		for _, p := range ps {
			if p == "" {
				continue
			}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	add(rolePerms)
	add(u.Permissions)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Resolver) permissionSet(u *User) map[Permission]struct{} {
	eff := r.EffectivePermissions(u)
	set := make(map[Permission]struct{}, len(eff))
	for _, p := range eff {
		set[p] = struct{}{}
	}
	return set
}

// Rank devuelve el rank del rol y si es conocido.
func (r *Resolver) Rank(role Role) (int, bool) {
	rank, ok := r.precedence[role]
	return rank, ok
}

// Roles lista los roles conocidos, del más al menos privilegiado.
func (r *Resolver) Roles() []Role {
	out := make([]Role, 0, len(r.roles))
	for role := range r.roles {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, iok := r.precedence[out[i]]
		rj, jok := r.precedence[out[j]]
		if iok != jok {
			return iok
		}
		if ri != rj {
			return ri < rj
		}
		return out[i] < out[j]
	})
	return out
}

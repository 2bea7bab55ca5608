// Package rbac resuelve permisos efectivos y expone los predicados de autorización
// que consumen los guards y la navegación.
//
// Todo en este paquete es puro: las tablas se copian al construir el Resolver y
// ningún método muta estado ni cachea resultados entre snapshots de usuario.
package rbac

import (
	"sort"
	"strings"
)

// Role es un tag opaco (SUPER_ADMIN, POWER_ADMIN, NORMAL_USER, ...).
type Role string

// Permission es un tag opaco con forma resource:action (users:read).
type Permission string

// Resource devuelve la parte "resource" de resource:action.
func (p Permission) Resource() string {
	s := string(p)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i]
	}
	return s
}

// Action devuelve la parte "action" de resource:action ("" si no hay ':').
func (p Permission) Action() string {
	s := string(p)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[i+1:]
	}
	return ""
}

// NormalizeRole normaliza un rol recibido de fuentes externas (claims, JSON).
func NormalizeRole(s string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(s)))
}

// RolePermissionMap es la tabla estática Role -> permisos.
type RolePermissionMap map[Role][]Permission

// Precedence es la tabla explícita de precedencia de roles.
// Rank 0 es el más privilegiado; un rank menor significa "más alto".
type Precedence map[Role]int

// User es el perfil autenticado. Permissions son permisos ADICIONALES al rol,
// nunca un reemplazo de los del rol.
type User struct {
	ID          string         `json:"id"`
	Username    string         `json:"username,omitempty"`
	Email       string         `json:"email,omitempty"`
	Name        string         `json:"name,omitempty"`
	Role        Role           `json:"role"`
	Permissions []Permission   `json:"permissions,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// Clone devuelve una copia profunda (los slices/maps no se comparten).
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Permissions != nil {
		c.Permissions = append([]Permission(nil), u.Permissions...)
	}
	if u.Extra != nil {
		c.Extra = make(map[string]any, len(u.Extra))
		for k, v := range u.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}

// Strings convierte permisos a []string (logs, JSON de salida).
func Strings(perms []Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}

// ParsePermissions convierte y deduplica permisos crudos, descartando vacíos.
func ParsePermissions(raw []string) []Permission {
	if len(raw) == 0 {
		return nil
	}
	seen := make(map[Permission]struct{}, len(raw))
	out := make([]Permission, 0, len(raw))
	for _, r := range raw {
		p := Permission(strings.TrimSpace(r))
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

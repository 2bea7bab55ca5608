// Package guard implementa los guards de ruta y de UI sobre la sesión y el
// resolver RBAC: AuthGuard, GuestGuard, PermissionGuard y RoleGuard, más sus
// adaptadores como middleware HTTP.
package guard

import (
	"context"

	"github.com/dropDatabas3/hellojohn-admin/internal/nav"
	"github.com/dropDatabas3/hellojohn-admin/internal/rbac"
)

// Session es la vista de solo lectura que necesitan los guards (ver session.Manager).
type Session interface {
	CurrentUser() *rbac.User
	IsAuthenticated() bool
	Routes() nav.Routes
	Navigator(ctx context.Context) nav.Navigator
}

// Scope es lo que un guard encuentra en el contexto.
type Scope struct {
	Session  Session
	Resolver *rbac.Resolver
}

type ctxKey struct{}

// WithSession publica la sesión y el resolver para los guards de ctx.
func WithSession(ctx context.Context, s Session, r *rbac.Resolver) context.Context {
	if r == nil {
		r = rbac.NewDefaultResolver()
	}
	return context.WithValue(ctx, ctxKey{}, Scope{Session: s, Resolver: r})
}

// FromContext devuelve el Scope. Hace panic si no hay sesión: usar un guard
// o un predicado fuera de su proveedor es un error de programación.
func FromContext(ctx context.Context) Scope {
	sc, ok := ctx.Value(ctxKey{}).(Scope)
	if !ok || sc.Session == nil {
		panic("guard: no session in context; wrap the handler with guard.WithSession")
	}
	return sc
}

// Can reporta si el usuario actual tiene p.
func Can(ctx context.Context, p rbac.Permission) bool {
	sc := FromContext(ctx)
	return sc.Resolver.HasPermission(sc.Session.CurrentUser(), p)
}

// CanAny reporta si el usuario actual tiene alguno de perms.
func CanAny(ctx context.Context, perms ...rbac.Permission) bool {
	sc := FromContext(ctx)
	return sc.Resolver.HasAnyPermission(sc.Session.CurrentUser(), perms)
}

// CanAll reporta si el usuario actual tiene todos perms (vacío = true).
func CanAll(ctx context.Context, perms ...rbac.Permission) bool {
	sc := FromContext(ctx)
	return sc.Resolver.HasAllPermissions(sc.Session.CurrentUser(), perms)
}

// HasAnyRole reporta si el rol del usuario actual está en roles.
func HasAnyRole(ctx context.Context, roles ...rbac.Role) bool {
	sc := FromContext(ctx)
	return sc.Resolver.HasAnyRole(sc.Session.CurrentUser(), roles)
}

package guard

import (
	"context"
	"sync/atomic"

	"github.com/dropDatabas3/hellojohn-admin/internal/nav"
	"github.com/dropDatabas3/hellojohn-admin/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-admin/internal/rbac"
)

// Fragment es un pedazo de UI ya renderizado (HTML o texto de terminal).
type Fragment string

// AuthGuard muestra Children solo a usuarios autenticados. A un anónimo lo
// manda al login una sola vez (flag de redirección) llevando la ruta actual
// como returnUrl, salvo que sea la raíz o una página de auth.
type AuthGuard struct {
	Children Fragment
	Loading  Fragment

	redirecting atomic.Bool
}

// Render decide y, si corresponde, navega.
func (g *AuthGuard) Render(ctx context.Context) Fragment {
	sc := FromContext(ctx)
	if sc.Session.IsAuthenticated() {
		g.redirecting.Store(false)
		return g.Children
	}
	if g.redirecting.CompareAndSwap(false, true) {
		n := sc.Session.Navigator(ctx)
		routes := sc.Session.Routes()
		if n != nil {
			ret := routes.ReturnURLFor(currentURL(n))
			logger.From(ctx).Debug("auth guard redirect", logger.Component("guard"), logger.ReturnURL(ret))
			n.Navigate(routes.Login, nav.Options{Search: routes.LoginSearch(ret), Replace: true})
		}
	}
	return g.Loading
}

// Redirecting reporta si el guard ya disparó su navegación.
func (g *AuthGuard) Redirecting() bool { return g.redirecting.Load() }

// GuestGuard muestra Children solo a anónimos (pantallas de login). A un
// usuario autenticado lo manda una vez al returnUrl seguro o al landing.
type GuestGuard struct {
	Children Fragment
	Loading  Fragment

	redirecting atomic.Bool
}

func (g *GuestGuard) Render(ctx context.Context) Fragment {
	sc := FromContext(ctx)
	if !sc.Session.IsAuthenticated() {
		g.redirecting.Store(false)
		return g.Children
	}
	if g.redirecting.CompareAndSwap(false, true) {
		if n := sc.Session.Navigator(ctx); n != nil {
			dest := sc.Session.Routes().Destination(nav.ReturnURLFromSearch(n.CurrentSearch()))
			path, search := nav.SplitURL(dest)
			n.Navigate(path, nav.Options{Search: search, Replace: true})
		}
	}
	return g.Loading
}

// Redirecting reporta si el guard ya disparó su navegación.
func (g *GuestGuard) Redirecting() bool { return g.redirecting.Load() }

// PermissionGuard muestra Children si el usuario tiene alguno (o todos, con
// RequireAll) de Permissions; si no, Fallback. No navega.
type PermissionGuard struct {
	Permissions []rbac.Permission
	RequireAll  bool
	Children    Fragment
	Fallback    Fragment
}

func (g PermissionGuard) Allowed(ctx context.Context) bool {
	if g.RequireAll {
		return CanAll(ctx, g.Permissions...)
	}
	return CanAny(ctx, g.Permissions...)
}

func (g PermissionGuard) Render(ctx context.Context) Fragment {
	if g.Allowed(ctx) {
		return g.Children
	}
	return g.Fallback
}

// RoleGuard muestra Children si el rol del usuario está en Roles o, con
// AtLeast, si su rol tiene igual o más precedencia que AtLeast.
type RoleGuard struct {
	Roles    []rbac.Role
	AtLeast  rbac.Role
	Children Fragment
	Fallback Fragment
}

func (g RoleGuard) Allowed(ctx context.Context) bool {
	sc := FromContext(ctx)
	u := sc.Session.CurrentUser()
	if u == nil {
		return false
	}
	if sc.Resolver.HasAnyRole(u, g.Roles) {
		return true
	}
	if g.AtLeast == "" {
		return false
	}
	return u.Role == g.AtLeast || sc.Resolver.IsRoleHigherThan(u.Role, g.AtLeast)
}

func (g RoleGuard) Render(ctx context.Context) Fragment {
	if g.Allowed(ctx) {
		return g.Children
	}
	return g.Fallback
}

func currentURL(n nav.Navigator) string {
	p := n.CurrentPath()
	if s := n.CurrentSearch(); s != "" {
		return p + "?" + s
	}
	return p
}

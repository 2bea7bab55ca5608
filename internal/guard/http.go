package guard

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/hellojohn-admin/internal/http/errors"
	"github.com/dropDatabas3/hellojohn-admin/internal/nav"
	"github.com/dropDatabas3/hellojohn-admin/internal/rbac"
)

// RequireAuth es AuthGuard como middleware: un anónimo recibe 303 al login
// (o 401 JSON con location si el request es de API).
func RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if FromContext(r.Context()).Session.IsAuthenticated() {
				next.ServeHTTP(w, r)
				return
			}
			rn := nav.NewResponseNavigator(r)
			g := &AuthGuard{}
			g.Render(nav.WithNavigator(r.Context(), rn))
			respond(w, r, rn, errors.ErrUnauthorized)
		})
	}
}

// RequireGuest es GuestGuard como middleware: un usuario autenticado recibe
// 303 a su destino (o 409 JSON con location).
func RequireGuest() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !FromContext(r.Context()).Session.IsAuthenticated() {
				next.ServeHTTP(w, r)
				return
			}
			rn := nav.NewResponseNavigator(r)
			g := &GuestGuard{}
			g.Render(nav.WithNavigator(r.Context(), rn))
			respond(w, r, rn, errors.ErrAlreadyAuthenticated)
		})
	}
}

// RequirePermission deja pasar si el usuario tiene alguno de perms.
func RequirePermission(perms ...rbac.Permission) func(http.Handler) http.Handler {
	return requirePerms(perms, false)
}

// RequireAllPermissions deja pasar si el usuario tiene todos perms.
func RequireAllPermissions(perms ...rbac.Permission) func(http.Handler) http.Handler {
	return requirePerms(perms, true)
}

func requirePerms(perms []rbac.Permission, all bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sc := FromContext(r.Context())
			u := sc.Session.CurrentUser()
			if u == nil {
				errors.WriteError(w, errors.ErrUnauthorized)
				return
			}
			if (PermissionGuard{Permissions: perms, RequireAll: all}).Allowed(r.Context()) {
				next.ServeHTTP(w, r)
				return
			}
			missing := sc.Resolver.MissingPermissions(u, perms)
			errors.WriteError(w, errors.ErrInsufficientPermissions.WithDetail("missing: "+strings.Join(rbac.Strings(missing), ",")))
		})
	}
}

// RequireAnyRole deja pasar si el rol del usuario está en roles.
func RequireAnyRole(roles ...rbac.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !FromContext(r.Context()).Session.IsAuthenticated() {
				errors.WriteError(w, errors.ErrUnauthorized)
				return
			}
			if (RoleGuard{Roles: roles}).Allowed(r.Context()) {
				next.ServeHTTP(w, r)
				return
			}
			errors.WriteError(w, errors.ErrInsufficientRole)
		})
	}
}

// respond materializa la navegación registrada por un guard.
func respond(w http.ResponseWriter, r *http.Request, rn *nav.ResponseNavigator, apiErr *errors.AppError) {
	target, ok := rn.Target()
	if WantsJSON(r) || !ok {
		if ok {
			apiErr = apiErr.WithLocation(target.URL())
		}
		errors.WriteError(w, apiErr)
		return
	}
	rn.Flush(w, r)
}

// WantsJSON reporta si el request es de API (y no de navegación de página).
func WantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

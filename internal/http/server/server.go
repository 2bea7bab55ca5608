// Package server es el backend-for-frontend de la consola: una sesión por
// navegador (cookie sid), guards del lado servidor y proxy autorizado a la API.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/hellojohn-admin/internal/authclient"
	"github.com/dropDatabas3/hellojohn-admin/internal/guard"
	"github.com/dropDatabas3/hellojohn-admin/internal/http/errors"
	mw "github.com/dropDatabas3/hellojohn-admin/internal/http/middlewares"
	"github.com/dropDatabas3/hellojohn-admin/internal/nav"
	"github.com/dropDatabas3/hellojohn-admin/internal/rbac"
	"github.com/dropDatabas3/hellojohn-admin/internal/session"
)

// Deps son las dependencias del router. Los campos opcionales tienen default.
type Deps struct {
	Registry *session.Registry
	// API es el pipeline base; cada request usa API.ForSession(manager).
	API      *authclient.Client
	Resolver *rbac.Resolver
	Features []rbac.Feature
	Routes   nav.Routes
	Cookie   CookieConfig
	// MetricsPath vacío = sin /metrics.
	MetricsPath string
	// MaxProxyBody limita el body de /api/proxy/* (default 1 MiB).
	MaxProxyBody int64
}

// CookieConfig define las cookies de sesión y CSRF.
type CookieConfig struct {
	Name     string
	CSRFName string
	Secure   bool
	SameSite http.SameSite
}

type server struct {
	Deps
}

// New arma el router chi.
func New(d Deps) http.Handler {
	if d.Resolver == nil {
		d.Resolver = rbac.NewDefaultResolver()
	}
	if d.Features == nil {
		d.Features = rbac.DefaultFeatures()
	}
	d.Routes = d.Routes.Normalize()
	if d.Cookie.Name == "" {
		d.Cookie.Name = "sid"
	}
	if d.Cookie.CSRFName == "" {
		d.Cookie.CSRFName = "csrf_token"
	}
	if d.MaxProxyBody <= 0 {
		d.MaxProxyBody = 1 << 20
	}
	if d.Cookie.SameSite == 0 {
		d.Cookie.SameSite = http.SameSiteLaxMode
	}
	s := &server{Deps: d}

	r := chi.NewRouter()
	r.Use(mw.WithRequestID(), s.withSession, mw.WithLogging(), mw.WithRecover())
	r.NotFound(func(w http.ResponseWriter, r *http.Request) { errors.WriteError(w, errors.ErrRouteNotFound) })
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) { errors.WriteError(w, errors.ErrMethodNotAllowed) })

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.MetricsPath != "" {
		r.Handle(d.MetricsPath, promhttp.Handler())
	}
	r.Get(d.Routes.Root, s.handleRoot)

	r.Group(func(r chi.Router) {
		r.Use(mw.WithCSRF(mw.CSRFConfig{CookieName: d.Cookie.CSRFName}))

		r.With(guard.RequireGuest()).Get(d.Routes.Login, s.handleLoginPage)
		r.Post(d.Routes.Login, s.handleLogin)
		r.Post(d.Routes.AuthPrefix+"/logout", s.handleLogout)

		r.Route("/api", func(r chi.Router) {
			r.Use(guard.RequireAuth())
			r.Get("/me", s.handleMe)
			r.Get("/features", s.handleFeatures)
			r.Get("/can", s.handleCan)
			r.Handle("/proxy/*", http.HandlerFunc(s.handleProxy))
		})

		for _, f := range d.Features {
			page := f
			h := http.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { s.renderPage(w, r, page) }))
			if len(page.Permissions) > 0 {
				h = guard.RequirePermission(page.Permissions...)(h)
			}
			r.With(guard.RequireAuth()).Method(http.MethodGet, page.Path, h)
		}
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

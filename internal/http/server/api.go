package server

import (
	stderrors "errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/hellojohn-admin/internal/authclient"
	"github.com/dropDatabas3/hellojohn-admin/internal/guard"
	"github.com/dropDatabas3/hellojohn-admin/internal/http/errors"
	"github.com/dropDatabas3/hellojohn-admin/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-admin/internal/rbac"
)

type meResponse struct {
	User        *rbac.User        `json:"user"`
	Permissions []rbac.Permission `json:"permissions"`
	Features    []rbac.Feature    `json:"features"`
}

func (s *server) handleMe(w http.ResponseWriter, r *http.Request) {
	sc := guard.FromContext(r.Context())
	u := sc.Session.CurrentUser()
	writeJSON(w, http.StatusOK, meResponse{
		User:        u,
		Permissions: sc.Resolver.EffectivePermissions(u),
		Features:    sc.Resolver.FilterFeatures(u, s.Features),
	})
}

func (s *server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	sc := guard.FromContext(r.Context())
	writeJSON(w, http.StatusOK, sc.Resolver.FilterFeatures(sc.Session.CurrentUser(), s.Features))
}

// handleCan evalúa ?perm=a&perm=b (mode=all|any) y ?role=X.
func (s *server) handleCan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	perms := rbac.ParsePermissions(splitValues(q["perm"]))
	roles := make([]rbac.Role, 0, len(q["role"]))
	for _, v := range splitValues(q["role"]) {
		roles = append(roles, rbac.NormalizeRole(v))
	}
	if len(perms) == 0 && len(roles) == 0 {
		errors.WriteError(w, errors.ErrMissingFields.WithDetail("perm or role is required"))
		return
	}

	allowed := true
	if len(perms) > 0 {
		if q.Get("mode") == "all" {
			allowed = guard.CanAll(ctx, perms...)
		} else {
			allowed = guard.CanAny(ctx, perms...)
		}
	}
	if len(roles) > 0 {
		allowed = allowed && guard.HasAnyRole(ctx, roles...)
	}
	sc := guard.FromContext(ctx)
	writeJSON(w, http.StatusOK, map[string]any{
		"allowed": allowed,
		"missing": sc.Resolver.MissingPermissions(sc.Session.CurrentUser(), perms),
	})
}

func splitValues(vs []string) []string {
	var out []string
	for _, v := range vs {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// hop-by-hop y headers que maneja el pipeline.
var skipHeaders = map[string]bool{
	"Authorization":     true,
	"Cookie":            true,
	"Connection":        true,
	"Keep-Alive":        true,
	"Transfer-Encoding": true,
	"Upgrade":           true,
	"Te":                true,
	"Trailer":           true,
	"X-Csrf-Token":      true,
	"Content-Length":    true,
	"Set-Cookie":        true,
}

// handleProxy reenvía /api/proxy/<path> a la API admin con el pipeline
// autorizado de la sesión (bearer, refresh, retry).
func (s *server) handleProxy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sc := scope(ctx)
	target := "/" + strings.TrimLeft(chi.URLParam(r, "*"), "/")
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	if r.ContentLength > s.MaxProxyBody {
		errors.WriteError(w, errors.ErrPayloadTooLarge)
		return
	}
	var body io.Reader = http.NoBody
	if r.Body != nil && r.Body != http.NoBody {
		body = http.MaxBytesReader(w, r.Body, s.MaxProxyBody)
	}
	api := s.API.ForSession(sc.manager)
	req, err := api.NewRequest(ctx, r.Method, target, body)
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	for k, vs := range r.Header {
		if skipHeaders[http.CanonicalHeaderKey(k)] {
			continue
		}
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.ContentLength > 0 {
		req.ContentLength = r.ContentLength
	}

	res, err := api.Do(ctx, req)
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	defer res.Body.Close()
	for k, vs := range res.Header {
		if skipHeaders[http.CanonicalHeaderKey(k)] {
			continue
		}
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(res.StatusCode)
	if _, err := io.Copy(w, res.Body); err != nil {
		logger.From(ctx).Debug("proxy copy interrupted", logger.Component("bff"), logger.Err(err))
	}
}

// writePipelineError traduce un authclient.Error a la respuesta del BFF.
func (s *server) writePipelineError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *errors.AppError
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		errors.WriteError(w, errors.ErrPayloadTooLarge.WithCause(err))
		return
	}
	switch authclient.KindOf(err) {
	case authclient.KindSessionExpired:
		apiErr = errors.ErrSessionExpired
		if target, ok := scope(r.Context()).nav.Target(); ok {
			apiErr = apiErr.WithLocation(target.URL())
		} else {
			apiErr = apiErr.WithLocation(s.Routes.Login)
		}
	case authclient.KindUnauthorized:
		apiErr = errors.ErrUnauthorized
	case authclient.KindForbidden:
		apiErr = errors.ErrForbidden
	case authclient.KindNotFound:
		apiErr = errors.ErrNotFound
	case authclient.KindServer:
		apiErr = errors.ErrBadGateway
	case authclient.KindNetwork:
		apiErr = errors.ErrServiceUnavailable
	case authclient.KindClient:
		status := http.StatusBadRequest
		var pe *authclient.Error
		if stderrors.As(err, &pe) && pe.Status > 0 {
			status = pe.Status
		}
		apiErr = errors.New(status, "UPSTREAM_REJECTED", "request rejected by upstream")
		if pe != nil && pe.Body != "" {
			apiErr = apiErr.WithDetail(pe.Body)
		}
	case authclient.KindSetup:
		apiErr = errors.ErrBadRequest
	default:
		apiErr = errors.ErrInternalServerError
	}
	errors.WriteError(w, apiErr.WithCause(err))
}

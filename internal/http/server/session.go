package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/dropDatabas3/hellojohn-admin/internal/guard"
	"github.com/dropDatabas3/hellojohn-admin/internal/http/errors"
	mw "github.com/dropDatabas3/hellojohn-admin/internal/http/middlewares"
	"github.com/dropDatabas3/hellojohn-admin/internal/nav"
	"github.com/dropDatabas3/hellojohn-admin/internal/session"
)

type ctxKey struct{}

type requestScope struct {
	manager *session.Manager
	nav     *nav.ResponseNavigator
}

// withSession resuelve (o emite) la cookie sid, carga el Manager del
// registry y publica sesión, navigator y resolver en el contexto.
func (s *server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := ""
		if ck, err := r.Cookie(s.Cookie.Name); err == nil {
			if _, perr := uuid.Parse(ck.Value); perr == nil {
				sid = ck.Value
			}
		}
		if sid == "" {
			sid = session.NewSID()
			http.SetCookie(w, s.cookie(s.Cookie.Name, sid, true))
		}
		if ck, err := r.Cookie(s.Cookie.CSRFName); err != nil || ck.Value == "" {
			http.SetCookie(w, s.cookie(s.Cookie.CSRFName, uuid.NewString(), false))
		}

		m, err := s.Registry.Get(r.Context(), sid)
		if err != nil {
			errors.WriteError(w, errors.ErrInternalServerError.WithCause(err))
			return
		}
		rn := nav.NewResponseNavigator(r)
		ctx := mw.WithSessionID(r.Context(), sid)
		ctx = nav.WithNavigator(ctx, rn)
		ctx = guard.WithSession(ctx, m, s.Resolver)
		ctx = context.WithValue(ctx, ctxKey{}, requestScope{manager: m, nav: rn})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *server) cookie(name, value string, httpOnly bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: httpOnly,
		Secure:   s.Cookie.Secure,
		SameSite: s.Cookie.SameSite,
	}
}

// scope devuelve el Manager y el navigator del request. Hace panic fuera de withSession.
func scope(ctx context.Context) requestScope {
	sc, ok := ctx.Value(ctxKey{}).(requestScope)
	if !ok {
		panic("server: request without session scope")
	}
	return sc
}

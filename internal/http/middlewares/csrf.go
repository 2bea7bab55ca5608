package middlewares

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/dropDatabas3/hellojohn-admin/internal/http/errors"
)

// CSRFConfig configura el double-submit.
type CSRFConfig struct {
	HeaderName string // default "X-CSRF-Token"
	CookieName string // default "csrf_token"
}

// WithCSRF exige, en métodos inseguros, que el header y la cookie CSRF
// coincidan. El BFF autentica por cookie, así que aplica a todo POST/PUT/PATCH/DELETE.
func WithCSRF(cfg CSRFConfig) Middleware {
	headerName := strings.TrimSpace(cfg.HeaderName)
	if headerName == "" {
		headerName = "X-CSRF-Token"
	}
	cookieName := strings.TrimSpace(cfg.CookieName)
	if cookieName == "" {
		cookieName = "csrf_token"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isUnsafe(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			hdr := strings.TrimSpace(r.Header.Get(headerName))
			if hdr == "" {
				hdr = strings.TrimSpace(r.FormValue("csrf_token"))
			}
			ck, _ := r.Cookie(cookieName)
			if hdr == "" || ck == nil || strings.TrimSpace(ck.Value) == "" ||
				subtle.ConstantTimeCompare([]byte(hdr), []byte(ck.Value)) != 1 {
				errors.WriteError(w, errors.New(http.StatusForbidden, "INVALID_CSRF_TOKEN", "CSRF token missing or mismatch"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isUnsafe(m string) bool {
	switch strings.ToUpper(m) {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

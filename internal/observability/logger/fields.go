package logger

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// HTTP
// =================================================================================

// Field es un alias para no obligar a importar zap en cada caller.
type Field = zap.Field

func RequestID(v string) zap.Field { return zap.String("request_id", v) }

func Method(v string) zap.Field { return zap.String("method", v) }

func Path(v string) zap.Field { return zap.String("path", v) }

func Status(v int) zap.Field { return zap.Int("status", v) }

func Bytes(v int) zap.Field { return zap.Int("bytes", v) }

func DurationMs(v time.Duration) zap.Field { return zap.Int64("duration_ms", v.Milliseconds()) }

// =================================================================================
// SESIÓN / RBAC
// =================================================================================

// SessionID loguea solo un prefijo del sid (el sid completo es una credencial de cookie).
func SessionID(v string) zap.Field {
	if len(v) > 8 {
		v = v[:8]
	}
	return zap.String("sid", v)
}

func UserID(v string) zap.Field { return zap.String("user_id", v) }

// Username enmascara el usuario/email: "john@acme.io" -> "j…@a….io".
func Username(v string) zap.Field { return zap.String("username", mask(v)) }

func Role(v string) zap.Field { return zap.String("role", v) }

func Permissions(v []string) zap.Field { return zap.Strings("permissions", v) }

func ReturnURL(v string) zap.Field { return zap.String("return_url", v) }

func Destination(v string) zap.Field { return zap.String("destination", v) }

// Attempt es el contador explícito de intentos del pipeline autorizado.
func Attempt(v int) zap.Field { return zap.Int("attempt", v) }

func Kind(v string) zap.Field { return zap.String("kind", v) }

// TokenHint expone los últimos 4 caracteres de un token para correlación.
func TokenHint(v string) zap.Field {
	if len(v) <= 4 {
		return zap.String("token_hint", "****")
	}
	return zap.String("token_hint", "…"+v[len(v)-4:])
}

// =================================================================================
// SISTEMA
// =================================================================================

func Component(v string) zap.Field { return zap.String("component", v) }

func Op(v string) zap.Field { return zap.String("op", v) }

func Backend(v string) zap.Field { return zap.String("backend", v) }

func Err(err error) zap.Field { return zap.Error(err) }

func Any(key string, v any) zap.Field { return zap.Any(key, v) }

func String(key, v string) zap.Field { return zap.String(key, v) }

func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }

func mask(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	i := strings.IndexByte(s, '@')
	if i <= 0 {
		if len(s) <= 3 {
			if s == "" {
				return ""
			}
			return "***"
		}
		return s[:1] + "…" + s[len(s)-1:]
	}
	user, dom := s[:i], s[i+1:]
	if len(user) > 1 {
		user = user[:1] + "…"
	}
	parts := strings.Split(dom, ".")
	if len(parts[0]) > 1 {
		parts[0] = parts[0][:1] + "…"
	}
	return user + "@" + strings.Join(parts, ".")
}

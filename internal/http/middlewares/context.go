package middlewares

import "context"

type ctxKey string

const (
	ctxRequestIDKey ctxKey = "request_id"
	ctxSessionIDKey ctxKey = "session_id"
)

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// WithSessionID inyecta el sid del BFF en el contexto.
func WithSessionID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, ctxSessionIDKey, sid)
}

// GetRequestID devuelve el request ID o "".
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return v
	}
	return ""
}

// GetSessionID devuelve el sid o "".
func GetSessionID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxSessionIDKey).(string); ok {
		return v
	}
	return ""
}

// MustGetSessionID devuelve el sid o hace panic. Solo para rutas montadas
// detrás del middleware de sesión.
func MustGetSessionID(ctx context.Context) string {
	sid := GetSessionID(ctx)
	if sid == "" {
		panic("middlewares: session id not in context; session middleware not applied")
	}
	return sid
}

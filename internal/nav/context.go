package nav

import "context"

type ctxKey struct{}

// WithNavigator asocia n al contexto (un ResponseNavigator por request HTTP).
func WithNavigator(ctx context.Context, n Navigator) context.Context {
	return context.WithValue(ctx, ctxKey{}, n)
}

// FromContext devuelve el Navigator del contexto o fallback.
func FromContext(ctx context.Context, fallback Navigator) Navigator {
	if ctx != nil {
		if n, ok := ctx.Value(ctxKey{}).(Navigator); ok && n != nil {
			return n
		}
	}
	return fallback
}

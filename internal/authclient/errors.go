package authclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind clasifica las fallas del pipeline.
type Kind string

const (
	KindForbidden      Kind = "forbidden"
	KindNotFound       Kind = "not_found"
	KindServer         Kind = "server"
	KindClient         Kind = "client"
	KindNetwork        Kind = "network"
	KindSetup          Kind = "setup"
	KindDecode         Kind = "decode"
	KindUnauthorized   Kind = "unauthorized"
	KindSessionExpired Kind = "session_expired"
)

// ErrSessionExpired: el refresh falló y la sesión fue destruida.
var ErrSessionExpired = errors.New("authclient: session expired")

// errSessionCleared: el 401 llegó cuando la sesión ya había sido destruida.
var errSessionCleared = errors.New("session already cleared")

// Error es una falla clasificada. Nunca se reintenta.
type Error struct {
	Kind   Kind
	Status int    // 0 si no hubo respuesta
	Method string
	URL    string
	Body   string // primeros bytes del cuerpo de error
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("authclient: %s", e.Kind)
	if e.Method != "" {
		msg += fmt.Sprintf(" %s %s", e.Method, e.URL)
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(": status %d", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf devuelve el Kind de err o "" si no es un *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reporta si err es un *Error del kind dado.
func IsKind(err error, k Kind) bool { return KindOf(err) == k }

// kindForStatus clasifica una respuesta no exitosa distinta de 401.
func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500:
		return KindServer
	default:
		return KindClient
	}
}

package authapi

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials: el upstream rechazó usuario/contraseña.
	ErrInvalidCredentials = errors.New("authapi: invalid credentials")
	// ErrMalformedResponse: 2xx sin los campos requeridos o JSON inválido.
	ErrMalformedResponse = errors.New("authapi: malformed response")
)

// StatusError es una respuesta no-2xx del upstream. Code/Message salen del
// cuerpo de error estándar {code, message, detail} si está presente.
type StatusError struct {
	Op      string
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("authapi %s: status %d [%s] %s", e.Op, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("authapi %s: status %d", e.Op, e.Status)
}

func newStatusError(op string, status int, body []byte) *StatusError {
	se := &StatusError{Op: op, Status: status}
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Error   string `json:"error"`
		Desc    string `json:"error_description"`
	}
	if json.Unmarshal(body, &payload) == nil {
		se.Code = firstNonEmpty(payload.Code, payload.Error)
		se.Message = firstNonEmpty(payload.Message, payload.Desc)
	}
	return se
}

// Package credstore persiste el access token, el refresh token y el perfil de
// usuario cacheado sobre un backend clave/valor.
//
// El Store nunca devuelve errores ni hace panic: cualquier falla del backend
// (I/O, redis caído, sellado, JSON) se loguea en debug y se expone como
// "ausente" ("" / false) o como no-op.
package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/hellojohn-admin/internal/observability/logger"
	"go.uber.org/zap"
)

// Slots persistidos. Clear los borra juntos.
const (
	SlotAccessToken  = "access_token"
	SlotRefreshToken = "refresh_token"
	SlotUser         = "user"
)

// ErrNotFound lo pueden devolver los backends; el Store lo trata como ausencia.
var ErrNotFound = errors.New("credstore: key not found")

// Backend es el almacenamiento crudo. A diferencia del Store, sí devuelve errores.
type Backend interface {
	Name() string
	// Get devuelve (valor, true, nil) o ("", false, nil) si la key no existe.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete borra todas las keys en una sola operación cuando el backend lo permite.
	Delete(ctx context.Context, keys ...string) error
}

// Store implementa el contrato sin errores sobre un Backend.
type Store struct {
	backend   Backend
	namespace string
	sealer    *Sealer
	timeout   time.Duration
	log       *zap.Logger
}

// Option configura un Store.
type Option func(*Store)

// WithNamespace antepone ns a cada slot ("ns:access_token"). Lo usa el BFF (un ns por sid).
func WithNamespace(ns string) Option {
	return func(s *Store) { s.namespace = ns }
}

// WithSealer cifra los valores en reposo.
func WithSealer(sealer *Sealer) Option {
	return func(s *Store) { s.sealer = sealer }
}

// WithTimeout limita cada operación contra el backend (default 3s).
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New crea un Store. Un backend nil produce un Store que siempre está vacío.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{backend: backend, timeout: 3 * time.Second}
	for _, opt := range opts {
		opt(s)
	}
	name := "none"
	if backend != nil {
		name = backend.Name()
	}
	s.log = logger.L().With(logger.Component("credstore"), logger.Backend(name))
	return s
}

// Namespace devuelve el namespace configurado.
func (s *Store) Namespace() string { return s.namespace }

// WithNamespace devuelve un Store hermano sobre el mismo backend con otro namespace.
func (s *Store) WithNamespace(ns string) *Store {
	c := *s
	c.namespace = ns
	return &c
}

func (s *Store) key(slot string) string {
	if s.namespace == "" {
		return slot
	}
	return s.namespace + ":" + slot
}

// AccessToken devuelve el access token o "" si no hay.
func (s *Store) AccessToken() string { return s.get(SlotAccessToken) }

// SetAccessToken guarda el token; "" borra el slot.
func (s *Store) SetAccessToken(token string) { s.set(SlotAccessToken, token) }

// RefreshToken devuelve el refresh token o "" si no hay.
func (s *Store) RefreshToken() string { return s.get(SlotRefreshToken) }

// SetRefreshToken guarda el refresh token; "" borra el slot.
func (s *Store) SetRefreshToken(token string) { s.set(SlotRefreshToken, token) }

// User decodifica el perfil guardado en dst. false si no hay perfil o el JSON está roto.
func (s *Store) User(dst any) bool {
	raw := s.get(SlotUser)
	if raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.log.Debug("malformed user slot treated as absent", logger.Err(err))
		return false
	}
	return true
}

// LoadUser es la variante genérica de User.
func LoadUser[T any](s *Store) (*T, bool) {
	var v T
	if !s.User(&v) {
		return nil, false
	}
	return &v, true
}

// SetUser serializa v como JSON. nil borra el slot.
func (s *Store) SetUser(v any) {
	if isNil(v) {
		s.set(SlotUser, "")
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Debug("user marshal failed; slot untouched", logger.Err(err))
		return
	}
	s.set(SlotUser, string(b))
}

// Clear borra los tres slots en una sola llamada al backend.
func (s *Store) Clear() {
	if s.backend == nil {
		return
	}
	s.do("Clear", func(ctx context.Context) error {
		return s.backend.Delete(ctx, s.key(SlotAccessToken), s.key(SlotRefreshToken), s.key(SlotUser))
	})
}

func (s *Store) get(slot string) string {
	if s.backend == nil {
		return ""
	}
	var out string
	s.do("Get", func(ctx context.Context) error {
		v, ok, err := s.backend.Get(ctx, s.key(slot))
		if errors.Is(err, ErrNotFound) || (err == nil && !ok) {
			return nil
		}
		if err != nil {
			return err
		}
		if s.sealer != nil {
			if v, err = s.sealer.Open(v); err != nil {
				return fmt.Errorf("open %s: %w", slot, err)
			}
		}
		out = v
		return nil
	})
	return out
}

func (s *Store) set(slot, value string) {
	if s.backend == nil {
		return
	}
	s.do("Set", func(ctx context.Context) error {
		if value == "" {
			return s.backend.Delete(ctx, s.key(slot))
		}
		if s.sealer != nil {
			sealed, err := s.sealer.Seal(value)
			if err != nil {
				return fmt.Errorf("seal %s: %w", slot, err)
			}
			value = sealed
		}
		return s.backend.Set(ctx, s.key(slot), value)
	})
}

// do ejecuta fn con timeout y absorbe errores y panics del backend.
func (s *Store) do(op string, fn func(ctx context.Context) error) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Debug("credential backend panic swallowed", logger.Op(op), logger.Any("panic", rec))
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		s.log.Debug("credential backend error swallowed", logger.Op(op), logger.Err(err))
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	b, err := json.Marshal(v)
	return err == nil && string(b) == "null"
}

package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/hellojohn-admin/internal/credstore"
	"github.com/dropDatabas3/hellojohn-admin/internal/metrics"
)

// ErrNoSession: sid vacío.
var ErrNoSession = errors.New("session: empty session id")

// NewSID genera un id de sesión para la cookie del BFF.
func NewSID() string { return uuid.NewString() }

// Registry mantiene un Manager por sid; cada uno usa su propio namespace
// del credstore ("sess:<sid>"). Los Managers se crean a demanda y solo una
// vez por sid aunque lleguen requests concurrentes.
type Registry struct {
	base *credstore.Store
	auth AuthService
	opts []Option
	idle time.Duration
	now  func() time.Time

	mu       sync.RWMutex
	sessions map[string]*registryEntry
	sf       singleflight.Group
}

type registryEntry struct {
	m        *Manager
	lastSeen time.Time
}

// NewRegistry crea el registry. idle <= 0 desactiva la expiración en memoria
// (los datos persistidos en el store no se tocan al expirar).
func NewRegistry(base *credstore.Store, auth AuthService, idle time.Duration, opts ...Option) *Registry {
	return &Registry{
		base:     base,
		auth:     auth,
		opts:     opts,
		idle:     idle,
		now:      time.Now,
		sessions: make(map[string]*registryEntry),
	}
}

// Get devuelve (o crea) el Manager del sid.
func (r *Registry) Get(ctx context.Context, sid string) (*Manager, error) {
	sid = strings.TrimSpace(sid)
	if sid == "" {
		return nil, ErrNoSession
	}
	if m, ok := r.lookup(sid); ok {
		return m, nil
	}

	v, err, _ := r.sf.Do(sid, func() (interface{}, error) {
		if m, ok := r.lookup(sid); ok {
			return m, nil
		}
		m := NewManager(r.base.WithNamespace(Namespace(sid)), r.auth, nil, r.opts...)
		r.mu.Lock()
		r.sessions[sid] = &registryEntry{m: m, lastSeen: r.now()}
		metrics.ActiveSessions.Set(float64(len(r.sessions)))
		r.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Manager), nil
}

func (r *Registry) lookup(sid string) (*Manager, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.m, true
}

// Forget suelta el Manager de memoria; el estado persistido queda.
func (r *Registry) Forget(sid string) {
	r.mu.Lock()
	delete(r.sessions, sid)
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()
}

// Sweep suelta los Managers sin uso desde hace más de idle. Devuelve cuántos.
func (r *Registry) Sweep() int {
	if r.idle <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for sid, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(r.sessions, sid)
			n++
		}
	}
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	return n
}

// Run ejecuta Sweep periódicamente hasta que ctx se cancele.
func (r *Registry) Run(ctx context.Context, every time.Duration) {
	if every <= 0 || r.idle <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep()
		}
	}
}

// Len devuelve la cantidad de Managers en memoria.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Namespace devuelve el namespace del credstore para sid.
func Namespace(sid string) string { return "sess:" + sid }

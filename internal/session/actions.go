package session

import (
	"context"
	"sync"

	"github.com/dropDatabas3/hellojohn-admin/internal/rbac"
)

// Actions expone login/logout como acciones con estado observable de carga
// y último error, para formularios de UI y la CLI.
type Actions struct {
	m *Manager

	mu      sync.RWMutex
	loading int
	err     error
}

// NewActions liga las acciones a m.
func NewActions(m *Manager) *Actions { return &Actions{m: m} }

// IsLoading reporta si hay alguna acción en curso.
func (a *Actions) IsLoading() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loading > 0
}

// Err devuelve el error de la última acción (nil si terminó bien).
func (a *Actions) Err() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.err
}

func (a *Actions) begin() {
	a.mu.Lock()
	a.loading++
	a.err = nil
	a.mu.Unlock()
}

func (a *Actions) end(err error) {
	a.mu.Lock()
	a.loading--
	a.err = err
	a.mu.Unlock()
}

// LoginUser ejecuta Manager.Login.
func (a *Actions) LoginUser(ctx context.Context, creds Credentials) (*rbac.User, error) {
	a.begin()
	u, err := a.m.Login(ctx, creds)
	a.end(err)
	return u, err
}

// LogoutUser ejecuta Manager.Logout; nunca falla.
func (a *Actions) LogoutUser(ctx context.Context) {
	a.begin()
	a.m.Logout(ctx)
	a.end(nil)
}

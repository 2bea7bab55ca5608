// Package session es el dueño del estado de sesión: un único Manager por
// sesión publica el usuario actual a sus suscriptores y es el único que
// escribe en el credstore junto con el pipeline autorizado.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/dropDatabas3/hellojohn-admin/internal/authapi"
	"github.com/dropDatabas3/hellojohn-admin/internal/credstore"
	"github.com/dropDatabas3/hellojohn-admin/internal/metrics"
	"github.com/dropDatabas3/hellojohn-admin/internal/nav"
	"github.com/dropDatabas3/hellojohn-admin/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-admin/internal/rbac"
)

var (
	// ErrLoginFailed envuelve cualquier falla de login; la sesión queda intacta.
	ErrLoginFailed = errors.New("session: login failed")
	// ErrInvalidGrant: el servicio respondió sin access token o sin usuario.
	ErrInvalidGrant = errors.New("session: incomplete grant")
)

// AuthService es el colaborador de autenticación (ver authapi.Client).
type AuthService interface {
	Login(ctx context.Context, username, password string) (*authapi.Grant, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Notifier muestra avisos al usuario (toast en UI, stderr en CLI).
type Notifier interface {
	Error(ctx context.Context, message string, err error)
}

// NotifierFunc adapta una función a Notifier.
type NotifierFunc func(ctx context.Context, message string, err error)

func (f NotifierFunc) Error(ctx context.Context, message string, err error) { f(ctx, message, err) }

type logNotifier struct{}

func (logNotifier) Error(ctx context.Context, message string, err error) {
	logger.From(ctx).Info(message, logger.Component("session"), logger.Err(err))
}

// Credentials de login. ReturnURL explícito tiene prioridad sobre el
// returnUrl del query actual del Navigator.
type Credentials struct {
	Username  string
	Password  string
	ReturnURL string
}

// State es el valor observable de la sesión.
type State struct {
	User *rbac.User
}

// Authenticated reporta si hay usuario.
func (s State) Authenticated() bool { return s.User != nil }

// Option configura un Manager.
type Option func(*Manager)

// WithRoutes cambia las rutas de login/landing/área de auth.
func WithRoutes(r nav.Routes) Option { return func(m *Manager) { m.routes = r.Normalize() } }

// WithNotifier cambia el canal de avisos al usuario.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) {
		if n != nil {
			m.notifier = n
		}
	}
}

// WithLogger usa l como logger base.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// Manager es la celda de estado de una sesión.
type Manager struct {
	store    *credstore.Store
	auth     AuthService
	nav      nav.Navigator
	routes   nav.Routes
	notifier Notifier
	log      *zap.Logger

	mu     sync.RWMutex
	user   *rbac.User
	subs   map[int]func(State)
	nextID int
}

// NewManager crea el Manager e hidrata el usuario desde el store
// (una sesión previa persistida sigue autenticada para la UI).
func NewManager(store *credstore.Store, auth AuthService, navigator nav.Navigator, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		auth:     auth,
		nav:      navigator,
		routes:   nav.DefaultRoutes().Normalize(),
		notifier: logNotifier{},
		log:      logger.L(),
		subs:     map[int]func(State){},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With(logger.Component("session"))
	if u, ok := credstore.LoadUser[rbac.User](store); ok {
		m.user = u
	}
	return m
}

// Store expone el credstore de esta sesión (lo usa el pipeline autorizado).
func (m *Manager) Store() *credstore.Store { return m.store }

// Routes devuelve las rutas efectivas.
func (m *Manager) Routes() nav.Routes { return m.routes }

// Navigator devuelve el colaborador de navegación efectivo para ctx.
func (m *Manager) Navigator(ctx context.Context) nav.Navigator { return m.navigator(ctx) }

// CurrentUser devuelve una copia del usuario o nil.
func (m *Manager) CurrentUser() *rbac.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user.Clone()
}

// IsAuthenticated reporta si hay usuario en el estado.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil
}

// State devuelve un snapshot del estado.
func (m *Manager) State() State { return State{User: m.CurrentUser()} }

// Subscribe registra fn; se invoca en orden de registro, fuera del lock,
// en cada cambio de estado. Devuelve la función para desuscribirse.
func (m *Manager) Subscribe(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

// SetUser muta el estado observable y lo persiste. nil desautentica la UI
// sin tocar los tokens.
func (m *Manager) SetUser(u *rbac.User) {
	u = normalizeUser(u)
	m.store.SetUser(u)
	m.setState(u)
}

func (m *Manager) setState(u *rbac.User) {
	m.mu.Lock()
	m.user = u.Clone()
	ids := make([]int, 0, len(m.subs))
	for id := range m.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(State), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, m.subs[id])
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(State{User: u.Clone()})
	}
}

// Login autentica, persiste tokens y perfil, publica y navega al destino.
// Ante cualquier falla no escribe nada, avisa por el Notifier y devuelve
// un error que matchea ErrLoginFailed.
func (m *Manager) Login(ctx context.Context, creds Credentials) (*rbac.User, error) {
	log := logger.From(ctx).With(logger.Component("session"), logger.Op("Login"), logger.Username(creds.Username))

	grant, err := m.auth.Login(ctx, creds.Username, creds.Password)
	if err == nil {
		err = validateGrant(grant)
	}
	if err != nil {
		result := "rejected"
		if errors.Is(err, ErrInvalidGrant) || errors.Is(err, authapi.ErrMalformedResponse) {
			result = "invalid_grant"
		}
		metrics.LoginsTotal.WithLabelValues(result).Inc()
		log.Info("login failed", logger.Kind(result), logger.Err(err))
		m.notifier.Error(ctx, loginMessage(err), err)
		return nil, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	u := normalizeUser(grant.User)
	m.store.SetAccessToken(grant.AccessToken)
	m.store.SetRefreshToken(grant.RefreshToken)
	m.store.SetUser(u)
	m.setState(u)
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	navigator := m.navigator(ctx)
	candidate := creds.ReturnURL
	if candidate == "" && navigator != nil {
		candidate = nav.ReturnURLFromSearch(navigator.CurrentSearch())
	}
	dest := m.routes.Destination(candidate)
	log.Info("login ok", logger.UserID(u.ID), logger.Role(string(u.Role)), logger.Permissions(rbac.Strings(u.Permissions)), logger.ReturnURL(candidate), logger.Destination(dest))
	if navigator != nil {
		path, search := nav.SplitURL(dest)
		navigator.Navigate(path, nav.Options{Search: search, Replace: true})
	}
	return u.Clone(), nil
}

// Logout invalida el refresh token en el servicio (best-effort, errores solo
// se loguean) y luego limpia la sesión local y navega al login.
func (m *Manager) Logout(ctx context.Context) {
	refresh := m.store.RefreshToken()
	if err := m.auth.Logout(ctx, refresh); err != nil {
		logger.From(ctx).Warn("logout invalidation failed; clearing local session anyway",
			logger.Component("session"), logger.Op("Logout"), logger.Err(err))
	}
	m.clear(ctx, "full")
}

// QuickLogout hace la misma limpieza local que Logout sin llamar al servicio.
func (m *Manager) QuickLogout(ctx context.Context) { m.clear(ctx, "quick") }

// Teardown destruye la sesión por una causa externa (refresh fallido).
func (m *Manager) Teardown(ctx context.Context, reason string) {
	logger.From(ctx).Warn("session torn down", logger.Component("session"), logger.Op("Teardown"), logger.String("reason", reason))
	m.clear(ctx, "teardown")
}

func (m *Manager) clear(ctx context.Context, mode string) {
	m.store.Clear()
	m.setState(nil)
	metrics.LogoutsTotal.WithLabelValues(mode).Inc()
	logger.From(ctx).Debug("session cleared", logger.Component("session"), logger.String("mode", mode))
	if navigator := m.navigator(ctx); navigator != nil {
		navigator.Navigate(m.routes.AfterLogout, nav.Options{Replace: true})
	}
}

// navigator prefiere el Navigator del contexto (request HTTP) al propio.
func (m *Manager) navigator(ctx context.Context) nav.Navigator {
	return nav.FromContext(ctx, m.nav)
}

func validateGrant(g *authapi.Grant) error {
	switch {
	case g == nil:
		return fmt.Errorf("%w: empty response", ErrInvalidGrant)
	case g.AccessToken == "":
		return fmt.Errorf("%w: missing access token", ErrInvalidGrant)
	case g.User == nil:
		return fmt.Errorf("%w: missing user", ErrInvalidGrant)
	}
	return nil
}

// normalizeUser devuelve una copia con rol canónico y permisos deduplicados.
func normalizeUser(u *rbac.User) *rbac.User {
	if u == nil {
		return nil
	}
	c := u.Clone()
	c.Role = rbac.NormalizeRole(string(c.Role))
	c.Permissions = rbac.ParsePermissions(rbac.Strings(c.Permissions))
	if c.Username == "" {
		c.Username = c.Email
	}
	return c
}

func loginMessage(err error) string {
	if errors.Is(err, authapi.ErrInvalidCredentials) {
		return "Usuario o contraseña incorrectos."
	}
	return "No se pudo iniciar sesión. Intente nuevamente."
}

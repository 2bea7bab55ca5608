package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellojohn-admin/internal/authapi"
	"github.com/dropDatabas3/hellojohn-admin/internal/credstore"
	"github.com/dropDatabas3/hellojohn-admin/internal/credstore/memory"
	"github.com/dropDatabas3/hellojohn-admin/internal/nav"
	"github.com/dropDatabas3/hellojohn-admin/internal/rbac"
)

type fakeAuth struct {
	mu          sync.Mutex
	grant       *authapi.Grant
	loginErr    error
	logoutErr   error
	logoutCalls []string
}

func (f *fakeAuth) Login(_ context.Context, username, password string) (*authapi.Grant, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.grant, nil
}

func (f *fakeAuth) Logout(_ context.Context, refreshToken string) error {
	f.mu.Lock()
	f.logoutCalls = append(f.logoutCalls, refreshToken)
	f.mu.Unlock()
	return f.logoutErr
}

type recordingNotifier struct{ msgs []string }

func (r *recordingNotifier) Error(_ context.Context, msg string, _ error) { r.msgs = append(r.msgs, msg) }

func johnGrant() *authapi.Grant {
	return &authapi.Grant{
		AccessToken:  "fake-token",
		RefreshToken: "fake-refresh",
		User:         &rbac.User{ID: "1", Username: "john", Role: "super_admin", Permissions: []rbac.Permission{"reports:view", "reports:view"}},
	}
}

func newManager(t *testing.T, auth AuthService, start string) (*Manager, *credstore.Store, *nav.History, *recordingNotifier) {
	t.Helper()
	store := credstore.New(memory.New(0))
	h := nav.NewHistory(start)
	n := &recordingNotifier{}
	return NewManager(store, auth, h, WithNotifier(n)), store, h, n
}

func TestLogin_PersistsAndNavigatesToDefault(t *testing.T) {
	m, store, h, _ := newManager(t, &fakeAuth{grant: johnGrant()}, "/auth/login")

	var published []State
	unsub := m.Subscribe(func(s State) { published = append(published, s) })
	defer unsub()

	u, err := m.Login(context.Background(), Credentials{Username: "john", Password: "secret"})
	require.NoError(t, err)

	assert.Equal(t, "fake-token", store.AccessToken())
	assert.Equal(t, "fake-refresh", store.RefreshToken())
	stored, ok := credstore.LoadUser[rbac.User](store)
	require.True(t, ok)
	assert.Equal(t, rbac.Role("SUPER_ADMIN"), stored.Role)
	assert.Equal(t, []rbac.Permission{"reports:view"}, stored.Permissions)

	assert.Equal(t, "john", u.Username)
	assert.True(t, m.IsAuthenticated())
	require.Len(t, published, 1)
	assert.Equal(t, "1", published[0].User.ID)

	assert.Equal(t, "/dashboard", h.CurrentPath())
	assert.Len(t, h.Entries(), 1, "login navigation replaces the login entry")
}

func TestLogin_ReturnURLRoundTrip(t *testing.T) {
	m, _, h, _ := newManager(t, &fakeAuth{grant: johnGrant()}, "/auth/login?returnUrl=%2Fusers%3Fpage%3D2")
	_, err := m.Login(context.Background(), Credentials{Username: "john", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "/users", h.CurrentPath())
	assert.Equal(t, "page=2", h.CurrentSearch())
}

func TestLogin_RejectsAuthAreaReturnURL(t *testing.T) {
	m, _, h, _ := newManager(t, &fakeAuth{grant: johnGrant()}, "/auth/login")
	_, err := m.Login(context.Background(), Credentials{Username: "john", Password: "secret", ReturnURL: "/auth/register"})
	require.NoError(t, err)
	assert.Equal(t, "/dashboard", h.CurrentPath())
}

func TestLogin_FailureWritesNothing(t *testing.T) {
	cases := map[string]*fakeAuth{
		"rejected":      {loginErr: authapi.ErrInvalidCredentials},
		"nil grant":     {},
		"missing token": {grant: &authapi.Grant{User: &rbac.User{ID: "1"}}},
		"missing user":  {grant: &authapi.Grant{AccessToken: "a"}},
	}
	for name, auth := range cases {
		t.Run(name, func(t *testing.T) {
			m, store, h, n := newManager(t, auth, "/auth/login")
			called := false
			m.Subscribe(func(State) { called = true })

			u, err := m.Login(context.Background(), Credentials{Username: "john", Password: "bad"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrLoginFailed))
			assert.Nil(t, u)
			assert.Empty(t, store.AccessToken())
			assert.Empty(t, store.RefreshToken())
			assert.False(t, m.IsAuthenticated())
			assert.False(t, called)
			assert.Equal(t, "/auth/login", h.CurrentPath())
			require.Len(t, n.msgs, 1)
		})
	}
}

func TestLogout_ServerFailureStillClears(t *testing.T) {
	auth := &fakeAuth{grant: johnGrant(), logoutErr: errors.New("upstream down")}
	m, store, h, _ := newManager(t, auth, "/auth/login")
	_, err := m.Login(context.Background(), Credentials{Username: "john", Password: "secret"})
	require.NoError(t, err)

	m.Logout(context.Background())

	assert.Equal(t, []string{"fake-refresh"}, auth.logoutCalls)
	assert.Empty(t, store.AccessToken())
	assert.Empty(t, store.RefreshToken())
	_, ok := credstore.LoadUser[rbac.User](store)
	assert.False(t, ok)
	assert.Nil(t, m.CurrentUser())
	assert.Equal(t, "/auth/login", h.CurrentPath())
}

func TestLogout_WithoutRefreshTokenSendsEmpty(t *testing.T) {
	auth := &fakeAuth{}
	m, _, _, _ := newManager(t, auth, "/dashboard")
	m.Logout(context.Background())
	m.Logout(context.Background())
	assert.Equal(t, []string{"", ""}, auth.logoutCalls)
	assert.False(t, m.IsAuthenticated())
}

func TestQuickLogout_SkipsServer(t *testing.T) {
	auth := &fakeAuth{grant: johnGrant()}
	m, store, h, _ := newManager(t, auth, "/auth/login")
	_, err := m.Login(context.Background(), Credentials{Username: "john", Password: "secret"})
	require.NoError(t, err)

	m.QuickLogout(context.Background())
	assert.Empty(t, auth.logoutCalls)
	assert.Empty(t, store.AccessToken())
	assert.Nil(t, m.CurrentUser())
	assert.Equal(t, "/auth/login", h.CurrentPath())
}

func TestTeardown_UsesContextNavigator(t *testing.T) {
	m, store, fallback, _ := newManager(t, &fakeAuth{grant: johnGrant()}, "/auth/login")
	_, err := m.Login(context.Background(), Credentials{Username: "john", Password: "secret"})
	require.NoError(t, err)

	reqNav := nav.NewHistory("/reports")
	m.Teardown(nav.WithNavigator(context.Background(), reqNav), "refresh failed")

	assert.Empty(t, store.AccessToken())
	assert.False(t, m.IsAuthenticated())
	assert.Equal(t, "/auth/login", reqNav.CurrentPath())
	assert.Equal(t, "/dashboard", fallback.CurrentPath())
}

func TestSetUserAndSubscribe(t *testing.T) {
	m, store, _, _ := newManager(t, &fakeAuth{}, "/")

	var order []string
	u1 := m.Subscribe(func(State) { order = append(order, "a") })
	m.Subscribe(func(State) { order = append(order, "b") })

	m.SetUser(&rbac.User{ID: "9", Role: "normal_user"})
	assert.Equal(t, rbac.Role("NORMAL_USER"), m.CurrentUser().Role)
	_, ok := credstore.LoadUser[rbac.User](store)
	assert.True(t, ok)

	u1()
	u1()
	m.SetUser(nil)
	assert.Equal(t, []string{"a", "b", "b"}, order)
	assert.Nil(t, m.CurrentUser())

	// CurrentUser es una copia.
	m.SetUser(&rbac.User{ID: "9", Permissions: []rbac.Permission{"users:read"}})
	cu := m.CurrentUser()
	cu.Permissions[0] = "users:delete"
	assert.Equal(t, rbac.Permission("users:read"), m.CurrentUser().Permissions[0])
}

func TestNewManager_HydratesFromStore(t *testing.T) {
	store := credstore.New(memory.New(0))
	store.SetUser(&rbac.User{ID: "1", Role: "POWER_ADMIN"})
	m := NewManager(store, &fakeAuth{}, nil)
	require.True(t, m.IsAuthenticated())
	assert.Equal(t, rbac.Role("POWER_ADMIN"), m.CurrentUser().Role)

	// Sin navigator no hay panic.
	m.QuickLogout(context.Background())
	assert.False(t, m.IsAuthenticated())
}

func TestLogin_UserWithoutID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"fake-token","user":{"username":"john","role":"SUPER_ADMIN"}}`))
	}))
	defer srv.Close()
	auth := authapi.New(authapi.Config{BaseURL: srv.URL}, srv.Client())

	m, store, h, n := newManager(t, auth, "/auth/login")
	u, err := m.Login(context.Background(), Credentials{Username: "john", Password: "secret"})
	require.NoError(t, err)
	assert.Empty(t, u.ID)
	assert.Equal(t, "fake-token", store.AccessToken())
	assert.True(t, m.IsAuthenticated())
	assert.Equal(t, "/dashboard", h.CurrentPath())
	assert.Empty(t, n.msgs)

	// la sesión sobrevive a un reinicio
	restored := NewManager(store, auth, nil)
	require.True(t, restored.IsAuthenticated())
	assert.Equal(t, "john", restored.CurrentUser().Username)
}

func TestNewManager_HydratesUserWithoutID(t *testing.T) {
	store := credstore.New(memory.New(0))
	m := NewManager(store, &fakeAuth{}, nil)
	m.SetUser(&rbac.User{Username: "john", Role: rbac.RoleSuperAdmin})
	require.True(t, m.IsAuthenticated())

	again := NewManager(store, &fakeAuth{}, nil)
	require.True(t, again.IsAuthenticated())
	assert.Equal(t, rbac.RoleSuperAdmin, again.CurrentUser().Role)
}

func TestActions(t *testing.T) {
	m, _, _, _ := newManager(t, &fakeAuth{loginErr: authapi.ErrInvalidCredentials}, "/auth/login")
	a := NewActions(m)
	assert.False(t, a.IsLoading())

	_, err := a.LoginUser(context.Background(), Credentials{Username: "x", Password: "y"})
	require.Error(t, err)
	assert.ErrorIs(t, a.Err(), ErrLoginFailed)
	assert.False(t, a.IsLoading())

	a.LogoutUser(context.Background())
	assert.NoError(t, a.Err())
}

package guard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellojohn-admin/internal/authapi"
	"github.com/dropDatabas3/hellojohn-admin/internal/credstore"
	"github.com/dropDatabas3/hellojohn-admin/internal/credstore/memory"
	"github.com/dropDatabas3/hellojohn-admin/internal/nav"
	"github.com/dropDatabas3/hellojohn-admin/internal/rbac"
	"github.com/dropDatabas3/hellojohn-admin/internal/session"
)

type stubAuth struct{ user *rbac.User }

func (s stubAuth) Login(context.Context, string, string) (*authapi.Grant, error) {
	return &authapi.Grant{AccessToken: "fake-token", RefreshToken: "r", User: s.user}, nil
}
func (stubAuth) Logout(context.Context, string) error { return nil }

func newSession(t *testing.T, start string, u *rbac.User) (*session.Manager, *nav.History) {
	t.Helper()
	h := nav.NewHistory(start)
	m := session.NewManager(credstore.New(memory.New(0)), stubAuth{user: &rbac.User{ID: "1", Role: rbac.RoleNormalUser}}, h)
	if u != nil {
		m.SetUser(u)
	}
	return m, h
}

func TestFromContext_PanicsWithoutSession(t *testing.T) {
	assert.Panics(t, func() { FromContext(context.Background()) })
	assert.Panics(t, func() { Can(context.Background(), rbac.PermUsersRead) })
	assert.Panics(t, func() { (&AuthGuard{}).Render(context.Background()) })
}

func TestAuthGuard_GuestRoundTrip(t *testing.T) {
	m, h := newSession(t, "/dashboard", nil)
	ctx := WithSession(context.Background(), m, nil)

	g := &AuthGuard{Children: "dashboard", Loading: "…"}
	assert.Equal(t, Fragment("…"), g.Render(ctx))
	assert.True(t, g.Redirecting())
	assert.Equal(t, "/auth/login", h.CurrentPath())
	assert.Equal(t, "/dashboard", nav.ReturnURLFromSearch(h.CurrentSearch()))

	// Una sola navegación aunque se re-renderice.
	g.Render(ctx)
	assert.Len(t, h.Entries(), 1)

	_, err := m.Login(context.Background(), session.Credentials{Username: "john", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "/dashboard", h.CurrentPath())
	assert.Equal(t, Fragment("dashboard"), g.Render(ctx))
	assert.False(t, g.Redirecting())
}

func TestAuthGuard_NoReturnURLForRootOrAuth(t *testing.T) {
	for _, start := range []string{"/", "/auth/register"} {
		m, h := newSession(t, start, nil)
		(&AuthGuard{}).Render(WithSession(context.Background(), m, nil))
		assert.Equal(t, "/auth/login", h.CurrentPath(), start)
		assert.Empty(t, h.CurrentSearch(), start)
	}
}

func TestGuestGuard(t *testing.T) {
	m, h := newSession(t, "/auth/login?returnUrl=%2Freports", nil)
	ctx := WithSession(context.Background(), m, nil)
	g := &GuestGuard{Children: "login form"}
	assert.Equal(t, Fragment("login form"), g.Render(ctx))

	m.SetUser(&rbac.User{ID: "1", Role: rbac.RoleNormalUser})
	assert.Equal(t, Fragment(""), g.Render(ctx))
	assert.Equal(t, "/reports", h.CurrentPath())
	g.Render(ctx)
	assert.Len(t, h.Entries(), 1)

	m2, h2 := newSession(t, "/auth/login?returnUrl=%2Fauth%2Fregister", &rbac.User{ID: "2"})
	(&GuestGuard{}).Render(WithSession(context.Background(), m2, nil))
	assert.Equal(t, "/dashboard", h2.CurrentPath())
}

func TestPermissionAndRoleGuards(t *testing.T) {
	m, _ := newSession(t, "/", &rbac.User{ID: "1", Role: rbac.RoleNormalUser, Permissions: []rbac.Permission{rbac.PermSettingsManage}})
	ctx := WithSession(context.Background(), m, nil)

	assert.Equal(t, Fragment("ok"), PermissionGuard{Permissions: []rbac.Permission{rbac.PermUsersDelete, rbac.PermSettingsManage}, Children: "ok", Fallback: "no"}.Render(ctx))
	assert.Equal(t, Fragment("no"), PermissionGuard{Permissions: []rbac.Permission{rbac.PermUsersDelete, rbac.PermSettingsManage}, RequireAll: true, Children: "ok", Fallback: "no"}.Render(ctx))
	assert.Equal(t, Fragment("ok"), PermissionGuard{RequireAll: true, Children: "ok"}.Render(ctx))
	assert.Equal(t, Fragment("no"), PermissionGuard{Children: "ok", Fallback: "no"}.Render(ctx))

	assert.Equal(t, Fragment("ok"), RoleGuard{Roles: []rbac.Role{rbac.RoleNormalUser}, Children: "ok"}.Render(ctx))
	assert.Equal(t, Fragment("no"), RoleGuard{AtLeast: rbac.RolePowerAdmin, Children: "ok", Fallback: "no"}.Render(ctx))
	assert.Equal(t, Fragment("ok"), RoleGuard{AtLeast: rbac.RoleNormalUser, Children: "ok"}.Render(ctx))

	anon, _ := newSession(t, "/", nil)
	actx := WithSession(context.Background(), anon, nil)
	assert.Equal(t, Fragment("no"), RoleGuard{AtLeast: "GHOST", Children: "ok", Fallback: "no"}.Render(actx))
	assert.False(t, CanAll(actx))
}

func serve(t *testing.T, m *session.Manager, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithSession(req.Context(), m, nil)))
	return rec
}

func TestRequireAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	anon, _ := newSession(t, "/", nil)

	rec := serve(t, anon, RequireAuth()(ok), httptest.NewRequest("GET", "/dashboard", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login?returnUrl=%2Fdashboard", rec.Header().Get("Location"))

	rec = serve(t, anon, RequireAuth()(ok), httptest.NewRequest("GET", "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "/auth/login?returnUrl=%2Fapi%2Fme", body["location"])

	authed, _ := newSession(t, "/", &rbac.User{ID: "1"})
	rec = serve(t, authed, RequireAuth()(ok), httptest.NewRequest("GET", "/dashboard", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireGuest(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	authed, _ := newSession(t, "/", &rbac.User{ID: "1"})

	rec := serve(t, authed, RequireGuest()(ok), httptest.NewRequest("GET", "/auth/login?returnUrl=%2Fcustomers", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/customers", rec.Header().Get("Location"))

	anon, _ := newSession(t, "/", nil)
	rec = serve(t, anon, RequireGuest()(ok), httptest.NewRequest("GET", "/auth/login", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequirePermissionAndRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	user, _ := newSession(t, "/", &rbac.User{ID: "1", Role: rbac.RoleNormalUser})

	rec := serve(t, user, RequirePermission(rbac.PermDashboardView)(ok), httptest.NewRequest("GET", "/api/x", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(t, user, RequireAllPermissions(rbac.PermDashboardView, rbac.PermUsersDelete)(ok), httptest.NewRequest("GET", "/api/x", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "users:delete")

	rec = serve(t, user, RequireAnyRole(rbac.RoleSuperAdmin)(ok), httptest.NewRequest("GET", "/api/x", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	anon, _ := newSession(t, "/", nil)
	rec = serve(t, anon, RequirePermission(rbac.PermDashboardView)(ok), httptest.NewRequest("GET", "/api/x", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

package nav

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutes_ReturnURLFor(t *testing.T) {
	r := DefaultRoutes()
	assert.Equal(t, "/dashboard", r.ReturnURLFor("/dashboard"))
	assert.Equal(t, "/users?page=2", r.ReturnURLFor("/users?page=2"))
	assert.Equal(t, "", r.ReturnURLFor("/"))
	assert.Equal(t, "", r.ReturnURLFor("/?tab=1"))
	assert.Equal(t, "", r.ReturnURLFor("/auth/login"))
	assert.Equal(t, "", r.ReturnURLFor("/auth"))
	assert.Equal(t, "/authors", r.ReturnURLFor("/authors"), "/authors no es área de auth")
	assert.Equal(t, "", r.ReturnURLFor(""))
}

func TestRoutes_SafeReturnURL(t *testing.T) {
	r := DefaultRoutes()
	assert.Equal(t, "/dashboard", r.SafeReturnURL("/dashboard"))
	assert.Equal(t, "/users?page=2", r.SafeReturnURL(" /users?page=2 "))
	for _, bad := range []string{"", "/auth/login", "/auth/register?x=1", "https://evil.example", "//evil.example/x", `/\evil`, "dashboard"} {
		assert.Equal(t, "", r.SafeReturnURL(bad), "candidate %q", bad)
	}
}

func TestRoutes_Destination(t *testing.T) {
	r := DefaultRoutes()
	assert.Equal(t, "/customers", r.Destination("/customers"))
	assert.Equal(t, "/dashboard", r.Destination("/auth/login"))
	assert.Equal(t, "/dashboard", r.Destination(""))

	custom := Routes{Default: "/home", AuthPrefix: "/account"}
	assert.Equal(t, "/home", custom.Destination("/account/login"))
	assert.Equal(t, "/auth/x", custom.Destination("/auth/x"))
}

func TestLoginSearchAndBack(t *testing.T) {
	r := DefaultRoutes()
	s := r.LoginSearch("/dashboard")
	assert.Equal(t, "returnUrl=%2Fdashboard", s)
	assert.Equal(t, "/dashboard", ReturnURLFromSearch(s))
	assert.Equal(t, "/dashboard", ReturnURLFromSearch("?"+s))
	assert.Equal(t, "", r.LoginSearch(""))
}

func TestHistory(t *testing.T) {
	h := NewHistory("/auth/login?returnUrl=%2Fdashboard")
	assert.Equal(t, "/auth/login", h.CurrentPath())
	assert.Equal(t, "/dashboard", ReturnURLFromSearch(h.CurrentSearch()))

	h.Navigate("/dashboard", Options{Replace: true})
	assert.Len(t, h.Entries(), 1)
	h.Navigate("/users", Options{Search: "page=2"})
	assert.Equal(t, "/users?page=2", h.Current().URL())
	h.Back()
	assert.Equal(t, "/dashboard", h.CurrentPath())
	h.Back()
	assert.Equal(t, "/dashboard", h.CurrentPath())
}

func TestResponseNavigator(t *testing.T) {
	req := httptest.NewRequest("GET", "/dashboard?tab=1", nil)
	n := NewResponseNavigator(req)
	assert.Equal(t, "/dashboard", n.CurrentPath())
	assert.Equal(t, "tab=1", n.CurrentSearch())

	rec := httptest.NewRecorder()
	assert.False(t, n.Flush(rec, req))

	n.Navigate("/auth/login", Options{Search: "returnUrl=%2Fdashboard", Replace: true})
	require.True(t, n.Flush(rec, req))
	assert.Equal(t, 303, rec.Code)
	assert.Equal(t, "/auth/login?returnUrl=%2Fdashboard", rec.Header().Get("Location"))
}

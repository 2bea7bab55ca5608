package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellojohn-admin/internal/authapi"
)

func fakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case authapi.DefaultLoginPath:
			var in struct {
				Password string `json:"password"`
			}
			_ = json.NewDecoder(r.Body).Decode(&in)
			if in.Password != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"access_token":"a1","refresh_token":"r1","user":{"id":"7","username":"ana","role":"POWER_ADMIN"}}`))
		case authapi.DefaultLogoutPath:
			w.WriteHeader(http.StatusNoContent)
		case "/v2/admin/users":
			if r.Header.Get("Authorization") != "Bearer a1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`[{"id":"7"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T) {
	t.Helper()
	up := fakeUpstream(t)
	t.Setenv("CONSOLE_UPSTREAM_URL", up.URL)
	t.Setenv("CONSOLE_STORE_DRIVER", "file")
	t.Setenv("CONSOLE_STORE_FILE", filepath.Join(t.TempDir(), "credentials.json"))
	t.Setenv("CONSOLE_LOG_LEVEL", "error")
}

func TestLoginWhoamiCanLogout(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "login", "-u", "ana", "-p", "secret", "--returnUrl", "/reports")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as ana (POWER_ADMIN)")
	assert.Contains(t, out, "Landing: /reports")

	out, err = run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "POWER_ADMIN")
	assert.Contains(t, out, "customers:delete")
	assert.NotContains(t, out, "Settings")

	_, err = run(t, "can", "users:read", "--all=false")
	require.NoError(t, err)
	_, err = run(t, "can", "settings:manage", "users:read", "--all")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "settings:manage")
	_, err = run(t, "can", "--at-least", "NORMAL_USER")
	require.NoError(t, err)

	out, err = run(t, "request", "GET", "/v2/admin/users")
	require.NoError(t, err)
	assert.Contains(t, out, `[{"id":"7"}]`)

	out, err = run(t, "logout", "--quick=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Next: /auth/login")

	_, err = run(t, "whoami")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestLoginRejected(t *testing.T) {
	setupEnv(t)
	_, err := run(t, "login", "-u", "ana", "-p", "wrong")
	require.Error(t, err)

	_, err = run(t, "whoami")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestSameSite(t *testing.T) {
	assert.Equal(t, http.SameSiteStrictMode, sameSite("Strict"))
	assert.Equal(t, http.SameSiteNoneMode, sameSite("none"))
	assert.Equal(t, http.SameSiteLaxMode, sameSite(""))
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellojohn-admin/internal/rbac"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "console.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, "file", c.Store.Driver)
	assert.Equal(t, "sid", c.Server.CookieName)
	assert.EqualValues(t, 1<<20, c.Server.MaxProxyBody)
	assert.Equal(t, "/auth/login", c.NavRoutes().Login)
	assert.Equal(t, "/dashboard", c.NavRoutes().Default)
	assert.NotEmpty(t, c.RBAC.Features)
	assert.NoError(t, c.Validate())

	r := c.Resolver()
	assert.Contains(t, r.PermissionsForRole(rbac.RoleSuperAdmin), rbac.PermSettingsManage)
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	p := writeYAML(t, `
upstream:
  base_url: https://auth.example
  client_id: console
routes:
  default: /home
store:
  driver: file
  file:
    path: creds.json
rbac:
  roles:
    viewer: [reports:view, reports:view]
    editor: [reports:view, reports:edit]
  precedence:
    editor: 0
    viewer: 1
    auditor: 1
`)
	t.Setenv("CONSOLE_TENANT_ID", "acme")
	t.Setenv("CONSOLE_ENV", "PROD")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "https://auth.example", c.Upstream.BaseURL)
	assert.Equal(t, "https://auth.example", c.APIBaseURL())
	assert.Equal(t, "acme", c.Upstream.TenantID)
	assert.Equal(t, "prod", c.App.Env)
	assert.True(t, c.Server.CookieSecure)
	assert.Equal(t, filepath.Join(filepath.Dir(p), "creds.json"), c.Store.File.Path)
	assert.Equal(t, "/home", c.NavRoutes().Default)

	r := c.Resolver()
	assert.Equal(t, []rbac.Permission{"reports:view"}, r.PermissionsForRole("VIEWER"))
	assert.Empty(t, r.PermissionsForRole(rbac.RoleSuperAdmin))
	assert.True(t, r.IsRoleHigherThan("EDITOR", "VIEWER"))
	assert.False(t, r.IsRoleHigherThan("AUDITOR", "VIEWER"))
	assert.False(t, r.IsRoleHigherThan("VIEWER", "AUDITOR"))
	assert.True(t, r.IsRoleHigherThan("VIEWER", "GUEST"))
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"driver":          "store:\n  driver: mongo\n",
		"redis addr":      "store:\n  driver: redis\n",
		"pg dsn":          "store:\n  driver: postgres\n",
		"duration":        "upstream:\n  timeout: soon\n",
		"precedence dup":  "rbac:\n  precedence: {a: 0, A: 1}\n",
		"precedence rank": "rbac:\n  precedence: {a: -1}\n",
		"precedence list": "rbac:\n  precedence: [a, b]\n",
		"yaml":            "store: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeYAML(t, body))
			assert.Error(t, err)
		})
	}
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 2*time.Second, Duration("2s", time.Minute))
	assert.Equal(t, time.Minute, Duration("", time.Minute))
	assert.Equal(t, time.Minute, Duration("nope", time.Minute))
}

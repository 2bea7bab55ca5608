package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionsForRole_UnknownRoleIsEmpty(t *testing.T) {
	r := NewDefaultResolver()
	for _, role := range []Role{"", "GHOST", "super_admin", "NORMAL_USER "} {
		perms := r.PermissionsForRole(role)
		require.NotNil(t, perms, "role %q", role)
		assert.Empty(t, perms, "role %q", role)
	}
}

func TestPermissionsForRole_ReturnsCopy(t *testing.T) {
	r := NewDefaultResolver()
	perms := r.PermissionsForRole(RoleNormalUser)
	require.NotEmpty(t, perms)
	perms[0] = "hacked:all"
	assert.NotContains(t, r.PermissionsForRole(RoleNormalUser), Permission("hacked:all"))
}

func TestNewResolver_CopiesTables(t *testing.T) {
	roles := RolePermissionMap{"X": {"a:read"}}
	r := NewResolver(roles, Precedence{"X": 0})
	roles["X"][0] = "b:write"
	roles["Y"] = []Permission{"c:read"}
	assert.Equal(t, []Permission{"a:read"}, r.PermissionsForRole("X"))
	assert.Empty(t, r.PermissionsForRole("Y"))
}

func TestEffectivePermissions_UnionAndDedupe(t *testing.T) {
	r := NewDefaultResolver()
	u := &User{
		Role:        RoleNormalUser,
		Permissions: []Permission{PermCustomersRead, PermReportsView, PermReportsView, ""},
	}
	eff := r.EffectivePermissions(u)
	assert.ElementsMatch(t, []Permission{PermDashboardView, PermCustomersRead, PermReportsView}, eff)
}

func TestEffectivePermissions_IdempotentAndOrderIndependent(t *testing.T) {
	r := NewDefaultResolver()
	a := &User{Role: RolePowerAdmin, Permissions: []Permission{PermSettingsManage, PermUsersDelete}}
	b := &User{Role: RolePowerAdmin, Permissions: []Permission{PermUsersDelete, PermSettingsManage}}

	first := r.EffectivePermissions(a)
	second := r.EffectivePermissions(a)
	assert.ElementsMatch(t, first, second)
	assert.ElementsMatch(t, first, r.EffectivePermissions(b))
}

func TestEffectivePermissions_RecomputedAfterRoleChange(t *testing.T) {
	r := NewDefaultResolver()
	u := &User{Role: RoleSuperAdmin}
	require.True(t, r.HasPermission(u, PermUsersDelete))

	u.Role = RoleNormalUser
	assert.False(t, r.HasPermission(u, PermUsersDelete), "permisos viejos no deben sobrevivir un cambio de rol")
}

func TestEffectivePermissions_UnknownRoleKeepsUserAdditions(t *testing.T) {
	r := NewDefaultResolver()
	u := &User{Role: "AUDITOR", Permissions: []Permission{PermReportsView}}
	assert.Equal(t, []Permission{PermReportsView}, r.EffectivePermissions(u))
}

func TestRoles_OrderedByPrecedence(t *testing.T) {
	r := NewDefaultResolver()
	assert.Equal(t, []Role{RoleSuperAdmin, RolePowerAdmin, RoleNormalUser}, r.Roles())
}

func TestParsePermissions(t *testing.T) {
	got := ParsePermissions([]string{" users:read", "users:read", "", "customers:read"})
	assert.Equal(t, []Permission{"customers:read", "users:read"}, got)
	assert.Nil(t, ParsePermissions(nil))
}

func TestPermission_Parts(t *testing.T) {
	assert.Equal(t, "users", PermUsersRead.Resource())
	assert.Equal(t, "read", PermUsersRead.Action())
	assert.Equal(t, "legacy", Permission("legacy").Resource())
	assert.Equal(t, "", Permission("legacy").Action())
}

func TestUserClone_IsDeep(t *testing.T) {
	u := &User{ID: "1", Role: RoleNormalUser, Permissions: []Permission{PermReportsView}, Extra: map[string]any{"k": "v"}}
	c := u.Clone()
	c.Permissions[0] = PermUsersDelete
	c.Extra["k"] = "changed"
	assert.Equal(t, PermReportsView, u.Permissions[0])
	assert.Equal(t, "v", u.Extra["k"])
	var nilUser *User
	assert.Nil(t, nilUser.Clone())
}

package authapi

import (
	"errors"
	"fmt"
	"strings"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/hellojohn-admin/internal/rbac"
)

// userBody es el perfil tal como llega en la respuesta de login.
type userBody struct {
	ID          string         `json:"id"`
	Sub         string         `json:"sub"`
	Username    string         `json:"username"`
	Email       string         `json:"email"`
	Name        string         `json:"name"`
	Role        string         `json:"role"`
	Roles       []string       `json:"roles"`
	Permissions []string       `json:"permissions"`
	Perms       []string       `json:"perms"`
	Extra       map[string]any `json:"extra"`
}

func (b *userBody) toUser() *rbac.User {
	role := b.Role
	if role == "" && len(b.Roles) > 0 {
		role = b.Roles[0]
	}
	u := &rbac.User{
		ID:          firstNonEmpty(b.ID, b.Sub),
		Username:    firstNonEmpty(b.Username, b.Email),
		Email:       b.Email,
		Name:        b.Name,
		Role:        rbac.NormalizeRole(role),
		Permissions: rbac.ParsePermissions(append(append([]string(nil), b.Permissions...), b.Perms...)),
		Extra:       b.Extra,
	}
	return u
}

// errNoSubject: el token no identifica a nadie.
var errNoSubject = errors.New("access token without subject")

// UserFromAccessToken arma un perfil a partir de los claims del access token
// SIN verificar firma: el token ya vino del upstream por TLS y solo se usa
// para poblar la UI; la autorización real la hace el upstream.
//
// Roles y permisos se buscan en el top-level (role, roles, perms, permissions)
// y en el namespace de sistema ".../claims/sys", suelto o dentro de "custom".
func UserFromAccessToken(token string) (*rbac.User, error) {
	claims := jwtv5.MapClaims{}
	if _, _, err := jwtv5.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, errNoSubject
	}
	b := userBody{ID: sub}
	b.Email, _ = claims["email"].(string)
	b.Name, _ = claims["name"].(string)
	b.Username, _ = claims["preferred_username"].(string)
	b.Role, _ = claims["role"].(string)
	b.Roles = stringSlice(claims["roles"])
	b.Perms = append(stringSlice(claims["perms"]), stringSlice(claims["permissions"])...)

	collectSys(&b, claims)
	if custom, ok := claims["custom"].(map[string]any); ok {
		collectSys(&b, custom)
	}
	return b.toUser(), nil
}

// collectSys junta roles/perms de los namespaces ".../claims/sys" de m.
func collectSys(b *userBody, m map[string]any) {
	for k, v := range m {
		if !strings.HasSuffix(k, "/claims/sys") {
			continue
		}
		sys, ok := v.(map[string]any)
		if !ok {
			continue
		}
		b.Roles = append(b.Roles, stringSlice(sys["roles"])...)
		b.Perms = append(b.Perms, stringSlice(sys["perms"])...)
	}
}

func stringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, x := range t {
			if s, ok := x.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if t == "" {
			return nil
		}
		return strings.Fields(t)
	}
	return nil
}

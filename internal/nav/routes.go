package nav

import (
	"net/url"
	"strings"
)

// ReturnURLParam es el nombre del query param que transporta el return-url.
const ReturnURLParam = "returnUrl"

// Routes agrupa las rutas que gobiernan redirecciones de auth.
type Routes struct {
	Login       string // "/auth/login"
	Default     string // landing post-login, "/dashboard"
	AuthPrefix  string // área de autenticación, "/auth"
	Root        string // "/"
	AfterLogout string // "" => Login
}

// DefaultRoutes devuelve las rutas de referencia.
func DefaultRoutes() Routes {
	return Routes{Login: "/auth/login", Default: "/dashboard", AuthPrefix: "/auth", Root: "/"}
}

func (r Routes) withDefaults() Routes {
	d := DefaultRoutes()
	if r.Login == "" {
		r.Login = d.Login
	}
	if r.Default == "" {
		r.Default = d.Default
	}
	if r.AuthPrefix == "" {
		r.AuthPrefix = d.AuthPrefix
	}
	if r.Root == "" {
		r.Root = d.Root
	}
	if r.AfterLogout == "" {
		r.AfterLogout = r.Login
	}
	return r
}

// Normalize completa campos vacíos con los defaults.
func (r Routes) Normalize() Routes { return r.withDefaults() }

// IsAuthPath reporta si p cae en el área de autenticación (/auth, /auth/...).
func (r Routes) IsAuthPath(p string) bool {
	r = r.withDefaults()
	p = pathOnly(p)
	prefix := strings.TrimRight(r.AuthPrefix, "/")
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// ReturnURLFor calcula el return-url que captura AuthGuard: el path actual,
// suprimido ("") cuando es la raíz o una página de auth.
func (r Routes) ReturnURLFor(current string) string {
	r = r.withDefaults()
	if current == "" || pathOnly(current) == r.Root || r.IsAuthPath(current) {
		return ""
	}
	return current
}

// LoginSearch arma el query para la ruta de login ("" si no hay return-url).
func (r Routes) LoginSearch(returnURL string) string {
	if returnURL == "" {
		return ""
	}
	return url.Values{ReturnURLParam: {returnURL}}.Encode()
}

// SafeReturnURL valida un return-url candidato. Devuelve "" si está vacío,
// si no es un path local (evita open redirects) o si apunta al área de auth.
func (r Routes) SafeReturnURL(candidate string) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return ""
	}
	if !strings.HasPrefix(candidate, "/") || strings.HasPrefix(candidate, "//") || strings.HasPrefix(candidate, "/\\") {
		return ""
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" {
		return ""
	}
	if r.IsAuthPath(u.Path) {
		return ""
	}
	return candidate
}

// Destination decide a dónde ir después del login: el return-url seguro o el default.
func (r Routes) Destination(candidate string) string {
	if safe := r.SafeReturnURL(candidate); safe != "" {
		return safe
	}
	return r.withDefaults().Default
}

// ReturnURLFromSearch extrae returnUrl de un query string.
func ReturnURLFromSearch(search string) string {
	v, err := url.ParseQuery(strings.TrimPrefix(search, "?"))
	if err != nil {
		return ""
	}
	return v.Get(ReturnURLParam)
}

// SplitURL separa "path?query" en (path, query).
func SplitURL(raw string) (string, string) {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		return raw[:i], raw[i+1:]
	}
	return raw, ""
}

func pathOnly(p string) string {
	path, _ := SplitURL(p)
	return path
}

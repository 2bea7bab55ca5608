package server

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/dropDatabas3/hellojohn-admin/internal/guard"
	"github.com/dropDatabas3/hellojohn-admin/internal/http/errors"
	"github.com/dropDatabas3/hellojohn-admin/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-admin/internal/rbac"
)

type loginPageData struct {
	Action    string
	ReturnURL string
	CSRF      string
	Error     string
}

type featurePageData struct {
	Title   string
	User    *rbac.User
	Nav     []rbac.Feature
	Current string
	Actions []guard.Fragment
	Admin   guard.Fragment
	Logout  string
	CSRF    string
}

var loginTmpl = template.Must(template.New("login").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>Sign in</title></head>
<body>
<h1>Sign in</h1>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<form method="post" action="{{.Action}}">
<input type="hidden" name="csrf_token" value="{{.CSRF}}">
<input type="hidden" name="returnUrl" value="{{.ReturnURL}}">
<label>Username <input name="username" autocomplete="username"></label>
<label>Password <input name="password" type="password" autocomplete="current-password"></label>
<button type="submit">Sign in</button>
</form>
</body></html>`))

var featureTmpl = template.Must(template.New("feature").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<nav><ul>{{range .Nav}}<li{{if eq .Path $.Current}} class="active"{{end}}><a href="{{.Path}}">{{.Title}}</a></li>{{end}}</ul></nav>
<header>{{with .User}}{{if .Name}}{{.Name}}{{else}}{{.Username}}{{end}} ({{.Role}}){{end}}
<form method="post" action="{{.Logout}}"><input type="hidden" name="csrf_token" value="{{.CSRF}}"><button type="submit">Sign out</button></form>
</header>
<main>
<h1>{{.Title}}</h1>
{{range .Actions}}<button>{{.}}</button>{{end}}
{{if .Admin}}<section class="admin">{{.Admin}}</section>{{end}}
</main>
</body></html>`))

// renderPage dibuja una feature. Las acciones de escritura se muestran con
// PermissionGuard y el panel de administración con RoleGuard.
func (s *server) renderPage(w http.ResponseWriter, r *http.Request, f rbac.Feature) {
	ctx := r.Context()
	sc := guard.FromContext(ctx)
	u := sc.Session.CurrentUser()

	data := featurePageData{
		Title:   f.Title,
		User:    u,
		Nav:     sc.Resolver.FilterFeatures(u, s.Features),
		Current: f.Path,
		Logout:  s.Routes.AuthPrefix + "/logout",
		Admin: guard.RoleGuard{
			AtLeast:  rbac.RolePowerAdmin,
			Children: "Administration",
		}.Render(ctx),
	}
	if ck, err := r.Cookie(s.Cookie.CSRFName); err == nil {
		data.CSRF = ck.Value
	}
	if len(f.Permissions) > 0 {
		res := f.Permissions[0].Resource()
		for _, action := range []string{"create", "update", "delete"} {
			frag := guard.PermissionGuard{
				Permissions: []rbac.Permission{rbac.Permission(res + ":" + action)},
				Children:    guard.Fragment(action),
			}.Render(ctx)
			if frag != "" {
				data.Actions = append(data.Actions, frag)
			}
		}
	}
	renderHTML(w, http.StatusOK, featureTmpl, data)
}

func (s *server) handleRoot(w http.ResponseWriter, r *http.Request) {
	target := s.Routes.Login
	if scope(r.Context()).manager.IsAuthenticated() {
		target = s.Routes.Default
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func renderHTML(w http.ResponseWriter, status int, t *template.Template, data any) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		logger.L().Error("template render failed", logger.Component("bff"), logger.String("template", t.Name()), logger.Err(err))
		errors.WriteError(w, errors.ErrInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

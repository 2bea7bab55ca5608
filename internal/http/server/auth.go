package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/dropDatabas3/hellojohn-admin/internal/authapi"
	"github.com/dropDatabas3/hellojohn-admin/internal/guard"
	"github.com/dropDatabas3/hellojohn-admin/internal/http/errors"
	"github.com/dropDatabas3/hellojohn-admin/internal/nav"
	"github.com/dropDatabas3/hellojohn-admin/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-admin/internal/session"
)

type loginRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	ReturnURL string `json:"returnUrl"`
}

type loginResponse struct {
	User     any    `json:"user"`
	Location string `json:"location"`
}

func (s *server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	sc := scope(r.Context())
	data := loginPageData{
		Action:    s.Routes.Login,
		ReturnURL: sc.manager.Routes().SafeReturnURL(nav.ReturnURLFromSearch(r.URL.RawQuery)),
		Error:     r.URL.Query().Get("error"),
	}
	if ck, err := r.Cookie(s.Cookie.CSRFName); err == nil {
		data.CSRF = ck.Value
	}
	renderHTML(w, http.StatusOK, loginTmpl, data)
}

// handleLogin acepta JSON o form. Un usuario ya autenticado se trata igual que en GET.
func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sc := scope(ctx)
	if sc.manager.IsAuthenticated() {
		guard.RequireGuest()(http.NotFoundHandler()).ServeHTTP(w, r)
		return
	}

	var in loginRequest
	isJSON := strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
	if isJSON {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&in); err != nil {
			errors.WriteError(w, errors.ErrInvalidJSON.WithCause(err))
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			errors.WriteError(w, errors.ErrBadRequest.WithCause(err))
			return
		}
		in.Username = r.PostForm.Get("username")
		in.Password = r.PostForm.Get("password")
		in.ReturnURL = r.PostForm.Get(nav.ReturnURLParam)
	}
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		if isJSON || guard.WantsJSON(r) {
			errors.WriteError(w, errors.ErrMissingFields.WithDetail("username and password are required"))
			return
		}
		s.loginFailedRedirect(w, r, in.ReturnURL, "missing_fields")
		return
	}

	u, err := session.NewActions(sc.manager).LoginUser(ctx, session.Credentials{
		Username:  in.Username,
		Password:  in.Password,
		ReturnURL: in.ReturnURL,
	})
	if err != nil {
		apiErr := loginError(err)
		if isJSON || guard.WantsJSON(r) {
			errors.WriteError(w, apiErr)
			return
		}
		s.loginFailedRedirect(w, r, in.ReturnURL, strings.ToLower(apiErr.Code))
		return
	}

	target, _ := sc.nav.Target()
	if isJSON || guard.WantsJSON(r) {
		writeJSON(w, http.StatusOK, loginResponse{User: u, Location: target.URL()})
		return
	}
	sc.nav.Flush(w, r)
}

func (s *server) loginFailedRedirect(w http.ResponseWriter, r *http.Request, returnURL, code string) {
	search := s.Routes.LoginSearch(s.Routes.SafeReturnURL(returnURL))
	if search != "" {
		search += "&"
	}
	search += "error=" + code
	http.Redirect(w, r, s.Routes.Login+"?"+search, http.StatusSeeOther)
}

func loginError(err error) *errors.AppError {
	var se *authapi.StatusError
	switch {
	case stderrors.Is(err, authapi.ErrInvalidCredentials):
		return errors.ErrInvalidCredentials
	case stderrors.Is(err, session.ErrInvalidGrant), stderrors.Is(err, authapi.ErrMalformedResponse):
		return errors.ErrBadGateway.WithDetail("incomplete login response")
	case stderrors.As(err, &se) && se.Status >= 500:
		return errors.ErrBadGateway.WithCause(err)
	case stderrors.As(err, &se):
		return errors.New(se.Status, "LOGIN_REJECTED", "login rejected by upstream").WithDetail(se.Message)
	default:
		return errors.ErrServiceUnavailable.WithCause(err)
	}
}

// handleLogout: ?quick=1 limpia solo la sesión local.
func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sc := scope(ctx)
	if q := r.URL.Query().Get("quick"); q == "1" || q == "true" {
		sc.manager.QuickLogout(ctx)
	} else {
		session.NewActions(sc.manager).LogoutUser(ctx)
	}
	logger.From(ctx).Debug("logout handled", logger.Component("bff"))

	target, _ := sc.nav.Target()
	if guard.WantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]string{"location": target.URL()})
		return
	}
	sc.nav.Flush(w, r)
}

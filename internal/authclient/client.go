// Package authclient es el pipeline autorizado: inyecta el bearer del
// credstore, detecta 401, coordina un único refresh en vuelo por sesión,
// reintenta una sola vez y destruye la sesión si el refresh falla.
package authclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/hellojohn-admin/internal/authapi"
	"github.com/dropDatabas3/hellojohn-admin/internal/credstore"
	"github.com/dropDatabas3/hellojohn-admin/internal/metrics"
	"github.com/dropDatabas3/hellojohn-admin/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-admin/internal/rbac"
)

const errBodyLimit = 4 << 10

// Session es lo que el pipeline necesita de la sesión (ver session.Manager).
type Session interface {
	Store() *credstore.Store
	SetUser(u *rbac.User)
	Teardown(ctx context.Context, reason string)
}

// Refresher canjea refresh tokens (ver authapi.Client).
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*authapi.Grant, error)
}

// Option configura un Client.
type Option func(*Client)

// WithBaseURL resuelve los paths relativos de los helpers JSON.
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") } }

// WithHTTPClient cambia el transporte.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRefreshTimeout limita la llamada de refresh (default 15s).
func WithRefreshTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.refreshTimeout = d
		}
	}
}

// Client ejecuta requests autorizados en nombre de una sesión.
type Client struct {
	session        Session
	refresher      Refresher
	http           *http.Client
	baseURL        string
	refreshTimeout time.Duration
	flight         *singleflight.Group
}

// New crea un Client ligado a session.
func New(session Session, refresher Refresher, opts ...Option) *Client {
	c := &Client{
		session:        session,
		refresher:      refresher,
		http:           &http.Client{Timeout: 30 * time.Second},
		refreshTimeout: 15 * time.Second,
		flight:         &singleflight.Group{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ForSession devuelve un Client hermano para otra sesión. Comparte transporte
// y grupo de refresh; la clave del refresh es el namespace del credstore, así
// que dos Clients de la misma sesión nunca refrescan en paralelo.
func (c *Client) ForSession(s Session) *Client {
	cp := *c
	cp.session = s
	return &cp
}

// Do ejecuta req con el bearer actual. Devuelve la respuesta para 2xx/3xx;
// cualquier otra cosa es un *Error. El body de req debe poder releerse
// (GetBody); si no, se bufferiza.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, &Error{Kind: KindSetup, Err: errors.New("nil request")}
	}
	if err := ensureReplayable(req); err != nil {
		return nil, &Error{Kind: KindSetup, Method: req.Method, URL: redactURL(req), Err: err}
	}
	return c.send(ctx, req, 0)
}

// send es una iteración de la máquina de estados; attempt cuenta reintentos
// de este llamado (nunca se marca el request).
func (c *Client) send(ctx context.Context, req *http.Request, attempt int) (*http.Response, error) {
	log := logger.From(ctx).With(logger.Component("authclient"), logger.Method(req.Method), logger.Path(req.URL.Path), logger.Attempt(attempt))

	token := c.session.Store().AccessToken()
	out := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, c.fail(log, &Error{Kind: KindSetup, Method: req.Method, URL: redactURL(req), Err: err})
		}
		out.Body = body
	}
	if token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	} else {
		out.Header.Del("Authorization")
	}

	res, err := c.http.Do(out)
	if err != nil {
		return nil, c.fail(log, &Error{Kind: KindNetwork, Method: req.Method, URL: redactURL(req), Err: err})
	}

	switch {
	case res.StatusCode == http.StatusUnauthorized && attempt == 0:
		drain(res)
		log.Debug("401 received; refreshing", logger.TokenHint(token))
		if err := c.refresh(ctx, token); err != nil {
			return nil, c.fail(log, &Error{
				Kind: KindSessionExpired, Status: http.StatusUnauthorized, Method: req.Method, URL: redactURL(req),
				Err: fmt.Errorf("%w: %w", ErrSessionExpired, err),
			})
		}
		return c.send(ctx, req, attempt+1)

	case res.StatusCode == http.StatusUnauthorized:
		body := readSnippet(res)
		return nil, c.fail(log, &Error{Kind: KindUnauthorized, Status: res.StatusCode, Method: req.Method, URL: redactURL(req), Body: body})

	case res.StatusCode >= 400:
		body := readSnippet(res)
		return nil, c.fail(log, &Error{Kind: kindForStatus(res.StatusCode), Status: res.StatusCode, Method: req.Method, URL: redactURL(req), Body: body})
	}

	outcome := "ok"
	if attempt > 0 {
		outcome = "retried_ok"
	}
	metrics.RequestsTotal.WithLabelValues(outcome).Inc()
	return res, nil
}

// refresh obtiene un access token nuevo para reemplazar rejected. Si otro
// request ya lo reemplazó no llama al servicio. Las llamadas concurrentes de
// la misma sesión comparten una sola llamada al servicio, y el token nuevo
// queda escrito en el store antes de que cualquiera de ellas retorne.
func (c *Client) refresh(ctx context.Context, rejected string) error {
	store := c.session.Store()
	if done, err := settled(store, rejected); done {
		return err
	}

	_, err, _ := c.flight.Do("refresh:"+store.Namespace(), func() (interface{}, error) {
		if done, err := settled(store, rejected); done {
			return nil, err
		}
		// La llamada compartida no depende de la cancelación del primer caller.
		base := context.WithoutCancel(ctx)
		rctx, cancel := context.WithTimeout(base, c.refreshTimeout)
		defer cancel()

		start := time.Now()
		grant, err := c.refresher.Refresh(rctx, store.RefreshToken())
		metrics.RefreshLatency.Observe(float64(time.Since(start).Milliseconds()))
		if err == nil && (grant == nil || grant.AccessToken == "") {
			err = authapi.ErrMalformedResponse
		}
		if err != nil {
			metrics.RefreshTotal.WithLabelValues("failure").Inc()
			logger.From(ctx).Warn("token refresh failed; tearing session down", logger.Component("authclient"), logger.Err(err))
			c.session.Teardown(base, "refresh failed")
			return nil, err
		}

		store.SetAccessToken(grant.AccessToken)
		if grant.RefreshToken != "" {
			store.SetRefreshToken(grant.RefreshToken)
		}
		if grant.User != nil {
			c.session.SetUser(grant.User)
		}
		metrics.RefreshTotal.WithLabelValues("success").Inc()
		logger.From(ctx).Debug("token refreshed", logger.Component("authclient"), logger.TokenHint(grant.AccessToken))
		return nil, nil
	})
	return err
}

// settled reporta si el 401 ya quedó resuelto por otro request: el token fue
// reemplazado (reintentar con el actual) o la sesión ya fue destruida
// (errSessionCleared, sin otro refresh ni otro teardown).
func settled(store *credstore.Store, rejected string) (bool, error) {
	cur := store.AccessToken()
	switch {
	case cur != "" && cur != rejected:
		metrics.RefreshTotal.WithLabelValues("reused").Inc()
		return true, nil
	case cur == "" && rejected != "":
		metrics.RefreshTotal.WithLabelValues("cleared").Inc()
		return true, errSessionCleared
	}
	return false, nil
}

func (c *Client) fail(log *zap.Logger, e *Error) error {
	metrics.RequestsTotal.WithLabelValues(string(e.Kind)).Inc()
	fields := []zap.Field{logger.Kind(string(e.Kind)), logger.Status(e.Status)}
	if e.Err != nil {
		fields = append(fields, logger.Err(e.Err))
	}
	if e.Kind == KindSessionExpired || e.Kind == KindServer || e.Kind == KindNetwork {
		log.Warn("authorized request failed", fields...)
	} else {
		log.Info("authorized request failed", fields...)
	}
	return e
}

func ensureReplayable(req *http.Request) error {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return nil
	}
	b, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return fmt.Errorf("buffer request body: %w", err)
	}
	req.Body = io.NopCloser(bytes.NewReader(b))
	req.GetBody = func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(b)), nil }
	return nil
}

func drain(res *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, errBodyLimit))
	_ = res.Body.Close()
}

func readSnippet(res *http.Response) string {
	defer res.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(res.Body, errBodyLimit))
	return string(b)
}

// redactURL devuelve la URL sin query (puede traer datos sensibles).
func redactURL(req *http.Request) string {
	if req.URL == nil {
		return ""
	}
	u := *req.URL
	u.RawQuery = ""
	u.User = nil
	return u.String()
}

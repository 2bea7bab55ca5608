// Package authapi es el cliente del servicio de autenticación upstream
// (API compatible con hellojohn v2: /v2/auth/login, /v2/auth/refresh, /v2/auth/logout).
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/hellojohn-admin/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-admin/internal/rbac"
)

// Paths por defecto del upstream.
const (
	DefaultLoginPath   = "/v2/auth/login"
	DefaultRefreshPath = "/v2/auth/refresh"
	DefaultLogoutPath  = "/v2/auth/logout"
)

const maxBody = 1 << 20

// Config del cliente upstream.
type Config struct {
	BaseURL     string
	TenantID    string
	ClientID    string
	LoginPath   string
	RefreshPath string
	LogoutPath  string
	Timeout     time.Duration
}

// Grant es lo que devuelven login y refresh.
type Grant struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	// User es el perfil normalizado; si la respuesta no lo trae se deriva de
	// los claims del access token. Puede ser nil en refresh.
	User *rbac.User
}

// Client habla con el upstream. Seguro para uso concurrente.
type Client struct {
	cfg  Config
	http *http.Client
}

// New crea el cliente. hc nil usa un http.Client con cfg.Timeout (default 10s).
func New(cfg Config, hc *http.Client) *Client {
	if cfg.LoginPath == "" {
		cfg.LoginPath = DefaultLoginPath
	}
	if cfg.RefreshPath == "" {
		cfg.RefreshPath = DefaultRefreshPath
	}
	if cfg.LogoutPath == "" {
		cfg.LogoutPath = DefaultLogoutPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: hc}
}

type loginRequest struct {
	TenantID string `json:"tenant_id,omitempty"`
	ClientID string `json:"client_id,omitempty"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	TenantID     string `json:"tenant_id,omitempty"`
	ClientID     string `json:"client_id,omitempty"`
	RefreshToken string `json:"refresh_token"`
}

// grantResponse acepta snake_case (hellojohn) y los alias "token"/camelCase
// que devuelven otros backends de dashboard.
type grantResponse struct {
	AccessToken       string    `json:"access_token"`
	AccessTokenCamel  string    `json:"accessToken"`
	Token             string    `json:"token"`
	RefreshToken      string    `json:"refresh_token"`
	RefreshTokenCamel string    `json:"refreshToken"`
	ExpiresIn         int64     `json:"expires_in"`
	User              *userBody `json:"user"`
}

func (g grantResponse) access() string {
	return firstNonEmpty(g.AccessToken, g.AccessTokenCamel, g.Token)
}

func (g grantResponse) refresh() string {
	return firstNonEmpty(g.RefreshToken, g.RefreshTokenCamel)
}

// Login autentica username/password. Un rechazo de credenciales devuelve
// un error que matchea ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, username, password string) (*Grant, error) {
	req := loginRequest{
		TenantID: c.cfg.TenantID,
		ClientID: c.cfg.ClientID,
		Username: username,
		Password: password,
	}
	if strings.Contains(username, "@") {
		req.Email = username
	}
	var resp grantResponse
	if err := c.post(ctx, "login", c.cfg.LoginPath, req, &resp); err != nil {
		var se *StatusError
		if errors.As(err, &se) && (se.Status == http.StatusUnauthorized || se.Status == http.StatusBadRequest) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return nil, err
	}
	access := resp.access()
	if access == "" {
		return nil, fmt.Errorf("%w: login without access token", ErrMalformedResponse)
	}
	g := &Grant{AccessToken: access, RefreshToken: resp.refresh(), ExpiresIn: resp.ExpiresIn}
	if resp.User != nil {
		g.User = resp.User.toUser()
	} else if u, err := UserFromAccessToken(access); err == nil {
		g.User = u
	} else {
		logger.From(ctx).Debug("access token claims not usable as profile", logger.Component("authapi"), logger.Err(err))
	}
	if g.User == nil {
		return nil, fmt.Errorf("%w: login without user profile", ErrMalformedResponse)
	}
	return g, nil
}

// Refresh canjea el refresh token. Un refresh token vacío se envía igual;
// el upstream decide. RefreshToken vacío en el Grant significa "sin rotación".
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Grant, error) {
	req := refreshRequest{TenantID: c.cfg.TenantID, ClientID: c.cfg.ClientID, RefreshToken: refreshToken}
	var resp grantResponse
	if err := c.post(ctx, "refresh", c.cfg.RefreshPath, req, &resp); err != nil {
		return nil, err
	}
	access := resp.access()
	if access == "" {
		return nil, fmt.Errorf("%w: refresh without access token", ErrMalformedResponse)
	}
	g := &Grant{AccessToken: access, RefreshToken: resp.refresh(), ExpiresIn: resp.ExpiresIn}
	if resp.User != nil {
		g.User = resp.User.toUser()
	}
	return g, nil
}

// Logout invalida el refresh token en el upstream.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	req := refreshRequest{TenantID: c.cfg.TenantID, ClientID: c.cfg.ClientID, RefreshToken: refreshToken}
	return c.post(ctx, "logout", c.cfg.LogoutPath, req, nil)
}

func (c *Client) post(ctx context.Context, op, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("authapi %s: encode: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("authapi %s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cfg.TenantID != "" {
		req.Header.Set("X-Tenant-ID", c.cfg.TenantID)
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("authapi %s: %w", op, err)
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return fmt.Errorf("authapi %s: read body: %w", op, err)
	}
	logger.From(ctx).Debug("upstream auth call",
		logger.Component("authapi"), logger.Op(op), logger.Status(res.StatusCode), logger.DurationMs(time.Since(start)))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return newStatusError(op, res.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		if out != nil {
			return fmt.Errorf("%w: empty %s body", ErrMalformedResponse, op)
		}
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, op, err)
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

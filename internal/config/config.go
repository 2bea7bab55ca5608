package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/hellojohn-admin/internal/nav"
	"github.com/dropDatabas3/hellojohn-admin/internal/rbac"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env      string `yaml:"env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	// Upstream es el servicio de autenticación y la API protegida.
	Upstream struct {
		BaseURL        string `yaml:"base_url"`
		APIBaseURL     string `yaml:"api_base_url"` // "" => BaseURL
		TenantID       string `yaml:"tenant_id"`
		ClientID       string `yaml:"client_id"`
		LoginPath      string `yaml:"login_path"`
		RefreshPath    string `yaml:"refresh_path"`
		LogoutPath     string `yaml:"logout_path"`
		Timeout        string `yaml:"timeout"`
		RefreshTimeout string `yaml:"refresh_timeout"`
	} `yaml:"upstream"`

	Routes struct {
		Login       string `yaml:"login"`
		Default     string `yaml:"default"`
		AuthPrefix  string `yaml:"auth_prefix"`
		Root        string `yaml:"root"`
		AfterLogout string `yaml:"after_logout"`
	} `yaml:"routes"`

	RBAC struct {
		// Roles: rol -> permisos. Vacío => tabla de referencia.
		Roles map[string][]string `yaml:"roles"`
		// Precedence: rol -> rank explícito (0 = más privilegiado). Roles
		// ausentes quedan por debajo de todos los listados.
		Precedence map[string]int `yaml:"precedence"`
		Features   []rbac.Feature `yaml:"features"`
	} `yaml:"rbac"`

	Store struct {
		// memory | file | redis | postgres
		Driver  string `yaml:"driver"`
		Timeout string `yaml:"timeout"`
		// SealKey cifra los valores en reposo (vacío = sin cifrado).
		SealKey string `yaml:"seal_key"`
		Memory  struct {
			TTL string `yaml:"ttl"`
		} `yaml:"memory"`
		File struct {
			Path string `yaml:"path"`
		} `yaml:"file"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
			TTL      string `yaml:"ttl"`
		} `yaml:"redis"`
		Postgres struct {
			DSN string `yaml:"dsn"`
		} `yaml:"postgres"`
	} `yaml:"store"`

	Server struct {
		Addr         string `yaml:"addr"`
		CookieName   string `yaml:"cookie_name"`
		CookieSecure bool   `yaml:"cookie_secure"`
		SameSite     string `yaml:"samesite"`
		CSRFCookie   string `yaml:"csrf_cookie"`
		SessionIdle  string `yaml:"session_idle"`
		// MaxProxyBody limita el body reenviado por /api/proxy (bytes, default 1 MiB).
		MaxProxyBody int64 `yaml:"max_proxy_body"`
	} `yaml:"server"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
}

// Default devuelve una configuración lista para dev (store en archivo).
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

// Load lee el YAML de path (si path == "" solo defaults), aplica defaults,
// overrides CONSOLE_* y valida.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	c.applyDefaults()
	c.applyEnvOverrides()

	if p := strings.TrimSpace(c.Store.File.Path); p != "" && path != "" && !filepath.IsAbs(p) && !strings.HasPrefix(p, "~") {
		c.Store.File.Path = filepath.Clean(filepath.Join(filepath.Dir(path), p))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = "http://localhost:8080"
	}
	if c.Upstream.Timeout == "" {
		c.Upstream.Timeout = "10s"
	}
	if c.Upstream.RefreshTimeout == "" {
		c.Upstream.RefreshTimeout = "15s"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "file"
	}
	if c.Store.Timeout == "" {
		c.Store.Timeout = "3s"
	}
	if c.Store.Redis.Prefix == "" {
		c.Store.Redis.Prefix = "console"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8090"
	}
	if c.Server.CookieName == "" {
		c.Server.CookieName = "sid"
	}
	if c.Server.SameSite == "" {
		c.Server.SameSite = "Lax"
	}
	if c.Server.CSRFCookie == "" {
		c.Server.CSRFCookie = "csrf_token"
	}
	if c.Server.SessionIdle == "" {
		c.Server.SessionIdle = "30m"
	}
	if c.Server.MaxProxyBody <= 0 {
		c.Server.MaxProxyBody = 1 << 20
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if len(c.RBAC.Features) == 0 {
		c.RBAC.Features = rbac.DefaultFeatures()
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

// applyEnvOverrides pisa el YAML con CONSOLE_*.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("CONSOLE_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("CONSOLE_LOG_LEVEL"); ok {
		c.App.LogLevel = v
	}

	if v, ok := getEnvStr("CONSOLE_UPSTREAM_URL"); ok {
		c.Upstream.BaseURL = v
	}
	if v, ok := getEnvStr("CONSOLE_API_URL"); ok {
		c.Upstream.APIBaseURL = v
	}
	if v, ok := getEnvStr("CONSOLE_TENANT_ID"); ok {
		c.Upstream.TenantID = v
	}
	if v, ok := getEnvStr("CONSOLE_CLIENT_ID"); ok {
		c.Upstream.ClientID = v
	}
	if v, ok := getEnvStr("CONSOLE_UPSTREAM_TIMEOUT"); ok {
		c.Upstream.Timeout = v
	}

	if v, ok := getEnvStr("CONSOLE_STORE_DRIVER"); ok {
		c.Store.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("CONSOLE_STORE_FILE"); ok {
		c.Store.File.Path = v
	}
	if v, ok := getEnvStr("CONSOLE_SEAL_KEY"); ok {
		c.Store.SealKey = v
	}
	if v, ok := getEnvStr("CONSOLE_REDIS_ADDR"); ok {
		c.Store.Redis.Addr = v
	}
	if v, ok := getEnvStr("CONSOLE_REDIS_PASSWORD"); ok {
		c.Store.Redis.Password = v
	}
	if v, ok := getEnvInt("CONSOLE_REDIS_DB"); ok {
		c.Store.Redis.DB = v
	}
	if v, ok := getEnvStr("CONSOLE_PG_DSN"); ok {
		c.Store.Postgres.DSN = v
	}

	if v, ok := getEnvStr("CONSOLE_SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvBool("CONSOLE_COOKIE_SECURE"); ok {
		c.Server.CookieSecure = v
	}
	if v, ok := getEnvBool("CONSOLE_METRICS_ENABLED"); ok {
		c.Metrics.Enabled = v
	}

	// En prod la cookie de sesión siempre es Secure.
	if c.App.Env == "prod" {
		c.Server.CookieSecure = true
	}
}

// Validate chequea drivers, duraciones y tablas RBAC.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case "memory", "file":
	case "redis":
		if c.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis.addr required for driver redis"))
		}
	case "postgres", "pg":
		if c.Store.Postgres.DSN == "" {
			errs = append(errs, errors.New("store.postgres.dsn required for driver postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver %q not supported", c.Store.Driver))
	}
	for name, v := range map[string]string{
		"upstream.timeout":         c.Upstream.Timeout,
		"upstream.refresh_timeout": c.Upstream.RefreshTimeout,
		"store.timeout":            c.Store.Timeout,
		"store.memory.ttl":         c.Store.Memory.TTL,
		"store.redis.ttl":          c.Store.Redis.TTL,
		"server.session_idle":      c.Server.SessionIdle,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	seen := map[rbac.Role]bool{}
	for r, rank := range c.RBAC.Precedence {
		role := rbac.NormalizeRole(r)
		if seen[role] {
			errs = append(errs, fmt.Errorf("rbac.precedence: duplicated role %s", role))
		}
		seen[role] = true
		if rank < 0 {
			errs = append(errs, fmt.Errorf("rbac.precedence: negative rank %d for %s", rank, role))
		}
	}
	return errors.Join(errs...)
}

// Resolver arma el resolver RBAC; sin tablas en config usa las de referencia.
func (c *Config) Resolver() *rbac.Resolver {
	roles := rbac.DefaultRolePermissions()
	if len(c.RBAC.Roles) > 0 {
		roles = make(rbac.RolePermissionMap, len(c.RBAC.Roles))
		for r, perms := range c.RBAC.Roles {
			roles[rbac.NormalizeRole(r)] = rbac.ParsePermissions(perms)
		}
	}
	prec := rbac.DefaultPrecedence()
	if len(c.RBAC.Precedence) > 0 {
		prec = make(rbac.Precedence, len(c.RBAC.Precedence))
		for r, rank := range c.RBAC.Precedence {
			prec[rbac.NormalizeRole(r)] = rank
		}
	}
	return rbac.NewResolver(roles, prec)
}

// NavRoutes devuelve las rutas de auth normalizadas.
func (c *Config) NavRoutes() nav.Routes {
	return nav.Routes{
		Login:       c.Routes.Login,
		Default:     c.Routes.Default,
		AuthPrefix:  c.Routes.AuthPrefix,
		Root:        c.Routes.Root,
		AfterLogout: c.Routes.AfterLogout,
	}.Normalize()
}

// APIBaseURL es la base de la API protegida.
func (c *Config) APIBaseURL() string {
	if c.Upstream.APIBaseURL != "" {
		return c.Upstream.APIBaseURL
	}
	return c.Upstream.BaseURL
}

// Duration parsea s; vacío o inválido => def. Llamar después de Validate.
func Duration(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
		return d
	}
	return def
}

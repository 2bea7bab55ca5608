package cmd

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/hellojohn-admin/internal/authapi"
	"github.com/dropDatabas3/hellojohn-admin/internal/authclient"
	"github.com/dropDatabas3/hellojohn-admin/internal/config"
	"github.com/dropDatabas3/hellojohn-admin/internal/http/server"
	"github.com/dropDatabas3/hellojohn-admin/internal/infra/credfactory"
	"github.com/dropDatabas3/hellojohn-admin/internal/metrics"
	"github.com/dropDatabas3/hellojohn-admin/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-admin/internal/session"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the console HTTP backend (server-side sessions, guards and API proxy)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		if cfg.Metrics.Enabled {
			if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
				return fmt.Errorf("register metrics: %w", err)
			}
		}

		opened, err := credfactory.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open credential store: %w", err)
		}
		defer opened.Close()

		auth := authapi.New(authapi.Config{
			BaseURL:     cfg.Upstream.BaseURL,
			TenantID:    cfg.Upstream.TenantID,
			ClientID:    cfg.Upstream.ClientID,
			LoginPath:   cfg.Upstream.LoginPath,
			RefreshPath: cfg.Upstream.RefreshPath,
			LogoutPath:  cfg.Upstream.LogoutPath,
			Timeout:     config.Duration(cfg.Upstream.Timeout, 0),
		}, nil)
		routes := cfg.NavRoutes()
		registry := session.NewRegistry(opened.Store, auth, config.Duration(cfg.Server.SessionIdle, 0), session.WithRoutes(routes))
		api := authclient.New(nil, auth,
			authclient.WithBaseURL(cfg.APIBaseURL()),
			authclient.WithRefreshTimeout(config.Duration(cfg.Upstream.RefreshTimeout, 0)),
		)

		deps := server.Deps{
			Registry: registry,
			API:      api,
			Resolver: cfg.Resolver(),
			Features: cfg.RBAC.Features,
			Routes:   routes,

			MaxProxyBody: cfg.Server.MaxProxyBody,
			Cookie: server.CookieConfig{
				Name:     cfg.Server.CookieName,
				CSRFName: cfg.Server.CSRFCookie,
				Secure:   cfg.Server.CookieSecure,
				SameSite: sameSite(cfg.Server.SameSite),
			},
		}
		if cfg.Metrics.Enabled {
			deps.MetricsPath = cfg.Metrics.Path
		}

		logger.L().Info("starting console backend",
			logger.String("addr", cfg.Server.Addr),
			logger.String("upstream", cfg.Upstream.BaseURL),
			logger.Backend(cfg.Store.Driver))
		return server.Run(ctx, deps, server.RunOptions{Addr: cfg.Server.Addr})
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
}

func sameSite(s string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}


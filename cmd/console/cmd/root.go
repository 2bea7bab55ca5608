// Package cmd implementa la CLI de la consola: login/logout contra el servicio
// de autenticación, predicados RBAC sobre la sesión guardada, requests
// autorizados y el BFF HTTP.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/hellojohn-admin/internal/authapi"
	"github.com/dropDatabas3/hellojohn-admin/internal/authclient"
	"github.com/dropDatabas3/hellojohn-admin/internal/config"
	"github.com/dropDatabas3/hellojohn-admin/internal/infra/credfactory"
	"github.com/dropDatabas3/hellojohn-admin/internal/nav"
	"github.com/dropDatabas3/hellojohn-admin/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-admin/internal/rbac"
	"github.com/dropDatabas3/hellojohn-admin/internal/session"
)

var (
	configPath string
	logLevel   string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "console",
	Short:         "Admin console session and authorization client",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env es opcional
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		level := cfg.App.LogLevel
		if logLevel != "" {
			level = logLevel
		}
		logger.Init(logger.Config{Env: cfg.App.Env, Level: level, Service: "console"})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CONSOLE_CONFIG"), "Path to YAML config (env: CONSOLE_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, canCmd, requestCmd, serveCmd)
}

// Execute corre el comando raíz.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// cliSession es la sesión local de la CLI: un Manager sobre el credstore
// configurado con un historial de navegación en memoria.
type cliSession struct {
	manager  *session.Manager
	history  *nav.History
	auth     *authapi.Client
	api      *authclient.Client
	resolver *rbac.Resolver
	close    func()
}

func openSession(ctx context.Context, start string) (*cliSession, error) {
	opened, err := credfactory.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}
	timeout := config.Duration(cfg.Upstream.Timeout, 0)
	auth := authapi.New(authapi.Config{
		BaseURL:     cfg.Upstream.BaseURL,
		TenantID:    cfg.Upstream.TenantID,
		ClientID:    cfg.Upstream.ClientID,
		LoginPath:   cfg.Upstream.LoginPath,
		RefreshPath: cfg.Upstream.RefreshPath,
		LogoutPath:  cfg.Upstream.LogoutPath,
		Timeout:     timeout,
	}, nil)

	history := nav.NewHistory(start)
	notifier := session.NotifierFunc(func(_ context.Context, msg string, _ error) {
		fmt.Fprintln(os.Stderr, msg)
	})
	m := session.NewManager(opened.Store, auth, history,
		session.WithRoutes(cfg.NavRoutes()),
		session.WithNotifier(notifier),
	)
	api := authclient.New(m, auth,
		authclient.WithBaseURL(cfg.APIBaseURL()),
		authclient.WithRefreshTimeout(config.Duration(cfg.Upstream.RefreshTimeout, 0)),
	)
	return &cliSession{
		manager:  m,
		history:  history,
		auth:     auth,
		api:      api,
		resolver: cfg.Resolver(),
		close:    opened.Close,
	}, nil
}

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/hellojohn-admin/internal/nav"
	"github.com/dropDatabas3/hellojohn-admin/internal/session"
)

var loginFlags struct {
	username  string
	password  string
	returnURL string
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate and store the session credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		username := strings.TrimSpace(loginFlags.username)
		password := loginFlags.password
		if password == "" {
			password = os.Getenv("CONSOLE_PASSWORD")
		}
		if username == "" {
			return errors.New("--username is required")
		}
		if password == "" {
			fmt.Fprint(os.Stderr, "Password: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}

		routes := cfg.NavRoutes()
		start := routes.Login
		if s := routes.LoginSearch(loginFlags.returnURL); s != "" {
			start += "?" + s
		}
		cs, err := openSession(ctx, start)
		if err != nil {
			return err
		}
		defer cs.close()

		u, err := session.NewActions(cs.manager).LoginUser(ctx, session.Credentials{Username: username, Password: password})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", displayName(u.Name, u.Username, u.ID), u.Role)
		fmt.Fprintf(cmd.OutOrStdout(), "Landing: %s\n", cs.history.Current().URL())
		return nil
	},
}

var logoutQuick bool

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the local session (and revoke the refresh token unless --quick)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cs, err := openSession(ctx, cfg.NavRoutes().Default)
		if err != nil {
			return err
		}
		defer cs.close()

		if logoutQuick {
			cs.manager.QuickLogout(ctx)
		} else {
			session.NewActions(cs.manager).LogoutUser(ctx)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged out. Next: %s\n", cs.history.Current().URL())
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginFlags.username, "username", "u", "", "Username or email")
	loginCmd.Flags().StringVarP(&loginFlags.password, "password", "p", "", "Password (env: CONSOLE_PASSWORD; prompted if empty)")
	loginCmd.Flags().StringVar(&loginFlags.returnURL, nav.ReturnURLParam, "", "Page to land on after login")
	logoutCmd.Flags().BoolVar(&logoutQuick, "quick", false, "Skip the revocation call and only clear local credentials")
}

func displayName(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return "-"
}

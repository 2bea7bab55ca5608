package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/hellojohn-admin/internal/rbac"
)

var canFlags struct {
	all     bool
	roles   []string
	atLeast string
}

var canCmd = &cobra.Command{
	Use:   "can [permission...]",
	Short: "Check permissions or roles of the stored user (exit 1 when denied)",
	Example: `  console can users:read
  console can users:read users:update --all
  console can --role SUPER_ADMIN --role POWER_ADMIN
  console can --at-least POWER_ADMIN`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && len(canFlags.roles) == 0 && canFlags.atLeast == "" {
			return fmt.Errorf("at least one permission, --role or --at-least is required")
		}
		cs, err := openSession(cmd.Context(), "/")
		if err != nil {
			return err
		}
		defer cs.close()

		u := cs.manager.CurrentUser()
		if u == nil {
			return errNotLoggedIn
		}
		r := cs.resolver
		allowed := true
		perms := rbac.ParsePermissions(args)
		if len(perms) > 0 {
			if canFlags.all {
				allowed = r.HasAllPermissions(u, perms)
			} else {
				allowed = r.HasAnyPermission(u, perms)
			}
		}
		if len(canFlags.roles) > 0 {
			roles := make([]rbac.Role, 0, len(canFlags.roles))
			for _, s := range canFlags.roles {
				roles = append(roles, rbac.NormalizeRole(s))
			}
			allowed = allowed && r.HasAnyRole(u, roles)
		}
		if canFlags.atLeast != "" {
			floor := rbac.NormalizeRole(canFlags.atLeast)
			allowed = allowed && (r.HasRole(u, floor) || r.IsRoleHigherThan(u.Role, floor))
		}

		if allowed {
			fmt.Fprintln(cmd.OutOrStdout(), "allowed")
			return nil
		}
		if missing := r.MissingPermissions(u, perms); len(missing) > 0 {
			return fmt.Errorf("denied (missing: %s)", strings.Join(rbac.Strings(missing), ", "))
		}
		return fmt.Errorf("denied")
	},
}

func init() {
	canCmd.Flags().BoolVar(&canFlags.all, "all", false, "Require every permission instead of any")
	canCmd.Flags().StringSliceVar(&canFlags.roles, "role", nil, "Require one of these roles")
	canCmd.Flags().StringVar(&canFlags.atLeast, "at-least", "", "Require this role or a more privileged one")
}

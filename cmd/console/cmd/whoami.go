package cmd

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/hellojohn-admin/internal/rbac"
)

var errNotLoggedIn = errors.New("not logged in; run `console login`")

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the stored user, effective permissions and visible features",
	RunE: func(cmd *cobra.Command, args []string) error {
		cs, err := openSession(cmd.Context(), "/")
		if err != nil {
			return err
		}
		defer cs.close()

		u := cs.manager.CurrentUser()
		if u == nil {
			return errNotLoggedIn
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "ID\t%s\n", u.ID)
		fmt.Fprintf(w, "User\t%s\n", displayName(u.Username, u.Email))
		if u.Name != "" {
			fmt.Fprintf(w, "Name\t%s\n", u.Name)
		}
		fmt.Fprintf(w, "Role\t%s\n", u.Role)
		fmt.Fprintf(w, "Permissions\t%s\n", strings.Join(rbac.Strings(cs.resolver.EffectivePermissions(u)), ", "))
		for _, f := range cs.resolver.FilterFeatures(u, cfg.RBAC.Features) {
			fmt.Fprintf(w, "Feature\t%s\t%s\n", f.Title, f.Path)
		}
		return w.Flush()
	},
}

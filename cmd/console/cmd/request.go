package cmd

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/hellojohn-admin/internal/authclient"
)

var requestFlags struct {
	data    string
	headers []string
}

var requestCmd = &cobra.Command{
	Use:   "request METHOD PATH",
	Short: "Send an authorized request to the admin API",
	Example: `  console request GET /v2/admin/users
  console request POST /v2/admin/users -d '{"email":"a@b.c"}'
  console request DELETE /v2/admin/users/42`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		method := strings.ToUpper(args[0])
		cs, err := openSession(ctx, args[1])
		if err != nil {
			return err
		}
		defer cs.close()

		var body io.Reader
		if requestFlags.data == "-" {
			body = cmd.InOrStdin()
		} else if requestFlags.data != "" {
			body = strings.NewReader(requestFlags.data)
		}
		req, err := cs.api.NewRequest(ctx, method, args[1], body)
		if err != nil {
			return err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		for _, h := range requestFlags.headers {
			k, v, ok := strings.Cut(h, ":")
			if !ok {
				return fmt.Errorf("invalid header %q (want Name: value)", h)
			}
			req.Header.Add(strings.TrimSpace(k), strings.TrimSpace(v))
		}

		res, err := cs.api.Do(ctx, req)
		if err != nil {
			var pe *authclient.Error
			if errors.As(err, &pe) && pe.Body != "" {
				fmt.Fprintln(os.Stderr, pe.Body)
			}
			if authclient.IsKind(err, authclient.KindSessionExpired) {
				return fmt.Errorf("session expired; run `console login` (next: %s)", cs.history.Current().URL())
			}
			return err
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			fmt.Fprintln(os.Stderr, res.Status)
		}
		_, err = io.Copy(cmd.OutOrStdout(), res.Body)
		return err
	},
}

func init() {
	requestCmd.Flags().StringVarP(&requestFlags.data, "data", "d", "", "JSON body (\"-\" reads stdin)")
	requestCmd.Flags().StringArrayVarP(&requestFlags.headers, "header", "H", nil, "Extra header (Name: value)")
}

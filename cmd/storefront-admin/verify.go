package main

import (
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mydrops/storefront-edge/internal/adapters/backend"
	domainauth "github.com/mydrops/storefront-edge/internal/domain/auth"
)

// tokenEnv lets operators keep tokens out of shell history.
const tokenEnv = "STOREFRONT_TOKEN"

func verifyCmd(a *app) *cobra.Command {
	var admin bool

	cmd := &cobra.Command{
		Use:   "verify [TOKEN]",
		Short: "Verify a session token against the backend",
		Long: `Verify a user (default) or admin session token and print the identity
and permissions the backend reports. The token may be passed as an argument
or through ` + tokenEnv + `.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := strings.TrimSpace(os.Getenv(tokenEnv))
			if len(args) == 1 {
				token = strings.TrimSpace(args[0])
			}
			if token == "" {
				return errors.New("a token is required")
			}

			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			client, err := backend.NewClient(backend.Options{
				BaseURL:        cfg.Backend.BaseURL,
				Timeout:        cfg.Backend.Timeout,
				UserVerifyPath: cfg.Backend.UserVerifyPath,
			})
			if err != nil {
				return err
			}

			kind := domainauth.SessionUser
			if admin {
				kind = domainauth.SessionAdmin
			}
			v, err := client.VerifyToken(cmd.Context(), kind, token)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(a.out)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"session":     kind.String(),
				"user":        v.User,
				"permissions": v.Permissions.List(),
			})
		},
	}

	cmd.Flags().BoolVar(&admin, "admin", false, "verify an admin session token")

	return cmd
}

package main

import (
	"github.com/spf13/cobra"

	domainauth "github.com/mydrops/storefront-edge/internal/domain/auth"
	"github.com/mydrops/storefront-edge/internal/domain/guard"
)

func classifyCmd(a *app) *cobra.Command {
	var presence domainauth.Presence

	cmd := &cobra.Command{
		Use:   "classify PATH...",
		Short: "Show the route guard decision for paths",
		Long: `Print the zone of each path and what the guard does with a GET to it,
given which session cookies are present. No backend call is made.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range args {
				d := guard.Evaluate(p, presence)
				action := "allow"
				if !d.Allowed() {
					action = "redirect " + d.Location
				}
				if err := writef(a.out, "%s\t%s\t%s\n", p, d.Zone, action); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&presence.User, "user", false, "a user session cookie is present")
	cmd.Flags().BoolVar(&presence.Admin, "admin", false, "an admin session cookie is present")

	return cmd
}

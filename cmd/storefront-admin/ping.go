package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/mydrops/storefront-edge/internal/adapters/backend"
	"github.com/mydrops/storefront-edge/internal/bootstrap"
	"github.com/mydrops/storefront-edge/internal/ports"
)

// pingPath is a public catalog read, so no token is needed.
const pingPath = "/api/v1/categories/"

func pingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the backend and Redis are reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var failed error

			client, err := backend.NewClient(backend.Options{BaseURL: cfg.Backend.BaseURL, Timeout: cfg.Backend.Timeout})
			if err != nil {
				return err
			}
			start := time.Now()
			res, err := client.Forward(ctx, ports.ForwardRequest{
				Method: http.MethodGet,
				Path:   pingPath,
				Query:  url.Values{"limit": {"1"}},
			})
			switch {
			case err != nil:
				failed = errors.Join(failed, fmt.Errorf("backend: %w", err))
				err = writef(a.out, "backend\t%s\tunreachable\n", client.BaseURL())
			case res.Status >= http.StatusInternalServerError:
				failed = errors.Join(failed, fmt.Errorf("backend: status %d", res.Status))
				err = writef(a.out, "backend\t%s\tstatus %d\n", client.BaseURL(), res.Status)
			default:
				err = writef(a.out, "backend\t%s\tok (%s)\n", client.BaseURL(), time.Since(start).Round(time.Millisecond))
			}
			if err != nil {
				return err
			}

			if !cfg.Redis.Enabled() {
				if err := writef(a.out, "redis\t-\tnot configured\n"); err != nil {
					return err
				}
				return failed
			}
			rdb, err := bootstrap.ConnectRedis(ctx, cfg.Redis, nil)
			if err != nil {
				failed = errors.Join(failed, err)
				err = writef(a.out, "redis\t%s\tunreachable\n", redactURI(cfg.Redis.URI))
			} else {
				err = errors.Join(writef(a.out, "redis\t%s\tok\n", redactURI(cfg.Redis.URI)), rdb.Close())
			}
			if err != nil {
				return err
			}
			return failed
		},
	}
}

// redactURI hides credentials in a redis:// URI.
func redactURI(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Redacted()
}

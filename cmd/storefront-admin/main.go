package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mydrops/storefront-edge/config"
	"github.com/mydrops/storefront-edge/internal/bootstrap"
)

// app carries what subcommands share. Tests replace loadConfig.
type app struct {
	out        io.Writer
	loadConfig func() (config.AppConfig, error)
}

func main() {
	logger := bootstrap.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{out: os.Stdout, loadConfig: bootstrap.LoadConfig}
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		logger.ErrorContext(ctx, "command failed", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // CLI must exit with failure status on command errors
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "storefront-admin",
		Short: "Operator tools for the storefront edge",
		Long: `Inspect how the storefront edge treats a request without running it.

classify shows the guard decision for a path, verify checks a session token
against the backend, and ping checks the configured dependencies.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)

	root.AddCommand(
		classifyCmd(a),
		verifyCmd(a),
		pingCmd(a),
	)
	return root
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

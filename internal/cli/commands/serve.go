package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/probeplot/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(g *GlobalOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the parser over HTTP",
		Long: `Start the HTTP API.

Endpoints:
  GET  /healthz         liveness check
  POST /api/v1/parse    parse an uploaded log (multipart field log_file or raw body)
  POST /api/v1/render   render an uploaded log as PNG or SVG
  GET  /metrics         Prometheus metrics

Set server.bearer_token (or PROBEPLOT_BEARER_TOKEN) to require a bearer
token on /api.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg, err := g.LoadConfig(ctx)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.Server.Listen = listen
			}
			logger := g.Logger(cfg, cmd.ErrOrStderr(), false)

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.New(cfg, server.WithLogger(logger)).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config, :8080)")

	return cmd
}

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/DrCloy/web-spice-sub001/internal/server"
	"github.com/DrCloy/web-spice-sub001/internal/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr    string
		metrics bool
		maxBody int64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the solver over HTTP",
		Long: `Serve the solver over HTTP until interrupted.

Endpoints:
  GET  /healthz
  POST /v1/solve?strategy=&backend=   circuit document -> operating point
  POST /v1/dc                         {"circuit": ..., "sweeps": [...]}
  GET  /metrics                       Prometheus metrics (unless --metrics=false)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := server.Config{
				Options:      a.cfg.Options(a.logger),
				Logger:       a.logger,
				MaxBodyBytes: maxBody,
			}
			if metrics {
				tel, err := telemetry.Init(telemetry.Config{
					ServiceName:    "spice",
					ServiceVersion: version,
					MetricExporter: "prometheus",
				})
				if err != nil {
					return err
				}
				defer tel.Shutdown(context.Background())
				cfg.Metrics = tel.MetricsHandler()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			gin.SetMode(gin.ReleaseMode)
			return server.Run(ctx, addr, server.NewRouter(cfg), a.logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&metrics, "metrics", true, "expose Prometheus metrics at /metrics")
	cmd.Flags().Int64Var(&maxBody, "max-body", server.DefaultMaxBodyBytes, "maximum request body size in bytes")
	return cmd
}

package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adfharrison1/go-docref/pkg/api"
	"github.com/adfharrison1/go-docref/pkg/metrics"
	"github.com/adfharrison1/go-docref/pkg/server"
)

var addr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the collection API over HTTP",
	Long:  "Serve commit, read, page and drop endpoints for every collection at the configured location, plus /health and /metrics.",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	if addr != "" {
		rt.config.Server.Addr = addr
	}

	handler := api.NewHandler(rt.opener, rt.config.Location,
		api.WithLogger(rt.logger),
		api.WithMetrics(metrics.Default()))
	srv := server.NewServer(handler,
		server.WithAddr(rt.config.Server.Addr),
		server.WithLogger(rt.logger))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt.logger.Infof("Starting go-docref server on %s (backend %s, location %s)",
		rt.config.Server.Addr, rt.config.Backend, rt.config.Location)
	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}
	rt.logger.Info("Server exited")
	return nil
}

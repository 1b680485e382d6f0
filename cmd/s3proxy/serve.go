package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sagarc03/s3proxy/config"
	"github.com/sagarc03/s3proxy/credentials"
	proxyhttp "github.com/sagarc03/s3proxy/http"
	"github.com/sagarc03/s3proxy/lifecycle"
	"github.com/sagarc03/s3proxy/s3backend"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP gateway",
	Long: `Start the s3proxy HTTP gateway.

The backend bucket is checked before the listener is bound; if the bucket
cannot be reached the command exits with status 1 without accepting any
connection. SIGINT and SIGTERM trigger a graceful drain.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Bool("metrics", false, "expose Prometheus metrics")
	serveCmd.Flags().String("index-document", "", "redirect target of / (default: index.html)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	creds := credentials.Resolve(cfg.Production(), cfg.Credentials.File)

	backend, err := s3backend.New(ctx, s3backend.Config{
		Bucket:       cfg.Bucket,
		Region:       cfg.S3.Region,
		Endpoint:     cfg.S3.Endpoint,
		UsePathStyle: cfg.S3.UsePathStyle,
		MaxRetries:   cfg.S3.MaxRetries,
		Credentials:  creds,
		Logger:       slog.Default(),
	})
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}

	handlerConfig := proxyhttp.HandlerConfig{
		IndexDocument: cfg.Server.IndexDocument,
		Version:       version,
		CORS:          cfg.CORS,
	}
	if cfg.Metrics.Enabled {
		handlerConfig.MetricsPath = cfg.Metrics.Path
	}
	handler := proxyhttp.NewHandler(&handlerConfig, backend)

	controller := lifecycle.New(lifecycle.Options{
		Addr:            cfg.Addr(),
		Handler:         handler.Router(),
		Backend:         backend,
		Notifier:        lifecycle.SystemdNotifier{},
		InitTimeout:     cfg.Server.InitTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Logger:          slog.Default(),
	})

	slog.Info("starting server", "addr", cfg.Addr(), "env", cfg.Env, "version", version)
	if err := controller.Run(ctx); err != nil {
		slog.Error("server stopped", "err", err)
		return err
	}
	return nil
}

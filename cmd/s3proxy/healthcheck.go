package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/s3proxy/config"
)

var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Probe the local gateway's liveness endpoint",
	Long: `Request http://127.0.0.1:$PORT/health and exit with status 1 unless
it answers 200. Intended for container HEALTHCHECK instructions.`,
	Annotations: map[string]string{partialConfigAnnotation: "true"},
	RunE:        runHealthcheck,
}

var healthcheckTimeout time.Duration

func init() {
	healthcheckCmd.Flags().DurationVar(&healthcheckTimeout, "timeout", 3*time.Second, "request timeout")
	rootCmd.AddCommand(healthcheckCmd)
}

func runHealthcheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}
	if cfg.Port == 0 {
		return errors.New("PORT is not set")
	}

	return probeHealth(cmd.Context(), fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Port), healthcheckTimeout)
}

func probeHealth(ctx context.Context, url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: status %d", resp.StatusCode)
	}
	return nil
}

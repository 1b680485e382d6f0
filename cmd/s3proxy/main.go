package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/s3proxy/config"
)

var version = "dev"

// partialConfigAnnotation marks commands that run without BUCKET and PORT.
const partialConfigAnnotation = "s3proxy/partial-config"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "s3proxy",
	Short:   "Read-only HTTP gateway for an S3 bucket",
	Long: `s3proxy exposes a single S3 bucket read-only over HTTP.

GET and HEAD requests are translated into object-store requests and the
object body is streamed back to the client. Running s3proxy without a
subcommand is the same as "s3proxy serve".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if f, _ := cmd.Flags().GetString("config"); f != "" {
			files = append(files, f)
		}

		load := config.Load
		if cmd.Annotations[partialConfigAnnotation] == "true" {
			load = config.LoadUnvalidated
		}

		cfg, err := load(files, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
	RunE: runServe,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file path (default: ./s3proxy.yaml)")
	flags.String("bucket", "", "bucket to expose (env: BUCKET)")
	flags.Int("port", 0, "HTTP listen port (env: PORT)")
	flags.String("host", "", "HTTP listen host (default: all interfaces)")
	flags.String("env", "", "deployment mode; values starting with prod ignore the credentials file (env: NODE_ENV)")
	flags.String("log-level", "", "log level: debug, info, warn, error (env: LOG_LEVEL)")
	flags.String("region", "", "S3 region (env: AWS_REGION)")
	flags.String("endpoint", "", "S3-compatible endpoint URL")
	flags.Bool("path-style", false, "use path-style bucket addressing")
	flags.String("credentials-file", "", "development credentials file (default: ./credentials.json)")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

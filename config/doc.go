// Package config provides configuration loading and validation for s3proxy.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"s3proxy.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
// # Environment Variables
//
// Every key maps to an S3PROXY_ variable (s3.endpoint → S3PROXY_S3_ENDPOINT).
// A few keys also accept the plain names set by container platforms:
//   - bucket → BUCKET
//   - port → PORT
//   - env → NODE_ENV
//   - log.level → LOG_LEVEL
//   - s3.region → AWS_REGION
//
// BUCKET and PORT have no defaults. When either is absent Load fails with
// ErrMissingRequired naming the missing variables.
package config

package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/s3proxy"
	proxyhttp "github.com/sagarc03/s3proxy/http"
)

// ErrMissingRequired is returned when BUCKET or PORT is not configured.
var ErrMissingRequired = errors.New("missing required configuration")

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for s3proxy.
type Config struct {
	Bucket      string               `mapstructure:"bucket" yaml:"bucket" validate:"required"`
	Port        int                  `mapstructure:"port" yaml:"port" validate:"required,min=1,max=65535"`
	Env         string               `mapstructure:"env" yaml:"env" validate:"required"`
	Server      ServerConfig         `mapstructure:"server" yaml:"server"`
	S3          S3Config             `mapstructure:"s3" yaml:"s3"`
	Credentials CredentialsConfig    `mapstructure:"credentials" yaml:"credentials"`
	CORS        proxyhttp.CORSConfig `mapstructure:"cors" yaml:"cors"`
	Metrics     MetricsConfig        `mapstructure:"metrics" yaml:"metrics"`
	Log         LogConfig            `mapstructure:"log" yaml:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	IndexDocument   string        `mapstructure:"index_document" yaml:"index_document" validate:"required"`
	InitTimeout     time.Duration `mapstructure:"init_timeout" yaml:"init_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
}

// S3Config holds backend client configuration.
type S3Config struct {
	Region       string `mapstructure:"region" yaml:"region" validate:"required"`
	Endpoint     string `mapstructure:"endpoint" yaml:"endpoint" validate:"omitempty,url"`
	UsePathStyle bool   `mapstructure:"use_path_style" yaml:"use_path_style"`
	MaxRetries   int    `mapstructure:"max_retries" yaml:"max_retries" validate:"min=0,max=20"`
}

// CredentialsConfig locates the development credentials file.
type CredentialsConfig struct {
	File string `mapstructure:"file" yaml:"file" validate:"required"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path" validate:"required,startswith=/"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=debug info warn error"`
}

// Production reports whether the deployment mode disables local credentials.
func (c *Config) Production() bool {
	return s3proxy.Env(c.Env).IsProduction()
}

// Addr is the listen address built from server.host and port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Port)
}

// envAliases binds keys to the unprefixed variables used by container
// platforms. The prefixed name wins when both are set.
var envAliases = map[string][]string{
	"bucket":    {"S3PROXY_BUCKET", "BUCKET"},
	"port":      {"S3PROXY_PORT", "PORT"},
	"env":       {"S3PROXY_ENV", "NODE_ENV"},
	"log.level": {"S3PROXY_LOG_LEVEL", "LOG_LEVEL"},
	"s3.region": {"S3PROXY_S3_REGION", "AWS_REGION"},
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"host":             "server.host",
	"index-document":   "server.index_document",
	"region":           "s3.region",
	"endpoint":         "s3.endpoint",
	"path-style":       "s3.use_path_style",
	"credentials-file": "credentials.file",
	"log-level":        "log.level",
	"metrics":          "metrics.enabled",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "production")

	v.SetDefault("server.host", "")
	v.SetDefault("server.index_document", "index.html")
	v.SetDefault("server.init_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.use_path_style", false)
	v.SetDefault("s3.max_retries", 3)

	v.SetDefault("credentials.file", "./credentials.json")

	v.SetDefault("cors.enabled", false)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "HEAD"})
	v.SetDefault("cors.allowed_headers", []string{"Range", "If-Match", "If-None-Match", "If-Modified-Since", "If-Unmodified-Since"})
	v.SetDefault("cors.exposed_headers", []string{"ETag", "Content-Length", "Content-Range", "Last-Modified"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	cfg, err := LoadUnvalidated(configFiles, flags)
	if err != nil {
		return nil, err
	}

	// Report absent required values by their variable names
	var missing []string
	if cfg.Bucket == "" {
		missing = append(missing, "BUCKET")
	}
	if cfg.Port == 0 {
		missing = append(missing, "PORT")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, strings.Join(missing, ", "))
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// LoadUnvalidated merges configuration like Load but skips validation.
// Commands that never serve traffic use it so BUCKET is not demanded.
func LoadUnvalidated(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("s3proxy")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("S3PROXY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range envAliases {
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

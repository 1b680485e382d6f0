// Package s3backend implements the s3proxy.Backend contract on top of the
// AWS SDK for Go v2. A Handle owns the single S3 client of the process and
// its connection pool; it is created once and shared by pointer.
package s3backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/sagarc03/s3proxy"
	"github.com/sagarc03/s3proxy/metrics"
)

// ObjectAPI is the subset of the S3 client used by Handle.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Config holds the backend client settings.
type Config struct {
	Bucket       string
	Region       string
	Endpoint     string
	UsePathStyle bool
	MaxRetries   int
	// Credentials overrides the SDK default credential chain when non-nil.
	Credentials *s3proxy.CredentialSet
	Logger      *slog.Logger
}

// Handle is the process-wide backend handle.
type Handle struct {
	api        ObjectAPI
	bucket     string
	httpClient *http.Client
	logger     *slog.Logger

	state    atomic.Int32
	initOnce sync.Once
	initDone chan struct{}
	initErr  error
}

var _ s3proxy.Backend = (*Handle)(nil)

// New builds the S3 client for cfg.Bucket. No network call is made until Init.
func New(ctx context.Context, cfg Config) (*Handle, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket name cannot be empty")
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 64
	httpClient := &http.Client{Transport: transport}

	opts := []func(*config.LoadOptions) error{
		config.WithHTTPClient(httpClient),
	}
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, config.WithRetryMaxAttempts(cfg.MaxRetries))
	}
	if cfg.Credentials != nil {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.Credentials.AccessKeyID,
			cfg.Credentials.SecretAccessKey,
			cfg.Credentials.SessionToken,
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	h := NewWithClient(cfg.Bucket, client, cfg.Logger)
	h.httpClient = httpClient
	return h, nil
}

// NewWithClient wraps an existing client. A nil logger uses slog.Default().
func NewWithClient(bucket string, api ObjectAPI, logger *slog.Logger) *Handle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handle{
		api:      api,
		bucket:   bucket,
		logger:   logger.With("bucket", bucket),
		initDone: make(chan struct{}),
	}
}

// Bucket returns the bucket this handle serves.
func (h *Handle) Bucket() string {
	return h.bucket
}

// State reports the handle lifecycle state.
func (h *Handle) State() s3proxy.HandleState {
	return s3proxy.HandleState(h.state.Load())
}

// ClientVersion identifies the SDK module version.
func (h *Handle) ClientVersion() string {
	return aws.SDKName + "/" + aws.SDKVersion
}

// Init checks that the bucket is reachable with the configured credentials.
// The check runs once; every call returns a channel that yields its result.
func (h *Handle) Init(ctx context.Context) <-chan error {
	h.initOnce.Do(func() {
		h.state.CompareAndSwap(int32(s3proxy.StateUninitialized), int32(s3proxy.StateInitializing))
		go h.runInit(ctx)
	})

	out := make(chan error, 1)
	go func() {
		<-h.initDone
		out <- h.initErr
		close(out)
	}()
	return out
}

func (h *Handle) runInit(ctx context.Context) {
	defer close(h.initDone)

	h.logger.Debug("initializing backend")
	_, err := h.probe(ctx)
	if err != nil {
		h.initErr = fmt.Errorf("%w: bucket %q: %w", s3proxy.ErrBackendInit, h.bucket, err)
		h.state.CompareAndSwap(int32(s3proxy.StateInitializing), int32(s3proxy.StateError))
		return
	}

	if !h.state.CompareAndSwap(int32(s3proxy.StateInitializing), int32(s3proxy.StateReady)) {
		h.initErr = fmt.Errorf("%w: bucket %q: %w", s3proxy.ErrBackendInit, h.bucket, s3proxy.ErrClosed)
		return
	}
	metrics.BackendReady.Set(1)
	h.logger.Debug("backend ready")
}

// Close releases idle connections and marks the handle closed.
func (h *Handle) Close() error {
	prev := s3proxy.HandleState(h.state.Swap(int32(s3proxy.StateClosed)))
	if prev == s3proxy.StateClosed {
		return s3proxy.ErrClosed
	}

	metrics.BackendReady.Set(0)
	if h.httpClient != nil {
		h.httpClient.CloseIdleConnections()
	}
	h.logger.Debug("backend closed", "previous_state", prev.String())
	return nil
}

func (h *Handle) ready() error {
	switch h.State() {
	case s3proxy.StateReady:
		return nil
	case s3proxy.StateClosed:
		return s3proxy.ErrClosed
	default:
		return s3proxy.ErrNotReady
	}
}

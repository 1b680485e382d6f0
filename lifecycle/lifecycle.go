// Package lifecycle sequences gateway startup and shutdown.
//
// Startup order is fixed: the backend is initialised and awaited, then the
// listener is bound, then the server starts and the supervisor is told the
// process is ready. A backend that fails to initialise never gets a listener.
//
// Shutdown stops accepting connections, drains in-flight requests within a
// grace period and finally closes the backend.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sagarc03/s3proxy"
)

const (
	defaultInitTimeout     = 30 * time.Second
	defaultShutdownTimeout = 30 * time.Second
	readHeaderTimeout      = 10 * time.Second
	idleTimeout            = 120 * time.Second
)

// Options configures a Controller.
type Options struct {
	// Addr is the TCP listen address, e.g. ":8080".
	Addr    string
	Handler http.Handler
	Backend s3proxy.Backend
	// Notifier defaults to a no-op.
	Notifier        Notifier
	InitTimeout     time.Duration
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// Controller owns the HTTP server and the backend handle for one process run.
type Controller struct {
	opts   Options
	logger *slog.Logger

	mu        sync.Mutex
	addr      net.Addr
	listening chan struct{}
}

// New creates a Controller. Zero timeouts fall back to 30s.
func New(opts Options) *Controller {
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.InitTimeout <= 0 {
		opts.InitTimeout = defaultInitTimeout
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		opts:      opts,
		logger:    logger,
		listening: make(chan struct{}),
	}
}

// Addr reports the bound listener address, or nil before listening.
func (c *Controller) Addr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addr
}

// Listening is closed once the listener is bound.
func (c *Controller) Listening() <-chan struct{} {
	return c.listening
}

// Run starts the gateway and blocks until ctx is canceled or the server
// fails. It returns nil after a clean drain.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.initBackend(ctx); err != nil {
		_ = c.opts.Backend.Close()
		return err
	}

	ln, err := net.Listen("tcp", c.opts.Addr)
	if err != nil {
		_ = c.opts.Backend.Close()
		return fmt.Errorf("listen on %s: %w", c.opts.Addr, err)
	}

	c.mu.Lock()
	c.addr = ln.Addr()
	c.mu.Unlock()
	close(c.listening)

	server := &http.Server{
		Handler:           c.opts.Handler,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
		ErrorLog:          slog.NewLogLogger(c.logger.Handler(), slog.LevelWarn),
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(ln)
	}()

	c.logger.Info("listening", "addr", ln.Addr().String())
	if err := c.opts.Notifier.Ready(); err != nil {
		c.logger.Warn("readiness notification failed", "err", err)
	}

	select {
	case err := <-serveErr:
		_ = c.opts.Backend.Close()
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	return c.shutdown(server, serveErr)
}

func (c *Controller) initBackend(ctx context.Context) error {
	c.logger.Info("initializing backend", "timeout", c.opts.InitTimeout)

	initCtx, cancel := context.WithTimeout(ctx, c.opts.InitTimeout)
	defer cancel()

	select {
	case err := <-c.opts.Backend.Init(initCtx):
		if err != nil {
			return fmt.Errorf("initialize backend: %w", err)
		}
	case <-initCtx.Done():
		return fmt.Errorf("%w: %w", s3proxy.ErrBackendInit, initCtx.Err())
	}

	c.logger.Info("backend ready", "client", c.opts.Backend.ClientVersion())
	return nil
}

func (c *Controller) shutdown(server *http.Server, serveErr <-chan error) error {
	c.logger.Info("shutting down server...", "grace", c.opts.ShutdownTimeout)
	if err := c.opts.Notifier.Stopping(); err != nil {
		c.logger.Warn("stopping notification failed", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.opts.ShutdownTimeout)
	defer cancel()

	drainErr := server.Shutdown(shutdownCtx)
	if drainErr != nil {
		c.logger.Error("server shutdown error", "err", drainErr)
		// Streams still running past the grace period are cut off.
		_ = server.Close()
	}

	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		c.logger.Warn("server stopped with error", "err", err)
	}

	if err := c.opts.Backend.Close(); err != nil && !errors.Is(err, s3proxy.ErrClosed) {
		c.logger.Warn("backend close failed", "err", err)
	}

	if drainErr != nil {
		return fmt.Errorf("drain connections: %w", drainErr)
	}
	c.logger.Info("shutdown complete")
	return nil
}

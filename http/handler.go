package http

import (
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sagarc03/s3proxy"
	"github.com/sagarc03/s3proxy/metrics"
)

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled" yaml:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers" yaml:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers" yaml:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" yaml:"max_age"`
}

type HandlerConfig struct {
	// IndexDocument is the redirect target of "/". Defaults to index.html.
	IndexDocument string
	// Version is reported on /version.
	Version string
	// MetricsPath serves Prometheus metrics when non-empty.
	MetricsPath string
	CORS        CORSConfig
}

// Handler binds the gateway routes to a backend.
type Handler struct {
	config  HandlerConfig
	backend s3proxy.Backend
}

// NewHandler creates a new Handler with the given configuration and backend.
func NewHandler(config *HandlerConfig, backend s3proxy.Backend) *Handler {
	cfg := *config
	if cfg.IndexDocument == "" {
		cfg.IndexDocument = "index.html"
	}
	cfg.IndexDocument = strings.TrimPrefix(cfg.IndexDocument, "/")

	return &Handler{
		config:  cfg,
		backend: backend,
	}
}

// Router returns an http.Handler with all gateway routes.
// Object routes sit behind the readiness gate; /health, /version and the
// root redirect answer regardless of backend state.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(middleware.RealIP)
	r.Use(metrics.Middleware)
	r.Use(middleware.Recoverer)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.MethodNotAllowed(h.handleMethodNotAllowed)

	r.Get("/health", h.handleHealth)
	r.Get("/health/s3", h.handleHealthS3)
	r.Get("/version", h.handleVersion)
	if h.config.MetricsPath != "" {
		r.Method(http.MethodGet, h.config.MetricsPath, metrics.Handler())
	}

	r.Get("/", h.handleRoot)
	r.Head("/", h.handleRoot)

	r.Group(func(r chi.Router) {
		r.Use(ReadyGate(h.backend))
		r.Head("/*", h.handleHead)
		r.Get("/*", h.handleGet)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Length", "0")
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleHealthS3(w http.ResponseWriter, r *http.Request) {
	obj, err := h.backend.HealthCheck(r.Context())
	if err != nil {
		pe := s3proxy.ProxyErrorFrom(err)
		_ = WriteJSON(w, http.StatusServiceUnavailable, HealthFailure{
			Status:    "error",
			Message:   pe.Message,
			Code:      pe.Code,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	relay(w, r, obj)
}

func (h *Handler) handleVersion(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, VersionInfo{
		Version:   h.config.Version,
		Backend:   h.backend.ClientVersion(),
		Go:        runtime.Version(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/"+h.config.IndexDocument, http.StatusMovedPermanently)
}

func (h *Handler) handleHead(w http.ResponseWriter, r *http.Request) {
	key, err := s3proxy.KeyFromPath(r.URL.Path)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	obj, err := h.backend.Head(r.Context(), s3proxy.Request{
		Method: r.Method,
		Key:    key,
		Header: r.Header,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}

	relay(w, r, obj)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	key, err := s3proxy.KeyFromPath(r.URL.Path)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	obj, err := h.backend.Get(r.Context(), s3proxy.Request{
		Method: r.Method,
		Key:    key,
		Header: r.Header,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}

	relay(w, r, obj)
}

func (h *Handler) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", "GET, HEAD")
	WriteError(w, r, s3proxy.NewProxyError(
		"MethodNotAllowed",
		http.StatusMethodNotAllowed,
		"The specified method is not allowed against this resource.",
		nil,
	))
}

// Package server exposes the published snapshot over an HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/nao1215/ransomwatch/internal/model"
)

// Default HTTP server timeouts.
const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 2 * time.Minute
	defaultIdleTimeout  = 60 * time.Second
	shutdownTimeout     = 10 * time.Second

	// defaultRefreshTimeout bounds a manual refresh.
	defaultRefreshTimeout = 2 * time.Minute

	// maxRequestBody limits POST bodies.
	maxRequestBody = 1 << 20
)

// Monitor is the refresh state served by the API.
// *monitor.Monitor implements it.
type Monitor interface {
	Target() model.Country
	Snapshot() *model.Snapshot
	LastError() error
	Refresh(ctx context.Context) (*model.Snapshot, error)
}

// Server serves the snapshot API.
type Server struct {
	monitor   Monitor
	catalogue model.Catalogue
	metrics   http.Handler
	logger    *slog.Logger
	version   string
	router    *mux.Router

	refreshTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithCatalogue sets the countries accepted by the classify endpoint.
func WithCatalogue(cat model.Catalogue) Option {
	return func(s *Server) {
		if cat != nil {
			s.catalogue = cat
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithVersion sets the version reported by the API.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// WithRefreshTimeout bounds a refresh triggered through the API.
// Non-positive values are ignored.
func WithRefreshTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		if timeout > 0 {
			s.refreshTimeout = timeout
		}
	}
}

// New creates a Server for mon.
func New(mon Monitor, opts ...Option) *Server {
	s := &Server{
		monitor:   mon,
		catalogue: model.DefaultCatalogue(),
		logger:    slog.Default(),
		version:   "dev",
		router:    mux.NewRouter(),

		refreshTimeout: defaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// apiPrefix is the path prefix of the JSON API.
const apiPrefix = "/api/v1"

func (s *Server) routes() {
	s.router.Use(s.logRequests)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}

	// Registered on the root router: a mux subrouter answers a method
	// mismatch with 404 instead of 405.
	s.router.HandleFunc(apiPrefix+"/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	s.router.HandleFunc(apiPrefix+"/collections/{name}", s.handleCollection).Methods(http.MethodGet)
	s.router.HandleFunc(apiPrefix+"/refresh", s.handleRefresh).Methods(http.MethodPost)
	s.router.HandleFunc(apiPrefix+"/classify", s.handleClassify).Methods(http.MethodPost)
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// logRequests logs every request at debug level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", time.Since(start),
		)
	})
}

// Package server exposes dependency analyses over HTTP.
//
// Routes:
//
//	GET /healthz
//	GET /metrics                                  (when enabled)
//	GET /api/popular
//	GET /repo/{site}/{qual}/{name}/status.json    (?path=sub/dir)
//	GET /repo/{site}/{qual}/{name}/shield.json    (?path=sub/dir)
//	GET /crate/{name}                             redirects to the latest release
//	GET /crate/{name}/{version}/status.json       ("latest" is accepted as version)
//	GET /crate/{name}/{version}/shield.json
//
// shield.json follows the shields.io endpoint schema and always answers
// 200 so badges render even when an analysis fails.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/depstatus/pkg/deps"
	"github.com/matzehuels/depstatus/pkg/engine"
)

// Analyzer is the engine surface the server needs.
type Analyzer interface {
	AnalyzeRepositoryDependencies(ctx context.Context, repo deps.RepositoryPath, subpath string) (*engine.Outcome, error)
	AnalyzePackageDependencies(ctx context.Context, path deps.PackagePath) (*engine.Outcome, error)
	FindLatestReleaseMatching(ctx context.Context, name deps.PackageName, req deps.Requirement) (*deps.Release, error)
	GetPopularRepositories(ctx context.Context) ([]deps.Repository, error)
	GetPopularPackages(ctx context.Context) ([]deps.PackagePath, error)
}

var _ Analyzer = (*engine.Engine)(nil)

// popularLimit caps each list returned by /api/popular.
const popularLimit = 15

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAnalysisTimeout bounds each analysis. Zero leaves only the client's
// deadline.
func WithAnalysisTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// WithMetrics mounts the Prometheus handler at /metrics.
func WithMetrics() Option {
	return func(s *Server) { s.metrics = true }
}

// Server is an http.Handler serving analysis results.
type Server struct {
	engine  Analyzer
	logger  *log.Logger
	timeout time.Duration
	metrics bool
	router  chi.Router
}

// New creates a Server backed by a.
func New(a Analyzer, opts ...Option) *Server {
	s := &Server{engine: a, logger: log.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// ServeHTTP satisfies the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Get("/healthz", s.handleHealth)
	if s.metrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Get("/api/popular", s.handlePopular)

	r.Route("/repo/{site}/{qual}/{name}", func(r chi.Router) {
		r.Get("/status.json", s.handleRepoStatus)
		r.Get("/shield.json", s.handleRepoShield)
	})
	r.Route("/crate/{name}", func(r chi.Router) {
		r.Get("/", s.handleCrateRedirect)
		r.Get("/{version}/status.json", s.handleCrateStatus)
		r.Get("/{version}/shield.json", s.handleCrateShield)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// analysisContext applies the configured analysis timeout.
func (s *Server) analysisContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(r.Context(), s.timeout)
	}
	return context.WithCancel(r.Context())
}

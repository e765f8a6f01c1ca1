// Package server exposes the hierarchy pipeline over HTTP.
//
// # Routes
//
//	POST /v1/hierarchy   build a hierarchy from the request body and render it
//	GET  /healthz        liveness and build information
//	GET  /metrics        Prometheus metrics
//
// The request body is a document in JSON, YAML or TOML, selected by the
// Content-Type header. Query parameters mirror the CLI flags: format,
// level, strategy, parallel, direction, detailed, hide_cross_edges and
// verify.
//
// # Errors
//
// Failures are returned as JSON {"error", "code", "request_id"}. Invalid
// membership tables answer 422, malformed documents and options 400, and an
// unsupported content type 415.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/multilevel/pkg/cache"
	"github.com/matzehuels/multilevel/pkg/metrics"
	"github.com/matzehuels/multilevel/pkg/pipeline"
)

// DefaultMaxBodyBytes bounds request bodies when Config.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 8 << 20

// Config configures a Server.
type Config struct {
	Runner       *pipeline.Runner
	Metrics      *metrics.Registry // nil uses metrics.DefaultRegistry()
	Logger       *log.Logger       // nil uses the runner's logger
	MaxBodyBytes int64
	Defaults     pipeline.Options // applied before query parameters
}

// Server serves the HTTP API.
type Server struct {
	runner   *pipeline.Runner
	metrics  *metrics.Registry
	logger   *log.Logger
	maxBody  int64
	defaults pipeline.Options
	started  time.Time
	router   chi.Router
}

// New creates a server. Artifact cache keys of the runner are scoped with
// "server:" so they never collide with entries written by the CLI.
func New(cfg Config) *Server {
	runner := cfg.Runner
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	runner = &pipeline.Runner{
		Cache:  runner.Cache,
		Keyer:  cache.NewScopedKeyer(runner.Keyer, "server:"),
		Logger: runner.Logger,
	}

	s := &Server{
		runner:   runner,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		maxBody:  cfg.MaxBodyBytes,
		defaults: cfg.Defaults,
		started:  time.Now(),
	}
	if s.metrics == nil {
		s.metrics = metrics.DefaultRegistry()
	}
	if s.logger == nil {
		s.logger = runner.Logger
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBodyBytes
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Post("/hierarchy", s.buildHierarchy)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", r.Method+" not allowed on "+r.URL.Path)
	})
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully, giving in-flight requests up to ten seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// Package server exposes the layout pipeline over HTTP.
//
// # Routes
//
//	POST /api/v1/layout      lay out diagram text, returns the packed graph
//	POST /api/v1/parse       parse diagram text, returns the flat graph
//	GET  /api/v1/algorithms  list algorithms with their default options
//	GET  /healthz            liveness and build information
//	GET  /metrics            Prometheus metrics, when a registry is configured
//
// Every response carries an X-Request-ID header. Errors are JSON objects
// of the form {"code": ..., "message": ..., "request_id": ...}.
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flowpack/pkg/config"
	"github.com/matzehuels/flowpack/pkg/observability/prom"
	"github.com/matzehuels/flowpack/pkg/pipeline"
)

// shutdownTimeout bounds graceful shutdown after the context ends.
const shutdownTimeout = 10 * time.Second

// Server serves the HTTP API.
type Server struct {
	// Runner executes pipeline requests. Required.
	Runner *pipeline.Runner

	// Defaults seed every request; request fields override them.
	Defaults pipeline.Options

	// Logger receives request logs. Nil discards.
	Logger *log.Logger

	// Metrics, if set, is served at /metrics.
	Metrics *prom.Registry
}

// New returns a server for runner.
func New(runner *pipeline.Runner, defaults pipeline.Options, logger *log.Logger) *Server {
	return &Server{Runner: runner, Defaults: defaults, Logger: logger}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Post("/parse", s.handleParse)
		r.Get("/algorithms", s.handleAlgorithms)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errNotFound(r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errMethod(r.Method, r.URL.Path))
	})
	return r
}

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger().Info("listening", "addr", cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger().Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logger() *log.Logger {
	if s.Logger == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return s.Logger
}

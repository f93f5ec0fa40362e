// Package api serves kagome analyses over HTTP.
//
// Routes:
//
//	GET    /healthz                        build info
//	POST   /v1/analyses                    analyse the mesh document in the body
//	GET    /v1/analyses                    list stored analyses, newest first
//	GET    /v1/analyses/{id}               full analysis document
//	DELETE /v1/analyses/{id}               remove an analysis
//	GET    /v1/analyses/{id}/strands.dot   strand graph as Graphviz DOT
//	GET    /v1/analyses/{id}/strands.svg   strand graph as SVG
//
// POST accepts the query parameters k (subdivision level; converts the body
// from a coarse triangle mesh), convert, frames, and refresh.
//
// Errors are JSON objects {"error": {"code": ..., "message": ...}} with the
// HTTP status derived from the error code.
package api

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/kagome/pkg/pipeline"
	"github.com/matzehuels/kagome/pkg/store"
)

const shutdownTimeout = 10 * time.Second

// Server wires the pipeline runner and the analysis store to HTTP routes.
type Server struct {
	runner   *pipeline.Runner
	store    store.Store
	defaults pipeline.AnalysisConfig
	cfg      pipeline.ServerConfig
	logger   *log.Logger
	router   chi.Router
}

// New returns a server. Analysis defaults fill options the request leaves
// unset.
func New(runner *pipeline.Runner, st store.Store, cfg pipeline.Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner:   runner,
		store:    st,
		defaults: cfg.Analysis,
		cfg:      cfg.Server,
		logger:   logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1/analyses", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Get("/", s.handleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Get("/strands.dot", s.handleStrandsDOT)
			r.Get("/strands.svg", s.handleStrandsSVG)
		})
	})
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Package api serves the pipeline over HTTP.
//
// Routes:
//
//	GET    /healthz
//	GET    /metrics
//	POST   /v1/walk                  knit order of the posted set
//	POST   /v1/layout                layout JSON of the posted set
//	POST   /v1/render?format=...     rendered chart of the posted set
//	POST   /v1/patterns              store a set, returns its id
//	GET    /v1/patterns              list stored sets
//	GET    /v1/patterns/{id}         source document of a stored set
//	GET    /v1/patterns/{id}/layout  layout JSON of a stored set
//	GET    /v1/patterns/{id}/render  rendered chart of a stored set
//	DELETE /v1/patterns/{id}
//
// Posted sets are JSON unless the Content-Type names YAML or PNG. Every
// pattern endpoint takes pattern=<id> or index=<n> to pick a pattern.
package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"reflect"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/stitchgraph/pkg/pipeline"
	"github.com/matzehuels/stitchgraph/pkg/storage"
)

// MaxBodyBytes bounds uploaded documents.
const MaxBodyBytes = 10 << 20

// Config wires a Server.
type Config struct {
	Runner *pipeline.Runner
	Store  storage.Store
	Logger *log.Logger
	// Gatherer backs /metrics. Nil serves the default registry.
	Gatherer prometheus.Gatherer
}

// Server is the HTTP front end of the pipeline.
type Server struct {
	runner   *pipeline.Runner
	store    storage.Store
	logger   *log.Logger
	validate *validator.Validate
	router   chi.Router
}

// New builds a server and its routes.
func New(cfg Config) *Server {
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	if cfg.Store == nil {
		cfg.Store = storage.NewMemoryStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string { return f.Tag.Get("query") })

	s := &Server{
		runner:   cfg.Runner,
		store:    cfg.Store,
		logger:   cfg.Logger,
		validate: v,
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/walk", s.handleWalk)
		r.Post("/layout", s.handleLayout)
		r.Post("/render", s.handleRender)

		r.Route("/patterns", func(r chi.Router) {
			r.Post("/", s.handleCreate)
			r.Get("/", s.handleList)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGet)
				r.Delete("/", s.handleDelete)
				r.Get("/layout", s.handleStoredLayout)
				r.Get("/render", s.handleStoredRender)
			})
		})
	})

	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

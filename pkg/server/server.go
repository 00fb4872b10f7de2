// Package server exposes the render pipeline and the entry store over HTTP.
//
// # Routes
//
//	GET  /ping             liveness probe, "OK"
//	GET  /entries          {ok, entries:[{id,title}]}, optional ?match=<glob>
//	GET  /entries/{id}     {ok, entry}
//	PUT  /entries/{id}     store an entry document
//	POST /render           render {entryId, template?, width?, height?, watermark?}
//	GET  /render/{id}      render with defaults and redirect to the image
//	GET  /media/{name}     serve a rendered image
//
// Renders are bounded by a weighted semaphore. A request waits for a slot
// while its context is live; once a render has started it runs to completion
// even if the client disconnects.
package server

import (
	"context"
	"errors"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/semaphore"

	"github.com/matzehuels/codexrender/pkg/entry"
	"github.com/matzehuels/codexrender/pkg/observability"
	"github.com/matzehuels/codexrender/pkg/pipeline"
	"github.com/matzehuels/codexrender/pkg/sink"
)

// Options configures a Server.
type Options struct {
	// Defaults supplies template, size and watermark for fields a request
	// leaves out. EntryID is ignored.
	Defaults pipeline.Config

	// MaxConcurrent bounds simultaneous renders. Values <= 0 mean 1.
	MaxConcurrent int

	// MediaPrefix is the path rendered files are served under.
	MediaPrefix string

	Logger *log.Logger
}

// Server is the HTTP API.
type Server struct {
	runner   *pipeline.Runner
	entries  entry.Store
	media    sink.Sink
	defaults pipeline.Config
	sem      *semaphore.Weighted
	logger   *log.Logger
	router   chi.Router
}

// New builds a server around runner. The runner's entry store and sink are
// also used for the entry and media routes.
func New(runner *pipeline.Runner, opts Options) *Server {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	if opts.MediaPrefix == "" {
		opts.MediaPrefix = sink.DefaultPrefix
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	opts.Defaults.SetDefaults()

	s := &Server{
		runner:   runner,
		entries:  runner.Entries,
		media:    runner.Sink,
		defaults: opts.Defaults,
		sem:      semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		logger:   opts.Logger,
	}
	s.router = s.routes(opts.MediaPrefix)
	return s
}

func (s *Server) routes(mediaPrefix string) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(allowCORS)

	r.Get("/ping", s.handlePing)

	r.Route("/entries", func(r chi.Router) {
		r.Get("/", s.handleListEntries)
		r.Get("/{id}", s.handleGetEntry)
		r.Put("/{id}", s.handlePutEntry)
	})

	r.Post("/render", s.handleRender)
	r.Get("/render/{id}", s.handleRenderRedirect)

	r.Get(path.Join("/", strings.Trim(mediaPrefix, "/"), "{name}"), s.handleMedia)
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully, giving in-flight requests up to 30 seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// logRequests logs one line per request and feeds the HTTP hooks.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.HTTP().OnRequest(r.Context(), r.Method, route)
		observability.HTTP().OnResponse(r.Context(), r.Method, route, status, time.Since(start))
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func allowCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

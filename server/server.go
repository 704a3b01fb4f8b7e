// Package server exposes odfpack over HTTP: validation, detection, single and
// batch conversion, conversion history, and the odf MCP tools on /mcp.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/odfpack/history"
	"github.com/hazyhaar/odfpack/odf"
	"github.com/hazyhaar/odfpack/render"
	"github.com/hazyhaar/odfpack/shield"
)

// Version is reported by /health and the MCP implementation.
const Version = "0.1.0"

// Server wires the converter and the history store to HTTP routes.
type Server struct {
	cfg      *Config
	conv     *odf.Converter
	store    *history.Store
	renderer *render.Renderer
	logger   *slog.Logger
	limiter  *shield.RateLimiter
}

// New creates a Server. cfg must have passed Validate. store may be nil, in
// which case nothing is recorded and the /v1/conversions routes are not
// mounted.
func New(cfg *Config, conv *odf.Converter, store *history.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		conv:     conv,
		store:    store,
		renderer: render.New(),
		logger:   logger,
	}
	if cfg.RateLimit.PerMinute > 0 {
		s.limiter = shield.NewRateLimiter(shield.RateLimitConfig{
			MaxRequests: cfg.RateLimit.PerMinute,
			Window:      time.Minute,
		}, "/v1/convert")
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	for _, mw := range shield.DefaultStack(s.cfg.MaxBatchBytes()) {
		r.Use(mw)
	}

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if len(s.cfg.BasicAuth) > 0 {
			r.Use(basicAuth(s.cfg.BasicAuth))
		}
		if s.limiter != nil {
			r.Use(s.limiter.Middleware)
		}

		r.Route("/v1", func(r chi.Router) {
			r.Post("/validate", s.handleValidate)
			r.Post("/detect", s.handleDetect)
			r.Post("/convert", s.handleConvert)
			r.Post("/convert/batch", s.handleBatch)

			if s.store == nil {
				return
			}
			r.Route("/conversions", func(r chi.Router) {
				r.Get("/", s.handleListConversions)
				r.Delete("/", s.handleDeleteAll)
				r.Get("/stats", s.handleStats)
				r.Get("/{id}", s.handleGetConversion)
				r.Get("/{id}/download", s.handleDownload)
				r.Delete("/{id}", s.handleDeleteConversion)
			})
		})

		if s.cfg.MCP {
			r.Handle("/mcp", s.mcpHandler())
		}
	})
	return r
}

func (s *Server) mcpHandler() http.Handler {
	srv := mcp.NewServer(&mcp.Implementation{Name: "odfpack", Version: Version}, nil)
	s.conv.RegisterMCP(srv)
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return srv }, nil)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if s.limiter != nil {
		s.limiter.StartGC(ctx.Done(), 5*time.Minute)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "listen", s.cfg.Listen, "mcp", s.cfg.MCP)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/bizlens/bizlens/internal/config"
	"github.com/bizlens/bizlens/internal/server/handlers"
	servermw "github.com/bizlens/bizlens/internal/server/middleware"
)

// Server is the HTTP surface over the orchestrator.
type Server struct {
	router *chi.Mux
	server *http.Server
	cfg    config.ServerConfig
	logger *zap.Logger
}

// New wires the router, middleware, and routes.
func New(cfg config.ServerConfig, handler *handlers.Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(servermw.RequestID)
	r.Use(servermw.RequestLogger(logger))
	r.Use(servermw.Recovery(logger))

	r.Get("/health", handler.Health)
	r.Get("/version", handler.VersionInfo)
	r.Get("/status", handler.Status)
	r.Post("/v1/request", handler.Request)
	r.Post("/v1/requests", handler.ParallelRequests)

	return &Server{
		router: r,
		cfg:    cfg,
		logger: logger,
	}
}

// Start begins serving and blocks until the listener closes.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	s.logger.Info("starting HTTP server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

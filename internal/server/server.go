// Package server sets up the HTTP server, router, and all route definitions.
//
// DEPENDENCY INJECTION FLOW:
// main.go loads config.Config and builds the logger, then:
//
//	Server.New() creates: sqlite.DB → services → handlers → routes
//
// This is the "composition root": all dependencies are wired in one place
// (New/setupRoutes) rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sakif/snippets/internal/auth"
	"github.com/sakif/snippets/internal/config"
	"github.com/sakif/snippets/internal/handler"
	"github.com/sakif/snippets/internal/highlight"
	"github.com/sakif/snippets/internal/middleware"
	sqliteRepo "github.com/sakif/snippets/internal/repository/sqlite"
	"github.com/sakif/snippets/internal/service"
)

// shutdownTimeout is how long in-flight requests get to finish.
const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection. Start closes it on shutdown to
// flush the WAL and release the file lock.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	tokens *auth.TokenService // nil when no JWT secret is configured
}

// New opens the database and wires every layer.
//
// IMPORT ALIAS:
// repository/sqlite is imported as `sqliteRepo` so it is not confused with
// the modernc.org/sqlite driver package.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s, err := newWithDB(cfg, logger, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func newWithDB(cfg config.Config, logger *slog.Logger, db *sqliteRepo.DB) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if cfg.JWTSecret != "" {
		tokens, err := auth.NewTokenService(cfg.JWTSecret)
		if err != nil {
			return nil, fmt.Errorf("creating token service: %w", err)
		}
		s.tokens = tokens
	} else {
		logger.Warn("jwt_secret not set, bearer tokens are ignored")
	}

	s.setupRoutes()
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /snippets                  → List snippets
// POST   /snippets                  → Create snippet
// GET    /snippets/{id}             → Get one snippet
// PUT    /snippets/{id}             → Partial update (PATCH too)
// DELETE /snippets/{id}             → Delete snippet
// GET    /snippets/{id}/highlight   → Stored HTML rendering
// GET    /users                     → List users
// GET    /users/{id}                → Get one user
// GET    /healthz                   → Database ping
// GET    /metrics                   → Prometheus exposition
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID  assigns a unique ID to each request
// 2. RealIP     extracts the client IP from proxy headers
// 3. Logger     logs each request with timing info
// 4. Metrics    counts requests per route
// 5. Recoverer  turns panics into 500s
// 6. Identify   reads an optional bearer token
func (s *Server) setupRoutes() {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(registry)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(metrics.Instrument)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(auth.Identify(s.tokens))

	// DEPENDENCY CHAIN:
	//   s.db implements both repository interfaces
	//   services receive the interfaces, handlers receive the services
	renderer := highlight.New()
	snippetService := service.NewSnippetService(s.db, s.db, renderer, s.logger)
	userService := service.NewUserService(s.db, auth.NewPasswordService(), s.logger)

	snippetHandler := handler.NewSnippetHandler(snippetService, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	s.router.Route("/snippets", func(r chi.Router) {
		r.Get("/", snippetHandler.HandleList)
		r.Post("/", snippetHandler.HandleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", snippetHandler.HandleGet)
			r.Put("/", snippetHandler.HandleUpdate)
			r.Patch("/", snippetHandler.HandleUpdate)
			r.Delete("/", snippetHandler.HandleDelete)
			r.Get("/highlight", snippetHandler.HandleHighlight)
		})
	})

	s.router.Route("/users", func(r chi.Router) {
		r.Get("/", userHandler.HandleList)
		r.Get("/{id}", userHandler.HandleGet)
	})

	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Method(http.MethodGet, "/metrics", metrics.Handler())
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

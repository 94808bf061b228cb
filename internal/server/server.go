// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer — it connects handlers, middleware, and
// routes. The composition root in cmd/server constructs the storage backend,
// OAuth provider, and session service, and hands them in here; the server
// decides which URL patterns map to which handlers and what middleware runs
// where.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/food-diary/internal/auth"
	"github.com/sakif/food-diary/internal/handler"
	"github.com/sakif/food-diary/internal/middleware"
	"github.com/sakif/food-diary/internal/repository"
	"github.com/sakif/food-diary/internal/service"
)

// Config holds server configuration.
type Config struct {
	Port      int
	StaticDir string
}

// Server represents the HTTP server and its dependencies.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
}

// New creates a Server and wires the full dependency chain:
//
//	repo → EntryService → EntryHandler
//	provider + sessions + repo → AuthHandler
//
// Handlers never touch storage directly and the service never touches HTTP.
func New(
	cfg Config,
	logger *slog.Logger,
	repo repository.Repository,
	provider *auth.Provider,
	sessions *auth.Sessions,
) *Server {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}
	s.setupRoutes(repo, provider, sessions)
	return s
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /                  → SPA index (HTML)
//	GET    /static/*          → static assets
//	GET    /auth/login        → redirect to the OAuth provider
//	GET    /auth/callback     → complete the OAuth flow
//	GET    /auth/logout       → clear the session
//	GET    /api/user          → authentication state (optional auth)
//	GET    /api/entries       → list entries          (auth required)
//	POST   /api/entries       → create entry          (auth required)
//	PUT    /api/entries/{id}  → update entry          (auth required)
//	DELETE /api/entries/{id}  → delete entry          (auth required)
func (s *Server) setupRoutes(
	repo repository.Repository,
	provider *auth.Provider,
	sessions *auth.Sessions,
) {
	// Global middleware — runs on every request, in order.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// Static assets and the single-page client.
	fileServer := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(s.config.StaticDir, "index.html"))
	})

	authHandler := handler.NewAuthHandler(provider, sessions, repo, s.logger)
	s.router.Get("/auth/login", authHandler.HandleLogin)
	s.router.Get("/auth/callback", authHandler.HandleCallback)
	s.router.Get("/auth/logout", authHandler.HandleLogout)

	entryService := service.NewEntryService(repo, s.logger)
	entryHandler := handler.NewEntryHandler(entryService, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.With(auth.OptionalAuth(sessions)).Get("/user", authHandler.HandleWhoami)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(sessions))
			r.Get("/entries", entryHandler.HandleList)
			r.Post("/entries", entryHandler.HandleCreate)
			r.Put("/entries/{id}", entryHandler.HandleUpdate)
			r.Delete("/entries/{id}", entryHandler.HandleDelete)
		})
	})
}

// Handler exposes the router, mainly for tests that drive the full stack
// with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and handles graceful shutdown:
// stop accepting connections, then give in-flight requests 30 seconds.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

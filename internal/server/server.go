// Package server wires the dependency graph and owns the HTTP lifecycle.
//
// This is the composition root: main.go hands over a Config, and New builds
//
//	sqlite.DB → repositories
//	          → AuthService (bcrypt + JWT)      → AuthHandler
//	          → AnalysisService (fetch + score) → AnalysisHandler
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services, and nothing below the handler knows
// HTTP exists.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/codelens/internal/auth"
	"github.com/sakif/codelens/internal/handler"
	"github.com/sakif/codelens/internal/middleware"
	sqliteRepo "github.com/sakif/codelens/internal/repository/sqlite"
	"github.com/sakif/codelens/internal/resolver"
	"github.com/sakif/codelens/internal/scorer"
	"github.com/sakif/codelens/internal/service"
)

// Config holds server configuration, loaded from the environment in main.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string

	// GitHub OAuth is optional. When ClientID is empty the OAuth routes
	// are not registered and password auth is the only way in.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Server owns the router and the resources that must be released on
// shutdown (the database connection).
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New builds the full dependency graph and configures all routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and the route table.
//
// ROUTE STRUCTURE:
//
//	POST /api/auth/register      → create account + session
//	POST /api/auth/login         → password login
//	POST /api/auth/logout        → clear session cookie
//	GET  /api/me                 → current user profile (auth)
//	POST /api/analyses           → analyse a GitHub file URL (auth)
//	GET  /api/analyses           → report history, newest first (auth)
//	GET  /api/analyses/{id}      → single report (auth)
//	GET  /auth/github/login      → OAuth redirect (if configured)
//	GET  /auth/github/callback   → OAuth completion (if configured)
//
// Middleware order matters: RequestID and RealIP run before the logger so
// log lines carry the right metadata; Recoverer sits outermost of the
// custom stack so a panicking handler still returns a 500.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	}

	// The dependency chain: s.db implements both repository interfaces;
	// services receive the interfaces, handlers receive the services.
	authService := service.NewAuthService(s.db, tokens, auth.NewPasswordService(), s.logger)
	analysisService := service.NewAnalysisService(
		s.db,
		s.db,
		resolver.NewFetcher(http.DefaultClient),
		scorer.New(scorer.DefaultConfig()),
		s.logger,
	)

	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	analysisHandler := handler.NewAnalysisHandler(analysisService, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)

		// Protected routes. RequireAuth validates the cookie and puts the
		// user ID in the request context.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/me", authHandler.HandleMe)
			r.Post("/analyses", analysisHandler.HandleAnalyze)
			r.Get("/analyses", analysisHandler.HandleList)
			r.Get("/analyses/{id}", analysisHandler.HandleGetByID)
		})
	})

	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30s, and
// close the database (flushes the WAL, releases the file lock).
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

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
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

// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer: it connects the store, services,
// handlers, middleware, and routes, and owns the resources that must be
// released on shutdown (the database pool and the access log file).
//
// DEPENDENCY INJECTION FLOW:
//
//	main.go loads config.Config → passed to server.New
//	server.New creates: sqlite.DB → services → handlers → routes
//
// This is the "composition root" pattern: all dependencies are wired
// in one place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sakif/quoter/internal/auth"
	"github.com/sakif/quoter/internal/config"
	"github.com/sakif/quoter/internal/handler"
	"github.com/sakif/quoter/internal/middleware"
	sqliteRepo "github.com/sakif/quoter/internal/repository/sqlite"
	"github.com/sakif/quoter/internal/service"
	"github.com/sakif/quoter/internal/view"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection and, when enabled, the access log
// file. Close releases both; Start calls it once the server has drained.
type Server struct {
	router    *chi.Mux
	config    *config.Config
	logger    *slog.Logger
	db        *sqliteRepo.DB
	accessLog io.WriteCloser // nil when the access log is disabled
}

// New creates a Server from cfg.
//
// cfg.Auth.SessionSecret must already be set; main generates an ephemeral
// one when the configuration leaves it empty.
//
// IMPORT ALIAS:
// repository/sqlite is imported as `sqliteRepo` so it can't be confused
// with the sqlite driver package.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if cfg.AccessLog.Enabled {
		s.accessLog = &lumberjack.Logger{
			Filename:   cfg.AccessLog.Path,
			MaxSize:    cfg.AccessLog.MaxSizeMB,
			MaxBackups: cfg.AccessLog.MaxBackups,
			MaxAge:     cfg.AccessLog.MaxAgeDays,
			Compress:   cfg.AccessLog.Compress,
		}
	}

	if err := s.setupRoutes(); err != nil {
		s.Close() // don't leak the pool if wiring fails
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /                              → feed of quotes
// GET    /quotes/{id}                   → one quote and its comments
// POST   /quotes                        → add a quote
// POST   /quotes/{id}/comments          → add a comment (sign-in required)
// POST   /signin                        → sign in, or sign up on first use
// GET    /signout                       → clear the identity cookie
// GET    /healthz                       → database reachability
// GET    /static/*                      → static files (CSS, images)
//
// MIDDLEWARE ORDER MATTERS:
//  1. RequestID, RealIP, Recoverer (chi)
//  2. Logger: one slog line per request
//  3. RequestSize: caps the body before anything reads it
//  4. AccessLog: parses and records the form (only when enabled)
//  5. ResolveSession: puts the signed-in user ID, if any, into the context
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.Auth.SessionSecret, s.config.Auth.SessionTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	sessions := auth.NewSessions(tokens, s.config.Auth.CookieSecure)

	renderer, err := view.New()
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.RequestSize(s.config.Server.MaxRequestSize))
	if s.accessLog != nil {
		s.router.Use(middleware.AccessLog(s.accessLog))
	}
	s.router.Use(auth.ResolveSession(sessions, s.logger))

	// === Static Files ===
	// GET /static/style.css → serves {StaticDir}/style.css
	fileServer := http.FileServer(http.Dir(s.config.Server.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// === Page Routes ===
	// DEPENDENCY CHAIN:
	//   s.db (sqlite.DB) → implements the repository interfaces
	//   services receive the interfaces, handlers receive the services
	quoteService := service.NewQuoteService(s.db, s.db, s.logger)
	commentService := service.NewCommentService(s.db, s.logger)
	authService := service.NewAuthService(s.db, auth.NewPasswordService(s.config.Auth.BcryptCost), s.logger)

	quoteHandler := handler.NewQuoteHandler(quoteService, commentService, renderer, s.logger)
	authHandler := handler.NewAuthHandler(authService, sessions, s.logger)

	s.router.Get("/", quoteHandler.HandleIndex)
	s.router.Route("/quotes", func(r chi.Router) {
		r.Post("/", quoteHandler.HandleCreate)
		r.Get("/{id:[0-9]+}", quoteHandler.HandleShow)
		r.Post("/{id:[0-9]+}/comments", quoteHandler.HandleComment)
	})
	s.router.Post("/signin", authHandler.HandleSignIn)
	s.router.Get("/signout", authHandler.HandleSignOut)
	s.router.Get("/healthz", s.handleHealth)

	return nil
}

// handleHealth reports whether the database answers.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

// ServeHTTP lets the Server be used directly as an http.Handler (and by httptest).
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases the database and the access log file.
func (s *Server) Close() error {
	var errs []error
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing database: %w", err))
	}
	if s.accessLog != nil {
		if err := s.accessLog.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing access log: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Start starts the HTTP server and blocks until SIGINT/SIGTERM or a
// listener failure.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (server.shutdown_timeout)
//  3. Close the database (flushes WAL, releases the file lock) and the access log
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("closing resources", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         s.config.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("database", s.config.DB.Path),
			slog.Bool("access_log", s.accessLog != nil),
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

		ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

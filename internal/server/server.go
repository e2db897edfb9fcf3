// Package server wires the dependency graph and the routes, and runs the
// HTTP server with graceful shutdown.
//
// DEPENDENCY FLOW:
//
//	main.go:  config → logger → sqlite.DB → inference.Client → server.New
//	New:      DB → services → handlers → chi routes
//
// Handlers only see services, and services only see repository interfaces.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/codefixer/internal/auth"
	"github.com/sakif/codefixer/internal/handler"
	"github.com/sakif/codefixer/internal/inference"
	"github.com/sakif/codefixer/internal/metrics"
	"github.com/sakif/codefixer/internal/middleware"
	sqliteRepo "github.com/sakif/codefixer/internal/repository/sqlite"
	"github.com/sakif/codefixer/internal/service"
)

// shutdownGrace is how long in-flight requests get after SIGINT/SIGTERM.
const shutdownGrace = 30 * time.Second

// Config holds what the server needs beyond its collaborators.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr          string
	JWTSecret     string
	SessionTTL    time.Duration
	SecureCookies bool

	// GitHub is nil when GitHub sign-in is disabled.
	GitHub handler.GitHubAuthenticator

	// Web holds templates/ and static/.
	Web fs.FS

	// PasswordCost overrides the bcrypt cost; zero means the default.
	PasswordCost int
}

// Deps are the long-lived collaborators built by main.
type Deps struct {
	DB        *sqliteRepo.DB
	Completer inference.Completer
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Server is the HTTP server and the resources it owns.
type Server struct {
	router *chi.Mux
	config Config
	deps   Deps
	logger *slog.Logger
}

// New builds the services and handlers and registers every route.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.DB == nil || deps.Completer == nil {
		return nil, errors.New("server: database and completer are required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		deps:   deps,
		logger: deps.Logger,
	}
	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("server: setting up routes: %w", err)
	}
	return s, nil
}

// Handler returns the root handler. Tests drive it with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures middleware and routes.
//
// ROUTES:
//
//	GET|POST /                        fix page
//	GET|POST /suggest                 suggest page
//	POST     /login                   password login
//	GET      /logout                  clear session
//	GET|POST /register                registration form
//	GET      /auth/github/login       GitHub sign-in (when configured)
//	GET      /auth/github/callback
//	GET      /past                    history page             (signed in)
//	POST     /past/{id}/delete        delete history entry     (signed in)
//	GET      /api/languages           language registry
//	GET      /api/history             history JSON             (signed in)
//	GET      /api/history/{id}
//	DELETE   /api/history/{id}
//	GET      /metrics                 Prometheus
//	GET      /healthz
//	GET      /static/*
//
// Middleware order: request ID → real IP → metrics → logging → panic
// recovery → session.
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.SessionTTL)
	if err != nil {
		return err
	}
	passwords := auth.NewPasswordService()
	if s.config.PasswordCost > 0 {
		passwords = auth.NewPasswordServiceWithCost(s.config.PasswordCost)
	}

	renderer, err := handler.NewRenderer(s.config.Web, s.config.GitHub != nil, s.logger)
	if err != nil {
		return err
	}
	static, err := fs.Sub(s.config.Web, "static")
	if err != nil {
		return fmt.Errorf("static assets: %w", err)
	}

	assistSvc := service.NewAssistService(s.deps.Completer, s.deps.DB, s.deps.Metrics, s.logger)
	historySvc := service.NewHistoryService(s.deps.DB, s.logger)
	authSvc := service.NewAuthService(s.deps.DB, tokens, passwords, s.logger)

	assistHandler := handler.NewAssistHandler(assistSvc, renderer, s.logger)
	historyHandler := handler.NewHistoryHandler(historySvc, renderer, s.logger)
	authHandler := handler.NewAuthHandler(authSvc, s.config.GitHub, renderer, tokens.TTL(), s.config.SecureCookies, s.logger)
	apiHandler := handler.NewAPIHandler(s.deps.DB, s.logger)

	r := s.router
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Metrics(s.deps.Metrics))
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(auth.OptionalAuth(tokens))

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	r.Handle("/metrics", s.deps.Metrics.Handler())
	r.Get("/healthz", apiHandler.HandleHealth)

	r.Get("/", assistHandler.HandleFix)
	r.Post("/", assistHandler.HandleFix)
	r.Get("/suggest", assistHandler.HandleSuggest)
	r.Post("/suggest", assistHandler.HandleSuggest)

	r.Post("/login", authHandler.HandleLogin)
	r.Get("/logout", authHandler.HandleLogout)
	r.Get("/register", authHandler.HandleRegisterPage)
	r.Post("/register", authHandler.HandleRegister)
	if s.config.GitHub != nil {
		r.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		r.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Get("/past", historyHandler.HandlePast)
		r.Post("/past/{id}/delete", historyHandler.HandleDelete)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/languages", apiHandler.HandleLanguages)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuthJSON)
			r.Get("/history", historyHandler.HandleList)
			r.Get("/history/{id}", historyHandler.HandleGet)
			r.Delete("/history/{id}", historyHandler.HandleDeleteJSON)
		})
	})

	return nil
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully and
// closes the database.
func (s *Server) Start() error {
	defer s.deps.DB.Close()

	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Inference calls can take tens of seconds, so no write timeout:
		// the provider call itself bounds the response time.
		IdleTimeout: 60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", s.config.Addr),
			slog.Bool("github", s.config.GitHub != nil),
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

		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

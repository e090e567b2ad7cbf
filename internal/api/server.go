// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/classraise/classraise/internal/core/category"
	"github.com/classraise/classraise/internal/core/project"
	"github.com/classraise/classraise/internal/donation"
	"github.com/classraise/classraise/internal/donor"
	"github.com/classraise/classraise/internal/platform/config"
	"github.com/classraise/classraise/internal/platform/constants"
	"github.com/classraise/classraise/internal/platform/middleware"
	"github.com/classraise/classraise/internal/reconcile"
	"github.com/classraise/classraise/internal/users/account"
	"github.com/classraise/classraise/internal/users/auth"
	"github.com/classraise/classraise/internal/wishlist"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here — no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Auth handles authentication routes (login, register, tokens).
	Auth *auth.Handler

	// Account handles the authenticated user's own account and sessions.
	Account *account.Handler

	// Donor handles the authenticated user's donor profile.
	Donor *donor.Handler

	// Wishlist handles saved-project membership.
	Wishlist *wishlist.Handler

	// Reconcile assembles the per-identity donor view for page renders.
	Reconcile *reconcile.Handler

	// Donation records and lists contributions.
	Donation *donation.Handler

	// Project handles the classroom project catalogue.
	Project *project.Handler

	// Category handles project categories.
	Category *category.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.Authenticate(verifier))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Application API
	// Domain-specific route groups mounted under versioned prefix.
	r.Route("/api/v1", func(api chi.Router) {
		api.Mount("/auth", h.Auth.Routes())

		// The /me subtree is the caller's own state: account, donor profile,
		// wishlist, and the reconciled snapshot.
		api.Route("/me", func(me chi.Router) {
			me.Mount("/donor", h.Donor.Routes())
			me.Mount("/wishlist", h.Wishlist.Routes())
			me.Mount("/reconcile", h.Reconcile.Routes())
			me.Mount("/", h.Account.Routes())
		})

		api.Mount("/donations", h.Donation.Routes())
		api.Route("/projects", h.Project.RegisterRoutes)
		api.Route("/categories", h.Category.RegisterRoutes)
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}

// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

// Command api is the entry point for the Classraise HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Connect to object storage.
//  7. Wire HTTP handlers.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/classraise/classraise/internal/api"
	"github.com/classraise/classraise/internal/core/category"
	"github.com/classraise/classraise/internal/core/project"
	"github.com/classraise/classraise/internal/donation"
	"github.com/classraise/classraise/internal/donor"
	"github.com/classraise/classraise/internal/platform/config"
	"github.com/classraise/classraise/internal/platform/constants"
	"github.com/classraise/classraise/internal/platform/migration"
	"github.com/classraise/classraise/internal/platform/objstore"
	pgstore "github.com/classraise/classraise/internal/platform/postgres"
	redisstore "github.com/classraise/classraise/internal/platform/redis"
	"github.com/classraise/classraise/internal/platform/sec"
	"github.com/classraise/classraise/internal/reconcile"
	"github.com/classraise/classraise/internal/users/account"
	"github.com/classraise/classraise/internal/users/auth"
	"github.com/classraise/classraise/internal/users/identity"
	"github.com/classraise/classraise/internal/wishlist"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("[Classraise] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Object Storage ─────────────────────────────────────────────────
	images, err := objstore.New(startupCtx, objstore.Options{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		PublicURL: cfg.S3PublicURL,
	}, log)
	must(log, err, "connect to object storage")

	// ── 7. Token Service ──────────────────────────────────────────────────
	jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	// ── 8. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 9. Domain Wiring ──────────────────────────────────────────────────

	// Identity: one row in users.account per external auth identity.
	userRepository := identity.NewPostgresRepository(pool)
	identityService := identity.NewService(userRepository, log)

	// Auth: sessions, tokens, password lifecycle.
	sessionRepository := auth.NewSessionRepository(pool)
	resetTokenRepository := auth.NewResetTokenRepository(rdb)
	authService := auth.NewService(userRepository, sessionRepository, resetTokenRepository, jwtSvc)
	authHandler := auth.NewHandler(authService)

	// Account: the caller's own profile, avatar, and device sessions.
	accountRepository := account.NewAccountRepository(pool)
	accountSessions := account.NewSessionRepository(pool)
	accountService := account.NewService(accountRepository, accountSessions, images, log)
	accountHandler := account.NewHandler(accountService)

	// Donor: profile resolution over the persistent store and hint cache.
	donorRepository := donor.NewPostgresRepository(pool)
	donorCache := donor.NewRedisCache(rdb)
	donorResolver := donor.NewResolver(donorRepository, donorCache, identityService, log)
	donorHandler := donor.NewHandler(donorResolver)

	// Catalogue: categories and classroom projects.
	categoryRepository := category.NewPostgresRepository(pool)
	categoryService := category.NewService(categoryRepository, log)
	categoryHandler := category.NewHandler(categoryService)

	projectRepository := project.NewPostgresRepository(pool)
	projectService := project.NewService(projectRepository, images, log)
	projectHandler := project.NewHandler(projectService)

	// Wishlist: saved-project membership with stale-linkage recovery.
	wishlistRepository := wishlist.NewPostgresRepository(pool)
	wishlistCache := wishlist.NewRedisCache(rdb)
	wishlistService := wishlist.NewService(wishlistRepository, wishlistCache, donorResolver, projectService, log)
	wishlistHandler := wishlist.NewHandler(wishlistService)

	// Reconcile: the per-identity donor view for page renders.
	reconcileOrchestrator := reconcile.NewOrchestrator(donorResolver, wishlistService, log)
	reconcileHandler := reconcile.NewHandler(reconcileOrchestrator)

	// Donations.
	donationRepository := donation.NewPostgresRepository(pool)
	donationService := donation.NewService(donationRepository, donorResolver, projectService, log)
	donationHandler := donation.NewHandler(donationService)

	// ── 10. HTTP Server ───────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Account:   accountHandler,
		Donor:     donorHandler,
		Wishlist:  wishlistHandler,
		Reconcile: reconcileHandler,
		Donation:  donationHandler,
		Project:   projectHandler,
		Category:  categoryHandler,
	}

	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, jwtSvc, handlers)

	// ── 11. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}

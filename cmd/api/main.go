// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Scriptorium Divinum HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire the query cache, the catalog, sessions, profiles and the admin shell.
//  7. Start HTTP server with graceful shutdown.
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

	goredis "github.com/redis/go-redis/v9"

	"github.com/taibuivan/scriptorium/internal/admin"
	"github.com/taibuivan/scriptorium/internal/api"
	"github.com/taibuivan/scriptorium/internal/catalog"
	"github.com/taibuivan/scriptorium/internal/platform/config"
	"github.com/taibuivan/scriptorium/internal/platform/constants"
	"github.com/taibuivan/scriptorium/internal/platform/migration"
	pgstore "github.com/taibuivan/scriptorium/internal/platform/postgres"
	"github.com/taibuivan/scriptorium/internal/platform/querycache"
	redisstore "github.com/taibuivan/scriptorium/internal/platform/redis"
	"github.com/taibuivan/scriptorium/internal/platform/sec"
	"github.com/taibuivan/scriptorium/internal/users/auth"
	"github.com/taibuivan/scriptorium/internal/users/profile"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// First, so startup failures are logged as JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("cache_backend", cfg.CacheBackend),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Lives until shutdown; background workers stop with it.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, cfg.DatabaseMaxConns, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, cfg.RedisPoolSize, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing_redis_client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Query Cache ────────────────────────────────────────────────────
	cache := querycache.New(newCacheStore(cfg, rdb), log)

	// ── 7. Catalog ────────────────────────────────────────────────────────
	catalogService := catalog.NewService(catalog.NewPostgresStore(pool), log)
	reader := catalog.NewReader(catalogService, cache)

	// ── 8. Sessions & Profiles ────────────────────────────────────────────
	jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	authService := auth.NewService(auth.NewAccountRepository(pool), auth.NewSessionRepository(rdb), jwtSvc, log)

	probe := profile.NewProbe(profile.NewPostgresRepository(pool), log,
		profile.WithTimeout(cfg.AdminCheckTimeout),
		profile.WithSessionChecker(authService),
	)
	unsubscribe := authService.Subscribe(probe)
	defer unsubscribe()

	// ── 9. Admin Shell ────────────────────────────────────────────────────
	adminService := admin.NewService(
		admin.NewPostgresAuthorRepository(pool),
		admin.NewPostgresBookRepository(pool),
		admin.NewPostgresCategoryStore(pool),
		admin.NewPostgresSettingsStore(pool),
		reader,
		cache,
		log,
	)

	// ── 10. Health handlers (wired with real dependency checkers) ─────────
	health := api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		},
		CheckCache: func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		},
	}
	liveness, readiness := api.NewHealthHandlers(health, log)

	// ── 11. HTTP Server ───────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(authService, probe),
		Catalog:   catalog.NewHandler(reader),
		Admin:     admin.NewHandler(adminService),
	}

	server := api.NewServer(appCtx, cfg, log, jwtSvc, probe, handlers)

	// ── 12. Graceful Shutdown ─────────────────────────────────────────────
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
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting_down_server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// newCacheStore picks the query cache backend. Redis shares cached reads and
// invalidations across instances; memory keeps them per process.
func newCacheStore(cfg *config.Config, rdb *goredis.Client) querycache.Store {
	if cfg.CacheBackend == config.CacheBackendMemory {
		return querycache.NewMemoryStore()
	}
	return querycache.NewRedisStore(rdb)
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned
// and handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}

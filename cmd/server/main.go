// Package main is the entrypoint for the logtrail API server.
package main

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

	"github.com/kiranshivaraju/logtrail/internal/access"
	"github.com/kiranshivaraju/logtrail/internal/api"
	"github.com/kiranshivaraju/logtrail/internal/api/handler"
	mw "github.com/kiranshivaraju/logtrail/internal/api/middleware"
	"github.com/kiranshivaraju/logtrail/internal/api/response"
	"github.com/kiranshivaraju/logtrail/internal/cache"
	"github.com/kiranshivaraju/logtrail/internal/config"
	"github.com/kiranshivaraju/logtrail/internal/logs"
	"github.com/kiranshivaraju/logtrail/internal/metrics"
	"github.com/kiranshivaraju/logtrail/internal/registry"
	"github.com/kiranshivaraju/logtrail/internal/search"
	"github.com/kiranshivaraju/logtrail/internal/store"
	"github.com/kiranshivaraju/logtrail/internal/tail"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, failing fast on invalid values
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env, "tail_source", cfg.Tail.Source)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create search client
	searchClient, err := search.NewESClient(cfg.Elasticsearch)
	if err != nil {
		return fmt.Errorf("create search client: %w", err)
	}
	if err := searchClient.Ping(ctx); err != nil {
		// Reads degrade to 503 until the cluster answers; don't block startup.
		slog.Warn("elasticsearch not reachable at startup", "error", err)
	} else {
		slog.Info("elasticsearch connected")
	}

	// 6. Core services
	pgStore := store.NewPostgresStore(pool)
	reg := registry.New(pgStore, cache.NewApplicationCache(redisCache, cfg.Server.ApplicationTTL), searchClient)
	resolver := access.NewResolver(reg)
	engine := logs.NewEngine(searchClient)

	// 7. Live tail
	hub := tail.NewHub(cfg.Tail.Buffer)
	source, err := tail.NewSource(cfg.Tail, redisCache.Client())
	if err != nil {
		return fmt.Errorf("create tail source: %w", err)
	}
	go tail.Supervise(ctx, source, hub, tail.DefaultBackOff())

	// 8. Build router with dependencies
	deps := api.Dependencies{
		Auth:      mw.NewAuth(cfg.Session),
		RateLimit: mw.NewRateLimit(redisCache, cfg.Server.RateLimitPerMin),
		Resolver:  resolver,

		HealthHandler:  healthHandler(pgStore, redisCache, searchClient),
		MetricsHandler: metrics.Handler(),

		ListApplications:  handler.NewListApplicationsHandler(reg),
		CreateApplication: handler.NewCreateApplicationHandler(reg),
		GetApplication:    handler.NewGetApplicationHandler(),
		RenameApplication: handler.NewRenameApplicationHandler(reg),
		SearchLogs:        handler.NewSearchLogsHandler(engine),
		RecentLogs:        handler.NewRecentLogsHandler(engine),
		HistoryLogs:       handler.NewHistoryLogsHandler(engine),
		Trail:             handler.NewTrailHandler(hub),
	}

	router := api.NewRouter(deps)

	// 9. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: live tail connections are long-lived.
		IdleTimeout: 60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

// healthHandler checks database, cache and search connectivity.
func healthHandler(db, c, es pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
			"search":   "ok",
		}

		if err := db.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}
		if err := es.Ping(r.Context()); err != nil {
			checks["search"] = "degraded"
		}

		for _, status := range checks {
			if status != "ok" {
				slog.Warn("health check degraded", "services", checks)
				response.Error(w, http.StatusServiceUnavailable, "One or more services degraded")
				return
			}
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"confessions/backend/internal/api"
	"confessions/backend/internal/config"
	"confessions/backend/internal/db"
	"confessions/backend/internal/namecheck"
	"confessions/backend/internal/observability"
)

func main() {
	cfg := config.Load()
	logger := observability.NewLogger("api", cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lists, err := namecheck.LoadLists(cfg.NameListsFile)
	if err != nil {
		logger.Error("startup_failed", observability.Fields{
			"step":  "load_name_lists",
			"error": err.Error(),
		})
		os.Exit(1)
	}
	validator, err := namecheck.New(lists)
	if err != nil {
		logger.Error("startup_failed", observability.Fields{
			"step":  "build_validator",
			"error": err.Error(),
		})
		os.Exit(1)
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("startup_failed", observability.Fields{
			"step":  "db_connect",
			"error": err.Error(),
		})
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, db.MigrationSource(cfg.MigrationsDir)); err != nil {
		logger.Error("startup_failed", observability.Fields{
			"step":  "run_migrations",
			"error": err.Error(),
		})
		os.Exit(1)
	}

	server := api.New(cfg, pool, validator, api.WithLogger(logger))

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.APIReadTimeout,
		WriteTimeout:      cfg.APIWriteTimeout,
		IdleTimeout:       cfg.APIIdleTimeout,
	}
	serverErrCh := make(chan error, 1)

	go func() {
		logger.Info("api_listening", observability.Fields{
			"addr":        ":" + cfg.Port,
			"env":         cfg.AppEnv,
			"name_lists":  cfg.NameListsFile,
			"blacklisted": len(lists.Blacklist),
		})
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErrCh:
		logger.Error("http_server_failed", observability.Fields{"error": err.Error()})
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful_shutdown_failed", observability.Fields{"error": err.Error()})
	}
	logger.Info("api_stopped", nil)
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/frequencia/internal/config"
	"github.com/JonMunkholm/frequencia/internal/core"
	"github.com/JonMunkholm/frequencia/internal/logging"
	"github.com/JonMunkholm/frequencia/internal/memstore"
	"github.com/JonMunkholm/frequencia/internal/pgstore"
	"github.com/JonMunkholm/frequencia/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_driver", cfg.Database.Driver,
		"sync_max_batch", cfg.Sync.MaxBatchSize,
		"sync_max_concurrent", cfg.Sync.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()

	store, closeStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	service := core.NewService(store, core.ServiceOptions{
		MaxBatchSize:  cfg.Sync.MaxBatchSize,
		MaxConcurrent: cfg.Sync.MaxConcurrent,
		MaxWait:       cfg.Sync.MaxWait,
		Timeout:       cfg.Sync.Timeout,
	})

	for _, def := range core.All() {
		slog.Debug("entity registered", "entity", def.Type, "table", def.Table, "natural_key", def.NaturalKey)
	}

	server := web.NewServer(service, cfg)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let in-flight batches finish so their failures reach the quarantine table
		if status := service.SyncStatus(); status.Active > 0 {
			slog.Info("waiting for syncs to complete", "active", status.Active)
			if err := service.WaitForSyncs(shutdownCtx); err != nil {
				slog.Warn("syncs did not complete in time", "error", err)
			} else {
				slog.Info("all syncs completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		closeStore()
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}

// openStore builds the entity store selected by the driver setting.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (core.Store, func(), error) {
	switch strings.ToLower(cfg.Driver) {
	case config.DriverMemory:
		slog.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), func() {}, nil
	default:
		pool, err := pgstore.Open(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return pgstore.New(pool), pool.Close, nil
	}
}

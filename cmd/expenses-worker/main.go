package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"expenses/internal/amqp"
	"expenses/internal/config"
	applog "expenses/internal/log"
	"expenses/internal/sheets"
	"expenses/internal/sheets/google"
	"expenses/internal/sheets/memory"
	"expenses/internal/storage"
	"expenses/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     applog.DefaultConfig().Level,
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("Starting expenses-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var writer sheets.SnapshotWriter
	switch cfg.SheetsBackend {
	case "google":
		client, err := google.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets export enabled", "sheet", cfg.GoogleSheetName)
	default:
		writer = memory.New()
		logger.Info("Memory sheets backend in use; exports stay in-process")
	}

	syncWorker := worker.NewSyncWorker(repo, writer)

	// Export whatever is already persisted before consuming messages.
	if err := syncWorker.Resync(ctx); err != nil {
		logger.Error("Startup resync failed", "error", err)
		// Keep running; the periodic resync will retry.
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqp.ConsumeWithReconnect(gctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
			func(msg *amqp.SnapshotSyncMessage) error {
				return syncWorker.HandleSyncMessage(gctx, msg)
			})
	})
	g.Go(func() error {
		syncWorker.RunPeriodic(gctx, cfg.SyncInterval)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

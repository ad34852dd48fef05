package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"expenses/internal/amqp"
	"expenses/internal/cache"
	"expenses/internal/config"
	apphttp "expenses/internal/http"
	applog "expenses/internal/log"
	"expenses/internal/middleware/ratelimit"
	"expenses/internal/model"
	"expenses/internal/services"
	"expenses/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

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

	// Seed the model from the last persisted snapshot before any
	// listeners are attached.
	snap, err := repo.LoadSnapshot(context.Background())
	if err != nil {
		logger.Error("Failed to load snapshot", "error", err)
		os.Exit(1)
	}
	m := model.New()
	if err := services.Restore(m, snap); err != nil {
		logger.Error("Failed to restore model from snapshot", "error", err)
		os.Exit(1)
	}
	logger.Info("Model restored",
		"revision", snap.Revision,
		"transaction_count", len(snap.Transactions),
		"matched_count", len(snap.MatchedIndices))

	// AMQP is optional: without a broker the model still persists
	// locally and the API works.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without sync messages", "error", err)
		} else {
			defer amqpClient.Close()
		}
	}

	syncService := services.NewSyncService(repo, publisherOrNil(amqpClient))
	if !m.Register(syncService) {
		logger.Error("Failed to register sync listener")
		os.Exit(1)
	}

	api := apphttp.NewAPI(m)

	cacheManager := cache.NewManager()
	api.RegisterCaches(cacheManager)
	cacheManager.StartCleanup(time.Minute)
	defer cacheManager.Stop()

	var limiter *ratelimit.Limiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute})
		defer limiter.Stop()
	}

	srv := apphttp.NewServer(":"+cfg.Port, api, limiter)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting expenses server", "port", cfg.Port, "listeners", m.NumberOfListeners())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// publisherOrNil keeps the sync service's publisher interface nil when
// no broker is connected; a typed nil would defeat the nil check.
func publisherOrNil(c *amqp.Client) services.SyncPublisher {
	if c == nil {
		return nil
	}
	return c
}

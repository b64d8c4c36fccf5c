package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/tygerearth-labs/finacial-tracker/internal/amqp"
	"github.com/tygerearth-labs/finacial-tracker/internal/config"
	"github.com/tygerearth-labs/finacial-tracker/internal/log"
	"github.com/tygerearth-labs/finacial-tracker/internal/sheets"
	gsheet "github.com/tygerearth-labs/finacial-tracker/internal/sheets/google"
	mem "github.com/tygerearth-labs/finacial-tracker/internal/sheets/memory"
	"github.com/tygerearth-labs/finacial-tracker/internal/storage"
	"github.com/tygerearth-labs/finacial-tracker/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("Starting tracker-worker")

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

	var journal sheets.JournalWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		journal = client
		logger.Info("Google Sheets journal initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		// Without a spreadsheet the journal is an in-memory sink; useful for
		// local development, not for durability.
		journal = mem.New()
		logger.Warn("No GOOGLE_SPREADSHEET_ID provided - journaling to memory only")
	}

	backupWorker := worker.NewBackupWorker(repo, journal, cfg.BackupBatchSize)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Catch up on rows that were written while no worker was running.
	if err := backupWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Startup sync check failed", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		g.Go(func() error {
			return amqp.ConsumeBackupWithReconnect(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, func(msg *amqp.BackupMessage) error {
				return backupWorker.HandleMessage(ctx, msg)
			})
		})
	} else {
		logger.Info("AMQP consumption disabled - no AMQP_URL provided, relying on periodic sweep")
	}

	// Periodic sweep for transactions whose publish was lost.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.BackupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := backupWorker.ProcessPendingTransactions(ctx); err != nil {
					logger.Error("Periodic backup sweep failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

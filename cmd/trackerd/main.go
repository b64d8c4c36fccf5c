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

	"github.com/tygerearth-labs/finacial-tracker/internal/allocation"
	"github.com/tygerearth-labs/finacial-tracker/internal/amqp"
	"github.com/tygerearth-labs/finacial-tracker/internal/config"
	apphttp "github.com/tygerearth-labs/finacial-tracker/internal/http"
	"github.com/tygerearth-labs/finacial-tracker/internal/log"
	"github.com/tygerearth-labs/finacial-tracker/internal/report"
	"github.com/tygerearth-labs/finacial-tracker/internal/services"
	"github.com/tygerearth-labs/finacial-tracker/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

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

	// The backup publisher is optional; without a broker transactions stay
	// pending until a worker picks them up from the database.
	var publisher services.BackupPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		publisher = client
		logger.Info("AMQP backup publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP backup publishing disabled - no AMQP_URL provided")
	}

	engine := allocation.NewEngine(logger)
	transactions := services.NewTransactionService(repo, engine, publisher)
	defer transactions.Close()
	reports := report.NewService(repo.Queries(), logger)

	srv := apphttp.NewServer(":"+cfg.Port, repo, transactions, reports, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting tracker server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"smartwallet/internal/amqp"
	"smartwallet/internal/backend"
	"smartwallet/internal/cli"
	"smartwallet/internal/config"
	"smartwallet/internal/export"
	"smartwallet/internal/services"
	gsheet "smartwallet/internal/sheets/google"
	"smartwallet/internal/storage"
	"smartwallet/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, logger, err := cli.Bootstrap("")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(context.Background())
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Worker failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	log := logger.With("component", "worker")
	log.Info("Starting wallet-worker")

	// The worker reads what the server persisted, so it needs the shared database.
	if cfg.DataBackend != config.BackendSQLite {
		return fmt.Errorf("wallet-worker requires DATA_BACKEND=%s, got %q", config.BackendSQLite, cfg.DataBackend)
	}
	if !cfg.AMQPEnabled() {
		return errors.New("wallet-worker requires AMQP_URL")
	}
	if !cfg.SheetsEnabled() {
		return errors.New("wallet-worker requires GOOGLE_SPREADSHEET_ID")
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	store, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return err
	}
	defer store.Close()

	sheetsClient, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	log.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("initialize AMQP client: %w", err)
	}
	defer amqpClient.Close()

	syncer := services.NewSyncProcessor(storage.NewRecords(store.Store), export.NewExporter(sheetsClient, logger), services.SyncProcessorConfig{
		PollInterval: cfg.ExportInterval,
		MaxRetries:   cfg.ExportMaxRetries,
	}, logger)
	syncWorker := worker.NewSyncWorker(syncer, logger)

	// Recover from messages missed while the worker was down.
	log.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		log.Error("Failed startup sync check", "error", err)
	}

	if err := syncer.Start(ctx); err != nil {
		return fmt.Errorf("start sync processor: %w", err)
	}

	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- amqpClient.Consume(ctx, syncWorker.HandleMessage)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-consumeErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			runErr = fmt.Errorf("message consumption failed: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := syncer.Stop(shutdownCtx); err != nil {
		log.Warn("Sync processor did not stop cleanly", "error", err)
	}

	st := syncer.Stats()
	log.Info("Worker shutdown complete",
		"synced", st.Synced,
		"last_version", st.LastVersion,
		"last_error", st.LastError)
	return runErr
}

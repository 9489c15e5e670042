package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"smartwallet/internal/amqp"
	"smartwallet/internal/cache"
	"smartwallet/internal/export"
	apphttp "smartwallet/internal/http"
	"smartwallet/internal/middleware/ratelimit"
	"smartwallet/internal/services"
	"smartwallet/internal/sheets"
	gsheet "smartwallet/internal/sheets/google"
	"smartwallet/internal/storage"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	var (
		rateLimit  int
		noSheetRun bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Long: `Serve the ledger over HTTP on $PORT.

When GOOGLE_SPREADSHEET_ID is set the ledger is mirrored to the spreadsheet
after every change. When AMQP_URL is also set the changes are published to
the broker instead and wallet-worker does the mirroring.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.serve(ctx, rateLimit, !noSheetRun)
		},
	}

	cmd.Flags().IntVar(&rateLimit, "rate-limit", ratelimit.DefaultConfig().RequestsPerMinute, "mutating requests allowed per client per minute (0 disables)")
	cmd.Flags().BoolVar(&noSheetRun, "no-sheet-sync", false, "do not mirror to the spreadsheet from this process")
	return cmd
}

func (a *app) serve(ctx context.Context, rateLimit int, sheetSync bool) error {
	var sheet sheets.RowWriter
	if a.cfg.SheetsEnabled() {
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   a.cfg.GoogleSpreadsheetID,
			SheetName:       a.cfg.GoogleSheetName,
			CredentialsJSON: a.cfg.GoogleServiceAccountJSON,
			CredentialsFile: a.cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			return fmt.Errorf("initialize Google Sheets client: %w", err)
		}
		sheet = client
		a.logger.InfoContext(ctx, "Google Sheets export enabled", "spreadsheet_id", a.cfg.GoogleSpreadsheetID)
	}
	exporter := export.NewExporter(sheet, a.logger)

	if a.cfg.AMQPEnabled() {
		client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue)
		if err != nil {
			// The broker only feeds the export worker; the API works without it.
			a.logger.WarnContext(ctx, "Failed to connect to AMQP, ledger events will not be published", "error", err)
		} else {
			defer client.Close()
			a.unsubscribe = append(a.unsubscribe, amqp.Forward(a.ledger.Bus(), client, a.logger))
			a.logger.InfoContext(ctx, "Publishing ledger events", "exchange", a.cfg.AMQPExchange, "queue", a.cfg.AMQPQueue)
			sheetSync = false
		}
	}

	var syncer *services.SyncProcessor
	if sheetSync && exporter.HasSheet() {
		syncer = services.NewSyncProcessor(storage.NewRecords(a.store.Store), exporter, services.SyncProcessorConfig{
			PollInterval: a.cfg.ExportInterval,
			MaxRetries:   a.cfg.ExportMaxRetries,
		}, a.logger)
		a.unsubscribe = append(a.unsubscribe, syncer.Watch(a.ledger.Bus()))
		if err := syncer.Start(ctx); err != nil {
			return fmt.Errorf("start sync processor: %w", err)
		}
	}

	caches := cache.NewManager(a.logger)
	caches.Register(a.snapshots)
	caches.StartCleanup(time.Hour)
	defer caches.Stop()

	var limiter *ratelimit.Limiter
	if rateLimit > 0 {
		limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: rateLimit})
	}

	srv := apphttp.NewServer(":"+a.cfg.Port, apphttp.Deps{
		Ledger:          a.ledger,
		Engine:          a.engine,
		Allocator:       services.NewGoalAllocator(a.ledger, a.logger),
		Exporter:        exporter,
		Limiter:         limiter,
		Ready:           a.store.Ready,
		DefaultCurrency: a.cfg.DefaultCurrency,
		Logger:          a.logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("Starting wallet server",
			"port", a.cfg.Port,
			"backend", a.store.Type.String(),
			"sheets", exporter.HasSheet(),
			"amqp", a.cfg.AMQPEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
		if syncer != nil {
			if err := syncer.Stop(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("stop sync processor: %w", err))
			}
		}
		m := srv.Metrics()
		a.logger.Info("Server stopped gracefully",
			"total_requests", m.TotalRequests,
			"failed_requests", m.FailedRequests)
		return errors.Join(errs...)
	})
	return g.Wait()
}

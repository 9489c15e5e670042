package worker

import (
	"context"
	"fmt"
	"log/slog"

	"smartwallet/internal/amqp"
)

// Syncer is the part of services.SyncProcessor the worker drives.
type Syncer interface {
	Notify(version uint64)
	SyncNow(ctx context.Context) error
}

// SyncWorker turns AMQP ledger messages into spreadsheet mirrors. Messages are
// acknowledged once the change is queued; the processor coalesces bursts and
// retries on its own.
type SyncWorker struct {
	syncer Syncer
	logger *slog.Logger

	// lastVersion is the highest version seen since the server last restarted.
	lastVersion uint64
}

func NewSyncWorker(syncer Syncer, logger *slog.Logger) *SyncWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncWorker{syncer: syncer, logger: logger.With("component", "worker")}
}

// HandleMessage processes a single ledger message from AMQP
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.LedgerMessage) error {
	switch msg.Kind {
	case amqp.KindLedgerChanged:
		if msg.Version != 0 && msg.Version < w.lastVersion {
			// Versions restart at zero with the server process.
			w.logger.InfoContext(ctx, "Ledger version went backwards, server restarted",
				"previous", w.lastVersion,
				"version", msg.Version)
		}
		w.lastVersion = msg.Version
		w.syncer.Notify(msg.Version)
		w.logger.DebugContext(ctx, "Ledger change queued for sync",
			"version", msg.Version,
			"reason", msg.Reason)
		return nil

	case amqp.KindGoalCompleted:
		w.logger.InfoContext(ctx, "Savings goal completed",
			"goal_id", msg.Goal.ID,
			"title", msg.Goal.Title,
			"target", msg.Goal.Target.String(),
			"reached", msg.Goal.Reached.String())
		return nil

	default:
		return fmt.Errorf("unsupported message kind %q", msg.Kind)
	}
}

// StartupSyncCheck mirrors the current ledger once at worker startup.
// This is useful to recover from missed AMQP messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	if err := w.syncer.SyncNow(ctx); err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	w.logger.InfoContext(ctx, "Startup sync completed")
	return nil
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"smartwallet/internal/events"
	"smartwallet/internal/export"
	"smartwallet/internal/storage"
)

// StateLoader reads the persisted ledger. storage.Records implements it.
type StateLoader interface {
	LoadAll(ctx context.Context) (storage.State, error)
}

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often a failed mirror is retried (default: 30s)
	PollInterval time.Duration

	// MaxRetries is the number of attempts per change before giving up until the next one (default: 3)
	MaxRetries int
}

// DefaultSyncProcessorConfig returns sensible defaults
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: 30 * time.Second,
		MaxRetries:   3,
	}
}

// SyncStats is a point-in-time view of the processor.
type SyncStats struct {
	Requested   uint64 `json:"requested"`
	Synced      uint64 `json:"synced"`
	LastVersion uint64 `json:"lastVersion"`
	Attempts    int    `json:"attempts"`
	LastError   string `json:"lastError,omitempty"`
	LastSync    string `json:"lastSync,omitempty"`
}

// SyncProcessor mirrors the persisted ledger to the export sinks. Change
// notifications are coalesced: a burst of ledger versions results in one
// export of the latest state.
type SyncProcessor struct {
	loader   StateLoader
	exporter *export.Exporter
	config   SyncProcessorConfig
	logger   *slog.Logger

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	wake    chan struct{}

	// requested counts notifications; synced is the last one handled.
	requested   uint64
	synced      uint64
	lastVersion uint64
	attempts    int
	lastErr     error
	lastSync    time.Time
}

// NewSyncProcessor creates a new sync processor
func NewSyncProcessor(loader StateLoader, exporter *export.Exporter, config SyncProcessorConfig, logger *slog.Logger) *SyncProcessor {
	def := DefaultSyncProcessorConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = def.MaxRetries
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &SyncProcessor{
		loader:   loader,
		exporter: exporter,
		config:   config,
		logger:   logger.With("component", "export"),
		wake:     make(chan struct{}, 1),
	}
	// The first loop iteration mirrors whatever is already stored.
	p.requested = 1
	return p
}

// Notify records that the ledger reached version. It never blocks.
func (p *SyncProcessor) Notify(version uint64) {
	p.mu.Lock()
	p.requested++
	p.lastVersion = version
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Watch feeds ledger commits from the in-process bus into Notify.
func (p *SyncProcessor) Watch(bus *events.Bus) (unsubscribe func()) {
	offChanged := events.SubscribeTyped(bus, events.TypeLedgerChanged, func(e events.Typed[events.LedgerChanged]) error {
		p.Notify(e.Data.Version)
		return nil
	})
	offReset := events.SubscribeTyped(bus, events.TypeLedgerReset, func(e events.Typed[events.LedgerReset]) error {
		p.Notify(e.Data.Version)
		return nil
	})
	return func() {
		offChanged()
		offReset()
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stop, done := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stop, done)

	p.logger.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"max_retries", p.config.MaxRetries)

	return nil
}

// Stop gracefully stops the processor and waits for completion. Only the
// first of several concurrent calls signals the loop; the others return nil.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	stop, done := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stop)

	// Wait for completion or context cancellation
	select {
	case <-done:
		p.logger.InfoContext(ctx, "Sync processor stopped gracefully")
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}
	return nil
}

// IsRunning returns whether the processor is currently running
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// runLoop is the main processing loop
func (p *SyncProcessor) runLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	pollTicker := time.NewTicker(p.config.PollInterval)
	defer pollTicker.Stop()

	// Process immediately on startup
	p.processPending(ctx)

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-p.wake:
			p.processPending(ctx)
		case <-pollTicker.C:
			p.processPending(ctx)
		}
	}
}

// processPending exports once if notifications arrived since the last handled one.
func (p *SyncProcessor) processPending(ctx context.Context) {
	p.mu.Lock()
	target := p.requested
	if target <= p.synced {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	err := p.SyncNow(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		p.synced = target
		p.attempts = 0
		return
	}
	p.handleFailure(ctx, target, err)
}

// handleFailure counts a failed attempt. After MaxRetries the pending change
// is dropped; the next notification starts over. Called with p.mu held.
func (p *SyncProcessor) handleFailure(ctx context.Context, target uint64, err error) {
	p.attempts++
	p.logger.WarnContext(ctx, "Sync failed",
		"attempt", p.attempts,
		"version", p.lastVersion,
		"error", err)

	if p.attempts >= p.config.MaxRetries {
		p.logger.ErrorContext(ctx, "Sync failed permanently after max retries",
			"attempts", p.attempts,
			"version", p.lastVersion)
		p.synced = target
		p.attempts = 0
	}
}

// SyncNow loads the stored ledger and exports it without coalescing.
func (p *SyncProcessor) SyncNow(ctx context.Context) error {
	st, err := p.loader.LoadAll(ctx)
	if err != nil {
		p.setResult(err)
		return fmt.Errorf("load ledger: %w", err)
	}
	res, err := p.exporter.Export(ctx, st.Transactions, nil)
	p.setResult(err)
	if err != nil {
		return err
	}
	p.logger.DebugContext(ctx, "Ledger mirrored", "rows", res.Rows, "sheet_rows", res.SheetRows)
	return nil
}

func (p *SyncProcessor) setResult(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastErr = err
	if err == nil {
		p.lastSync = time.Now()
	}
}

// Stats returns the current processor state
func (p *SyncProcessor) Stats() SyncStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := SyncStats{
		Requested:   p.requested,
		Synced:      p.synced,
		LastVersion: p.lastVersion,
		Attempts:    p.attempts,
	}
	if p.lastErr != nil {
		s.LastError = p.lastErr.Error()
	}
	if !p.lastSync.IsZero() {
		s.LastSync = p.lastSync.UTC().Format(time.RFC3339)
	}
	return s
}

// Package ledger is the single source of truth for transactions, budgets,
// goals and recurring configurations.
//
// All mutations run through Apply against a working copy of the state. The
// copy replaces the live state only when the mutation function succeeds, so
// a rejected operation leaves the ledger untouched. After a commit the
// version counter is bumped, the changed records are mirrored to the
// key-value store and events are published. Persistence is best effort: a
// failed write is logged and remembered, never rolled back.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"smartwallet/internal/core"
	"smartwallet/internal/events"
	wlog "smartwallet/internal/log"
	"smartwallet/internal/storage"
)

type Ledger struct {
	mu      sync.RWMutex
	state   storage.State
	version uint64

	records *storage.Records
	bus     *events.Bus
	ids     *core.IDGenerator
	clock   func() time.Time
	logger  *slog.Logger

	errMu          sync.Mutex
	lastPersistErr error
}

type Option func(*Ledger)

// WithClock overrides time.Now, mostly for tests.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) { l.clock = clock }
}

func WithBus(bus *events.Bus) Option {
	return func(l *Ledger) { l.bus = bus }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// Open loads every record from kv. Missing records start empty.
func Open(ctx context.Context, kv storage.KV, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		records: storage.NewRecords(kv),
		ids:     &core.IDGenerator{},
		clock:   time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.bus == nil {
		l.bus = events.NewBus(l.logger)
	}
	l.logger = l.logger.With("component", "ledger")

	st, err := l.records.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	l.state = st

	for _, t := range st.Transactions {
		l.ids.Seed(t.ID)
	}
	for _, c := range st.Configs {
		l.ids.Seed(c.ID)
	}

	l.logger.InfoContext(ctx, "Ledger loaded",
		"transactions", len(st.Transactions),
		"recurring_configs", len(st.Configs),
		"budgets", len(st.Budgets),
		"goals", len(st.Goals))
	return l, nil
}

// Bus returns the bus the ledger publishes on.
func (l *Ledger) Bus() *events.Bus { return l.bus }

// Now returns the ledger clock's current time.
func (l *Ledger) Now() time.Time { return l.clock() }

// Version increases by one with every committed mutation.
func (l *Ledger) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

// Snapshot is an independent copy of the ledger at one version.
type Snapshot struct {
	Version uint64
	storage.State
}

func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Snapshot{Version: l.version, State: cloneState(l.state)}
}

// LastPersistError returns the error of the most recent failed write, or nil
// once a later write of the same kind succeeded.
func (l *Ledger) LastPersistError() error {
	l.errMu.Lock()
	defer l.errMu.Unlock()
	return l.lastPersistErr
}

// Apply runs fn against a working copy of the state and commits it when fn
// returns nil. Nothing is committed, persisted or published when fn fails or
// changes nothing.
func (l *Ledger) Apply(ctx context.Context, reason string, fn func(tx *Tx) error) error {
	l.mu.Lock()
	tx := newTx(cloneState(l.state), l.clock(), l.ids)
	if err := fn(tx); err != nil {
		l.mu.Unlock()
		return err
	}
	if !tx.changed() {
		l.mu.Unlock()
		return nil
	}

	// Committed: the write and the notifications outlive a cancelled caller.
	ctx = context.WithoutCancel(ctx)
	l.state = tx.st
	l.version++
	version := l.version
	l.persist(ctx, tx)
	l.mu.Unlock()

	l.logger.DebugContext(ctx, "Ledger mutation committed", wlog.NewFields().WithVersion(version, reason).ToSlice()...)

	if tx.reset {
		l.publish(ctx, events.New(ctx, events.TypeLedgerReset, events.LedgerReset{Version: version}))
	}
	l.publish(ctx, events.New(ctx, events.TypeLedgerChanged, events.LedgerChanged{
		Version:        version,
		Reason:         reason,
		ConfigsChanged: tx.configsChanged,
	}))
	for _, e := range tx.pending {
		l.publish(ctx, e.WithContext(context.WithoutCancel(e.Context())))
	}
	return nil
}

func (l *Ledger) persist(ctx context.Context, tx *Tx) {
	var err error
	if tx.reset {
		err = l.records.Clear(ctx)
		if err == nil && len(tx.dirty) > 0 {
			err = l.records.SaveState(ctx, tx.st, tx.dirtyKeys()...)
		}
	} else {
		err = l.records.SaveState(ctx, tx.st, tx.dirtyKeys()...)
	}

	l.errMu.Lock()
	l.lastPersistErr = err
	l.errMu.Unlock()

	if err != nil {
		l.logger.ErrorContext(ctx, "Failed to persist ledger, in-memory state kept",
			"keys", tx.dirtyKeys(), "reset", tx.reset, "error", err)
	}
}

func (l *Ledger) publish(ctx context.Context, e events.Event) {
	if err := l.bus.Publish(e); err != nil {
		l.logger.WarnContext(ctx, "Event subscribers failed", "event", e.Type, "error", err)
	}
}

func cloneState(st storage.State) storage.State {
	return storage.State{
		Transactions: append([]core.Transaction(nil), st.Transactions...),
		Configs:      append([]core.RecurringConfig(nil), st.Configs...),
		Budgets:      st.Budgets.Clone(),
		Goals:        append([]core.Goal(nil), st.Goals...),
		Theme:        st.Theme,
		Currency:     st.Currency,
	}
}

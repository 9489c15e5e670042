package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"smartwallet/internal/cache"
	"smartwallet/internal/core"
	"smartwallet/internal/events"
	"smartwallet/internal/ledger"
)

// Source is the read side of the ledger.
type Source interface {
	Version() uint64
	Snapshot() ledger.Snapshot
	Now() time.Time
}

// Engine memoizes Stats per ledger version and calendar day, so repeated
// reads between mutations skip the recomputation and a new day refreshes
// the forecast even when nothing was written.
type Engine struct {
	src    Source
	cache  cache.Cache[Stats]
	logger *slog.Logger
}

func NewEngine(src Source, c cache.Cache[Stats], logger *slog.Logger) *Engine {
	if c == nil {
		c = cache.NewLRUCache[Stats](8, 24*time.Hour)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{src: src, cache: c, logger: logger.With("component", "analytics")}
}

func cacheKey(version uint64, now time.Time) string {
	return fmt.Sprintf("%d:%s", version, now.Format(core.DateLayout))
}

// Stats returns the derived snapshot for the current ledger version.
func (e *Engine) Stats(ctx context.Context) Stats {
	now := e.src.Now()
	if st, ok := e.cache.Get(cacheKey(e.src.Version(), now)); ok {
		return st
	}

	snap := e.src.Snapshot()
	st := Compute(snap.Transactions, snap.Budgets, snap.Goals, now)
	st.Version = snap.Version
	e.cache.Set(cacheKey(snap.Version, now), st)

	e.logger.DebugContext(ctx, "Stats recomputed",
		"version", snap.Version,
		"transactions", len(snap.Transactions),
		"health_score", st.HealthScore)
	return st
}

// Transactions returns the filtered transactions of the current snapshot.
func (e *Engine) Transactions(c Criteria) []core.Transaction {
	return Filter(e.src.Snapshot().Transactions, c)
}

// Chart returns the balance series over the filtered transactions.
func (e *Engine) Chart(c Criteria) []ChartPoint {
	return BalanceSeries(e.Transactions(c))
}

// Invalidate drops every memoized snapshot.
func (e *Engine) Invalidate() {
	e.cache.Purge()
}

// Watch purges the memo when the ledger is reset. It returns the unsubscribe func.
func (e *Engine) Watch(bus *events.Bus) func() {
	return bus.Subscribe(events.TypeLedgerReset, func(ev events.Event) error {
		e.Invalidate()
		e.logger.DebugContext(ev.Context(), "Stats cache purged after reset")
		return nil
	})
}

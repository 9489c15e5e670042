package services

import (
	"context"
	"log/slog"
	"time"

	"smartwallet/internal/core"
	"smartwallet/internal/events"
	"smartwallet/internal/ledger"
	"smartwallet/internal/schedule"
)

// Expansion is the outcome of catching recurring configurations up to a point in time.
type Expansion struct {
	// Instances are ordered config by config, oldest occurrence first.
	Instances []core.Transaction
	// Next holds the advanced next-execution time of every config that emitted.
	Next map[int64]time.Time
	// Frozen lists configs whose recurrence unit is unknown or whose schedule is unset.
	Frozen []int64
}

// Expand materializes one instance per elapsed period of every config, dated
// at the execution time it replaces. nextID is called once per instance.
func Expand(configs []core.RecurringConfig, now time.Time, nextID func() int64) Expansion {
	exp := Expansion{Next: make(map[int64]time.Time)}
	for _, cfg := range configs {
		advancer, err := schedule.GetPeriodAdvancer(cfg.Recurring)
		if err != nil || cfg.NextExecution.IsZero() {
			exp.Frozen = append(exp.Frozen, cfg.ID)
			continue
		}

		next := cfg.NextExecution
		for !next.After(now) {
			exp.Instances = append(exp.Instances, cfg.Instance(nextID(), next))
			next = advancer.Advance(next)
		}
		if !next.Equal(cfg.NextExecution) {
			exp.Next[cfg.ID] = next
		}
	}
	return exp
}

// RecurringProcessor catches every recurring configuration up to the ledger clock.
type RecurringProcessor struct {
	ledger *ledger.Ledger
	logger *slog.Logger
}

func NewRecurringProcessor(l *ledger.Ledger, logger *slog.Logger) *RecurringProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecurringProcessor{ledger: l, logger: logger.With("component", "scheduler")}
}

// ProcessDue emits every due instance and advances the configs in a single
// commit. Running it again without the clock moving emits nothing.
func (p *RecurringProcessor) ProcessDue(ctx context.Context) (Expansion, error) {
	var exp Expansion
	err := p.ledger.Apply(ctx, "recurring_catchup", func(tx *ledger.Tx) error {
		exp = Expand(tx.Configs(), tx.Now(), tx.NextID)
		if len(exp.Instances) == 0 {
			return nil
		}
		tx.PrependTransactions(exp.Instances...)
		tx.AdvanceConfigs(exp.Next)
		tx.Emit(events.New(ctx, events.TypeRecurringMaterialized, events.RecurringMaterialized{
			Count:  len(exp.Instances),
			Frozen: exp.Frozen,
		}))
		return nil
	})
	if err != nil {
		return Expansion{}, err
	}

	for _, id := range exp.Frozen {
		p.logger.WarnContext(ctx, "Recurring configuration frozen, unknown recurrence or schedule", "config_id", id)
	}
	if len(exp.Instances) > 0 {
		p.logger.InfoContext(ctx, "Recurring transactions materialized",
			"count", len(exp.Instances),
			"configs_advanced", len(exp.Next))
	}
	return exp, nil
}

// Watch re-runs ProcessDue whenever the set of recurring configurations
// changes. Its own commits do not change that set, so it never re-triggers itself.
func (p *RecurringProcessor) Watch(bus *events.Bus) (unsubscribe func()) {
	return events.SubscribeTyped(bus, events.TypeLedgerChanged, func(e events.Typed[events.LedgerChanged]) error {
		if !e.Data.ConfigsChanged {
			return nil
		}
		_, err := p.ProcessDue(e.Context())
		return err
	})
}

package main

import (
	"context"
	"fmt"
	"log/slog"

	"smartwallet/internal/analytics"
	"smartwallet/internal/backend"
	"smartwallet/internal/cache"
	"smartwallet/internal/cli"
	"smartwallet/internal/config"
	"smartwallet/internal/events"
	"smartwallet/internal/ledger"
	"smartwallet/internal/services"
)

// app is the object graph every subcommand works against.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *backend.BackendResult
	ledger    *ledger.Ledger
	engine    *analytics.Engine
	recurring *services.RecurringProcessor
	snapshots *cache.LRUCache[analytics.Stats]

	unsubscribe []func()
}

// openApp loads configuration, opens the configured store and loads the
// ledger from it. Recurring configurations are caught up before it returns.
func openApp(ctx context.Context) (*app, error) {
	cfg, logger, err := cli.Bootstrap("")
	if err != nil {
		return nil, err
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	store, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	bus := events.NewBus(logger)
	l, err := ledger.Open(ctx, store.Store, ledger.WithBus(bus), ledger.WithLogger(logger))
	if err != nil {
		store.Close()
		return nil, err
	}

	snapshots := cache.NewLRUCache[analytics.Stats](cfg.SnapshotCacheSize, cfg.SnapshotCacheTTL)
	a := &app{
		cfg:       cfg,
		logger:    logger.With("component", "app"),
		store:     store,
		ledger:    l,
		engine:    analytics.NewEngine(l, snapshots, logger),
		recurring: services.NewRecurringProcessor(l, logger),
		snapshots: snapshots,
	}
	a.unsubscribe = append(a.unsubscribe,
		a.engine.Watch(bus),
		a.recurring.Watch(bus),
	)

	if _, err := a.recurring.ProcessDue(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("catch up recurring transactions: %w", err)
	}
	return a, nil
}

// currency is the display currency: the stored preference or the configured default.
func (a *app) currency() string {
	if _, code := a.ledger.Preferences(); code != "" {
		return code
	}
	return a.cfg.DefaultCurrency
}

// persistError reports the last failed write; the ledger keeps serving from
// memory after one, which a one-shot command must not hide.
func (a *app) persistError() error {
	if err := a.ledger.LastPersistError(); err != nil {
		return fmt.Errorf("changes were not saved: %w", err)
	}
	return nil
}

func (a *app) Close() error {
	for _, off := range a.unsubscribe {
		off()
	}
	a.unsubscribe = nil
	if err := a.store.Close(); err != nil {
		a.logger.Error("Failed to close store", "error", err)
		return err
	}
	return nil
}

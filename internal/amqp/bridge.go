package amqp

import (
	"context"
	"log/slog"

	"smartwallet/internal/events"
)

// Publisher is the part of Client the bridge needs.
type Publisher interface {
	Publish(ctx context.Context, msg *LedgerMessage) error
}

var _ Publisher = (*Client)(nil)

// Forward relays ledger commits and goal completions from bus to pub.
// Publishing failures are logged and never reach the ledger.
func Forward(bus *events.Bus, pub Publisher, logger *slog.Logger) (unsubscribe func()) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "amqp")

	send := func(ctx context.Context, msg *LedgerMessage) error {
		if err := pub.Publish(ctx, msg); err != nil {
			logger.WarnContext(ctx, "Failed to publish ledger message",
				"kind", msg.Kind,
				"version", msg.Version,
				"error", err)
		}
		return nil
	}

	offChanged := events.SubscribeTyped(bus, events.TypeLedgerChanged, func(e events.Typed[events.LedgerChanged]) error {
		return send(e.Context(), NewLedgerChangedMessage(e.Data.Version, e.Data.Reason))
	})
	offGoal := events.SubscribeTyped(bus, events.TypeGoalCompleted, func(e events.Typed[events.GoalCompleted]) error {
		return send(e.Context(), NewGoalCompletedMessage(GoalMessage{
			ID:      e.Data.GoalID,
			Title:   e.Data.Title,
			Target:  e.Data.Target,
			Reached: e.Data.Reached,
		}, e.Data.At))
	})
	return func() {
		offChanged()
		offGoal()
	}
}

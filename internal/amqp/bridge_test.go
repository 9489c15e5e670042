package amqp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartwallet/internal/events"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*LedgerMessage
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, msg *LedgerMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func TestForwardRelaysLedgerEvents(t *testing.T) {
	bus := events.NewBus(nil)
	pub := &recordingPublisher{}
	unsub := Forward(bus, pub, nil)
	ctx := context.Background()

	require.NoError(t, bus.Publish(events.New(ctx, events.TypeLedgerChanged, events.LedgerChanged{Version: 4, Reason: "add_goal"})))
	require.NoError(t, bus.Publish(events.New(ctx, events.TypeGoalCompleted, events.GoalCompleted{
		GoalID: "g", Title: "Car", Target: decimal.NewFromInt(10), Reached: decimal.NewFromInt(12),
		At: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	})))
	require.NoError(t, bus.Publish(events.New(ctx, events.TypeRecurringMaterialized, events.RecurringMaterialized{Count: 2})))

	require.Len(t, pub.msgs, 2)
	assert.Equal(t, KindLedgerChanged, pub.msgs[0].Kind)
	assert.Equal(t, uint64(4), pub.msgs[0].Version)
	assert.Equal(t, "add_goal", pub.msgs[0].Reason)
	assert.Equal(t, KindGoalCompleted, pub.msgs[1].Kind)
	assert.Equal(t, "Car", pub.msgs[1].Goal.Title)

	unsub()
	require.NoError(t, bus.Publish(events.New(ctx, events.TypeLedgerChanged, events.LedgerChanged{Version: 5})))
	assert.Len(t, pub.msgs, 2)
}

func TestForwardSwallowsPublishErrors(t *testing.T) {
	bus := events.NewBus(nil)
	pub := &recordingPublisher{err: errors.New("broker down")}
	defer Forward(bus, pub, nil)()

	err := bus.Publish(events.New(context.Background(), events.TypeLedgerChanged, events.LedgerChanged{Version: 1}))
	assert.NoError(t, err)
	assert.Len(t, pub.msgs, 1)
}

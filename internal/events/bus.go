// Package events is the in-process, synchronous event bus the ledger and its
// engines use to announce state changes to adapters (AMQP, presentation).
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

type Type string

const (
	TypeLedgerChanged         Type = "ledger.changed"
	TypeLedgerReset           Type = "ledger.reset"
	TypeRecurringMaterialized Type = "recurring.materialized"
	TypeGoalCompleted         Type = "goal.completed"
)

// Event is the envelope passed to handlers. Data holds one of the payload types below.
type Event struct {
	ctx       context.Context
	Type      Type
	Timestamp time.Time
	Data      any
}

func New(ctx context.Context, t Type, data any) Event {
	return Event{ctx: ctx, Type: t, Timestamp: time.Now(), Data: data}
}

func (e Event) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

// WithContext returns a copy of e carrying ctx.
func (e Event) WithContext(ctx context.Context) Event {
	e.ctx = ctx
	return e
}

// Typed is the envelope seen by SubscribeTyped handlers.
type Typed[T any] struct {
	ctx       context.Context
	Type      Type
	Timestamp time.Time
	Data      T
}

func (e Typed[T]) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

type handler func(Event) error

// Bus dispatches events synchronously, in subscription order, on the publisher's goroutine.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[Type]map[uint64]handler
	nextID      uint64
	logger      *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subscribers: make(map[Type]map[uint64]handler),
		logger:      logger.With("component", "events"),
	}
}

// Subscribe registers h for t and returns a func that removes it.
func (b *Bus) Subscribe(t Type, h func(Event) error) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if b.subscribers[t] == nil {
		b.subscribers[t] = make(map[uint64]handler)
	}
	b.subscribers[t][id] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if hs := b.subscribers[t]; hs != nil {
			delete(hs, id)
			if len(hs) == 0 {
				delete(b.subscribers, t)
			}
		}
	}
}

// SubscribeTyped registers a handler for payloads of type T. Events carrying
// another payload type are skipped.
func SubscribeTyped[T any](b *Bus, t Type, h func(Typed[T]) error) (unsubscribe func()) {
	return b.Subscribe(t, func(e Event) error {
		payload, ok := e.Data.(T)
		if !ok {
			b.logger.Debug("Payload type mismatch, skipping handler",
				"event", t, "want", fmt.Sprintf("%T", *new(T)), "got", fmt.Sprintf("%T", e.Data))
			return nil
		}
		return h(Typed[T]{ctx: e.ctx, Type: e.Type, Timestamp: e.Timestamp, Data: payload})
	})
}

// Publish runs every handler for e.Type. Handler errors and panics are logged
// and returned joined; one failing handler does not stop the others.
func (b *Bus) Publish(e Event) error {
	if err := e.Context().Err(); err != nil {
		return fmt.Errorf("event %s: context cancelled before publish: %w", e.Type, err)
	}

	b.mu.RLock()
	ids := make([]uint64, 0, len(b.subscribers[e.Type]))
	hs := make(map[uint64]handler, len(b.subscribers[e.Type]))
	for id, h := range b.subscribers[e.Type] {
		ids = append(ids, id)
		hs[id] = h
	}
	b.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var errs []error
	for _, id := range ids {
		if err := b.invoke(e, id, hs[id]); err != nil {
			b.logger.ErrorContext(e.Context(), "Event handler failed", "event", e.Type, "handler_id", id, "error", err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("event %s: %d handler(s) failed: %w", e.Type, len(errs), errors.Join(errs...))
	}
	return nil
}

func (b *Bus) invoke(e Event, id uint64, h handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic (ID %d) for event %s: %v", id, e.Type, r)
		}
	}()
	return h(e)
}

// Count returns the number of handlers subscribed to t.
func (b *Bus) Count(t Type) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[t])
}

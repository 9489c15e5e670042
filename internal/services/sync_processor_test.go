package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartwallet/internal/core"
	"smartwallet/internal/export"
	"smartwallet/internal/sheets/memory"
	"smartwallet/internal/storage"
)

type failingLoader struct{ err error }

func (f failingLoader) LoadAll(context.Context) (storage.State, error) {
	return storage.State{}, f.err
}

// blockingLoader holds every load until release is closed.
type blockingLoader struct {
	entered chan struct{}
	release chan struct{}
}

func (b blockingLoader) LoadAll(ctx context.Context) (storage.State, error) {
	select {
	case b.entered <- struct{}{}:
	default:
	}
	select {
	case <-b.release:
		return storage.State{}, nil
	case <-ctx.Done():
		return storage.State{}, ctx.Err()
	}
}

func TestDefaultSyncProcessorConfig(t *testing.T) {
	config := DefaultSyncProcessorConfig()

	if config.PollInterval != 30*time.Second {
		t.Errorf("expected PollInterval 30s, got %v", config.PollInterval)
	}
	if config.MaxRetries != 3 {
		t.Errorf("expected MaxRetries 3, got %d", config.MaxRetries)
	}

	p := NewSyncProcessor(nil, nil, SyncProcessorConfig{}, nil)
	if p.config != config {
		t.Errorf("zero config should fall back to defaults, got %+v", p.config)
	}
}

func TestSyncProcessor_StartTwiceAndStop(t *testing.T) {
	sheet := memory.New()
	p := NewSyncProcessor(storage.NewRecords(storage.NewMemoryStore()), export.NewExporter(sheet, nil),
		SyncProcessorConfig{PollInterval: time.Hour}, nil)
	ctx := context.Background()

	if p.IsRunning() {
		t.Fatal("processor should not be running initially")
	}
	require.NoError(t, p.Start(ctx))
	assert.Error(t, p.Start(ctx), "second start must fail")
	assert.True(t, p.IsRunning())

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, p.Stop(stopCtx))
	assert.False(t, p.IsRunning())
	require.NoError(t, p.Stop(stopCtx), "stopping twice is a no-op")
}

func TestSyncProcessorConcurrentStop(t *testing.T) {
	p := NewSyncProcessor(storage.NewRecords(storage.NewMemoryStore()), export.NewExporter(nil, nil),
		SyncProcessorConfig{PollInterval: time.Hour}, nil)
	require.NoError(t, p.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Stop(ctx))
		}()
	}
	wg.Wait()
	assert.False(t, p.IsRunning())
}

func TestSyncProcessorStopAfterTimeout(t *testing.T) {
	loader := blockingLoader{entered: make(chan struct{}, 1), release: make(chan struct{})}
	p := NewSyncProcessor(loader, export.NewExporter(nil, nil), SyncProcessorConfig{PollInterval: time.Hour}, nil)
	p.Notify(1)
	require.NoError(t, p.Start(context.Background()))

	select {
	case <-loader.entered:
	case <-time.After(time.Second):
		t.Fatal("loop never started a sync")
	}

	// The loop is stuck in a load, so the first stop gives up.
	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Stop(short), context.DeadlineExceeded)
	assert.False(t, p.IsRunning())

	// Retrying must not signal the loop a second time.
	require.NoError(t, p.Stop(context.Background()))
	close(loader.release)

	// A restart gets its own loop and stops cleanly.
	require.NoError(t, p.Start(context.Background()))
	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	require.NoError(t, p.Stop(stopCtx))
}

func TestSyncProcessorMirrorsLedgerChanges(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	l := newLedger(t, &clock{now: time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)}, kv)
	sheet := memory.New()

	p := NewSyncProcessor(storage.NewRecords(kv), export.NewExporter(sheet, nil),
		SyncProcessorConfig{PollInterval: time.Hour}, nil)
	unsub := p.Watch(l.Bus())
	defer unsub()
	require.NoError(t, p.Start(ctx))
	defer p.Stop(ctx)

	// Initial mirror of the empty ledger.
	require.Eventually(t, func() bool { return sheet.Writes() >= 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, l.SetCurrency(ctx, "USD"))
	_, err := l.AddTransaction(ctx, core.TransactionInput{
		Type: core.Expense, Amount: decimal.NewFromInt(12), Category: "food",
		Description: "سوق", Date: core.NewDate(2024, 4, 1),
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(sheet.Values()) == 2 }, time.Second, 5*time.Millisecond)
	row := sheet.Values()[1]
	assert.Equal(t, "Food", row[1])
	assert.Equal(t, 12.0, row[4])
	assert.Equal(t, "MRU", row[5], "amounts stay in the stored unit whatever the display currency")

	require.Eventually(t, func() bool {
		s := p.Stats()
		return s.Synced == s.Requested
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, l.Version(), p.Stats().LastVersion)
}

func TestSyncProcessorGivesUpAfterMaxRetries(t *testing.T) {
	ctx := context.Background()
	sheet := memory.New()
	sheet.FailWith(errors.New("quota"))

	p := NewSyncProcessor(storage.NewRecords(storage.NewMemoryStore()), export.NewExporter(sheet, nil),
		SyncProcessorConfig{PollInterval: 5 * time.Millisecond, MaxRetries: 2}, nil)
	require.NoError(t, p.Start(ctx))
	defer p.Stop(ctx)

	require.Eventually(t, func() bool { return sheet.Writes() == 2 }, time.Second, time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 2, sheet.Writes(), "no retries after giving up")
	assert.Contains(t, p.Stats().LastError, "quota")

	sheet.FailWith(nil)
	p.Notify(7)
	require.Eventually(t, func() bool { return sheet.Writes() == 3 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return p.Stats().LastError == "" }, time.Second, time.Millisecond)
}

func TestSyncNowReportsLoadErrors(t *testing.T) {
	boom := errors.New("disk gone")
	p := NewSyncProcessor(failingLoader{err: boom}, export.NewExporter(memory.New(), nil), DefaultSyncProcessorConfig(), nil)

	err := p.SyncNow(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, p.Stats().LastError, "disk gone")
}

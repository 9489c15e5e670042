package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"smartwallet/internal/core"
)

// Record keys of the persistence layout.
const (
	KeyTransactions = "transactions"
	KeyConfigs      = "recurring_configs"
	KeyBudgets      = "budgets"
	KeyGoals        = "goals"
	KeyTheme        = "theme"
	KeyCurrency     = "currency"
)

// AllKeys lists every record of the layout.
var AllKeys = []string{KeyTransactions, KeyConfigs, KeyBudgets, KeyGoals, KeyTheme, KeyCurrency}

// State is the decoded content of every record. Missing records decode to
// empty collections and empty preferences.
type State struct {
	Transactions []core.Transaction
	Configs      []core.RecurringConfig
	Budgets      core.Budgets
	Goals        []core.Goal
	Theme        string
	Currency     string
}

// Records is a JSON codec over a KV.
type Records struct {
	kv KV
}

func NewRecords(kv KV) *Records {
	return &Records{kv: kv}
}

// LoadAll reads the six records concurrently.
func (r *Records) LoadAll(ctx context.Context) (State, error) {
	var st State
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return r.load(ctx, KeyTransactions, &st.Transactions) })
	g.Go(func() error { return r.load(ctx, KeyConfigs, &st.Configs) })
	g.Go(func() error { return r.load(ctx, KeyBudgets, &st.Budgets) })
	g.Go(func() error { return r.load(ctx, KeyGoals, &st.Goals) })
	g.Go(func() error { return r.load(ctx, KeyTheme, &st.Theme) })
	g.Go(func() error { return r.load(ctx, KeyCurrency, &st.Currency) })

	if err := g.Wait(); err != nil {
		return State{}, err
	}
	if st.Budgets == nil {
		st.Budgets = core.Budgets{}
	}
	return st, nil
}

func (r *Records) load(ctx context.Context, key string, dst any) error {
	raw, ok, err := r.kv.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if !ok || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// Save serializes v as the full value of key.
func (r *Records) Save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.kv.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SaveState writes the subset of records named by keys, taking values from st.
func (r *Records) SaveState(ctx context.Context, st State, keys ...string) error {
	var errs []error
	for _, key := range keys {
		var v any
		switch key {
		case KeyTransactions:
			v = nonNil(st.Transactions)
		case KeyConfigs:
			v = nonNil(st.Configs)
		case KeyBudgets:
			v = st.Budgets
		case KeyGoals:
			v = nonNil(st.Goals)
		case KeyTheme:
			v = st.Theme
		case KeyCurrency:
			v = st.Currency
		default:
			return fmt.Errorf("unknown record %q", key)
		}
		if err := r.Save(ctx, key, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clear removes every record.
func (r *Records) Clear(ctx context.Context) error {
	return r.kv.Clear(ctx)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

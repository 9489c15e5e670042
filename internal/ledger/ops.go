package ledger

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"

	"smartwallet/internal/core"
)

// AddTransaction validates and records a user transaction.
func (l *Ledger) AddTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	var out core.Transaction
	err := l.Apply(ctx, "add_transaction", func(tx *Tx) error {
		t, err := tx.AddTransaction(in)
		out = t
		return err
	})
	if err != nil {
		return core.Transaction{}, err
	}
	l.logger.InfoContext(ctx, "Transaction added",
		"id", out.ID, "type", out.Type, "category", out.Category,
		"amount", out.Amount.String(), "recurring", out.Recurring)
	return out, nil
}

// UpdateTransaction replaces a transaction. An unknown id is a silent no-op;
// the returned bool tells callers that want to know.
func (l *Ledger) UpdateTransaction(ctx context.Context, id int64, in core.TransactionInput) (bool, error) {
	var found bool
	err := l.Apply(ctx, "update_transaction", func(tx *Tx) error {
		var err error
		found, err = tx.UpdateTransaction(id, in)
		return err
	})
	if err == nil && !found {
		l.logger.DebugContext(ctx, "Update of unknown transaction ignored", "id", id)
	}
	return found, err
}

// DeleteTransaction removes a transaction and its recurring configuration, if any.
func (l *Ledger) DeleteTransaction(ctx context.Context, id int64) bool {
	var removed bool
	_ = l.Apply(ctx, "delete_transaction", func(tx *Tx) error {
		removed = tx.DeleteTransaction(id)
		return nil
	})
	if !removed {
		l.logger.DebugContext(ctx, "Delete of unknown transaction ignored", "id", id)
	}
	return removed
}

// SetBudget stores the cap parsed from raw; see Tx.SetBudget.
func (l *Ledger) SetBudget(ctx context.Context, category, raw string) (decimal.Decimal, error) {
	var amount decimal.Decimal
	err := l.Apply(ctx, "set_budget", func(tx *Tx) error {
		var err error
		amount, err = tx.SetBudget(category, raw)
		return err
	})
	return amount, err
}

func (l *Ledger) AddGoal(ctx context.Context, in core.GoalInput) (core.Goal, error) {
	var g core.Goal
	err := l.Apply(ctx, "add_goal", func(tx *Tx) error {
		var err error
		g, err = tx.AddGoal(in)
		return err
	})
	return g, err
}

func (l *Ledger) DeleteGoal(ctx context.Context, id string) bool {
	var removed bool
	_ = l.Apply(ctx, "delete_goal", func(tx *Tx) error {
		removed = tx.DeleteGoal(id)
		return nil
	})
	return removed
}

func (l *Ledger) SetTheme(ctx context.Context, theme string) error {
	return l.Apply(ctx, "set_theme", func(tx *Tx) error {
		tx.SetTheme(theme)
		return nil
	})
}

func (l *Ledger) SetCurrency(ctx context.Context, code string) error {
	return l.Apply(ctx, "set_currency", func(tx *Tx) error {
		tx.SetCurrency(code)
		return nil
	})
}

// ResetAll clears every collection and wipes the underlying storage. It cannot be undone.
func (l *Ledger) ResetAll(ctx context.Context) error {
	err := l.Apply(ctx, "reset", func(tx *Tx) error {
		tx.Reset()
		return nil
	})
	if err == nil {
		l.logger.WarnContext(ctx, "Ledger reset, all data cleared")
	}
	return err
}

// Preferences returns the persisted theme and currency code.
func (l *Ledger) Preferences() (theme, currency string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.Theme, l.state.Currency
}

// ParseID parses a transaction id from its decimal string form.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, &core.NotFoundError{Kind: "transaction", ID: s}
	}
	return id, nil
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartwallet/internal/analytics"
	"smartwallet/internal/core"
	"smartwallet/internal/events"
	"smartwallet/internal/ledger"
	"smartwallet/internal/storage"
)

func fundedLedger(t *testing.T, balance int64) (*ledger.Ledger, core.Goal) {
	t.Helper()
	ctx := context.Background()
	l := newLedger(t, &clock{now: time.Date(2024, 6, 15, 14, 0, 0, 0, time.UTC)}, storage.NewMemoryStore())

	_, err := l.AddTransaction(ctx, core.TransactionInput{
		Type: core.Income, Amount: decimal.NewFromInt(balance + 300), Category: "salary", Date: core.NewDate(2024, 6, 1),
	})
	require.NoError(t, err)
	_, err = l.AddTransaction(ctx, core.TransactionInput{
		Type: core.Expense, Amount: decimal.NewFromInt(300), Category: "food", Date: core.NewDate(2024, 6, 2),
	})
	require.NoError(t, err)

	goal, err := l.AddGoal(ctx, core.GoalInput{
		Title: "Laptop", TargetAmount: decimal.NewFromInt(500), CurrentAmount: decimal.NewFromInt(400),
	})
	require.NoError(t, err)
	return l, goal
}

func TestAllocateCompletesGoalOnce(t *testing.T) {
	ctx := context.Background()
	l, goal := fundedLedger(t, 700)
	a := NewGoalAllocator(l, nil)

	var completed []events.GoalCompleted
	events.SubscribeTyped(l.Bus(), events.TypeGoalCompleted, func(e events.Typed[events.GoalCompleted]) error {
		completed = append(completed, e.Data)
		return nil
	})

	res, err := a.Allocate(ctx, goal.ID, decimal.NewFromInt(150))
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.True(t, res.Goal.CurrentAmount.Equal(decimal.NewFromInt(550)), res.Goal.CurrentAmount.String())
	assert.True(t, res.Balance.Equal(decimal.NewFromInt(550)))

	assert.Equal(t, core.Expense, res.Transaction.Type)
	assert.Equal(t, core.OtherCategory, res.Transaction.Category)
	assert.Equal(t, SavingsPrefix+"Laptop", res.Transaction.Description)
	assert.Equal(t, "2024-06-15", res.Transaction.Date.String())

	snap := l.Snapshot()
	assert.True(t, analytics.ComputeTotals(snap.Transactions).Balance.Equal(decimal.NewFromInt(550)))
	assert.Equal(t, res.Transaction.ID, snap.Transactions[0].ID)

	require.Len(t, completed, 1)
	assert.Equal(t, goal.ID, completed[0].GoalID)
	assert.Equal(t, "Laptop", completed[0].Title)

	again, err := a.Allocate(ctx, goal.ID, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.False(t, again.Completed)
	assert.Len(t, completed, 1)
}

func TestAllocateInsufficientBalanceChangesNothing(t *testing.T) {
	ctx := context.Background()
	l, goal := fundedLedger(t, 100)
	a := NewGoalAllocator(l, nil)

	before, err := json.Marshal(l.Snapshot())
	require.NoError(t, err)

	_, err = a.Allocate(ctx, goal.ID, decimal.NewFromInt(150))
	var insufficient *core.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Available.Equal(decimal.NewFromInt(100)))
	assert.ErrorIs(t, err, core.ErrInsufficientBalance)

	after, err := json.Marshal(l.Snapshot())
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestAllocateRejects(t *testing.T) {
	ctx := context.Background()
	l, goal := fundedLedger(t, 700)
	a := NewGoalAllocator(l, nil)
	version := l.Version()

	tests := []struct {
		name   string
		goalID string
		raw    string
		target error
	}{
		{"zero", goal.ID, "0", core.ErrInvalidAmount},
		{"negative", goal.ID, "-5", core.ErrInvalidAmount},
		{"garbage", goal.ID, "abc", core.ErrInvalidAmount},
		{"unknown goal", "missing", "10", core.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.AllocateString(ctx, tt.goalID, tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
	assert.Equal(t, version, l.Version())
}

func TestAllocateExactBalance(t *testing.T) {
	ctx := context.Background()
	l, goal := fundedLedger(t, 50)

	res, err := NewGoalAllocator(l, nil).Allocate(ctx, goal.ID, decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.True(t, res.Balance.IsZero())
	assert.False(t, res.Completed)
}

package services

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"smartwallet/internal/analytics"
	"smartwallet/internal/core"
	"smartwallet/internal/events"
	"smartwallet/internal/ledger"
)

// SavingsPrefix starts the description of the expense recorded for an allocation.
const SavingsPrefix = "Savings for: "

// Allocation is the result of a successful transfer into a goal.
type Allocation struct {
	Goal        core.Goal        `json:"goal"`
	Transaction core.Transaction `json:"transaction"`
	// Completed is true only on the allocation that reached the target.
	Completed bool            `json:"completed"`
	Balance   decimal.Decimal `json:"balance"`
}

// GoalAllocator moves available balance into savings goals.
type GoalAllocator struct {
	ledger *ledger.Ledger
	logger *slog.Logger
}

func NewGoalAllocator(l *ledger.Ledger, logger *slog.Logger) *GoalAllocator {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoalAllocator{ledger: l, logger: logger.With("component", "allocation")}
}

// AllocateString parses a user supplied amount and allocates it.
func (a *GoalAllocator) AllocateString(ctx context.Context, goalID, raw string) (Allocation, error) {
	amount, err := core.ParseAmount(raw)
	if err != nil {
		return Allocation{}, &core.InvalidAmountError{Amount: amount}
	}
	return a.Allocate(ctx, goalID, amount)
}

// Allocate credits amount to the goal and records it as an "other" expense,
// so the balance drops by the same amount. An amount above the current
// balance is rejected whole and nothing changes. GoalCompleted is published
// when the goal crosses its target.
func (a *GoalAllocator) Allocate(ctx context.Context, goalID string, amount decimal.Decimal) (Allocation, error) {
	if !amount.IsPositive() {
		return Allocation{}, &core.InvalidAmountError{Amount: amount}
	}

	var out Allocation
	err := a.ledger.Apply(ctx, "allocate_goal", func(tx *ledger.Tx) error {
		goal, ok := tx.Goal(goalID)
		if !ok {
			return &core.NotFoundError{Kind: "goal", ID: goalID}
		}

		balance := analytics.ComputeTotals(tx.Transactions()).Balance
		if amount.GreaterThan(balance) {
			return &core.InsufficientBalanceError{Requested: amount, Available: balance}
		}

		before, after, _ := tx.CreditGoal(goalID, amount)
		saving, err := tx.AddTransaction(core.TransactionInput{
			Type:        core.Expense,
			Amount:      amount,
			Category:    core.OtherCategory,
			Description: SavingsPrefix + goal.Title,
			Date:        core.DateOf(tx.Now()),
		})
		if err != nil {
			return err
		}

		out = Allocation{
			Goal:        after,
			Transaction: saving,
			Completed:   !before.Completed() && after.Completed(),
			Balance:     balance.Sub(amount),
		}
		if out.Completed {
			tx.Emit(events.New(ctx, events.TypeGoalCompleted, events.GoalCompleted{
				GoalID:  after.ID,
				Title:   after.Title,
				Target:  after.TargetAmount,
				Reached: after.CurrentAmount,
				At:      tx.Now(),
			}))
		}
		return nil
	})
	if err != nil {
		a.logger.InfoContext(ctx, "Allocation rejected", "goal_id", goalID, "amount", amount.String(), "error", err)
		return Allocation{}, err
	}

	a.logger.InfoContext(ctx, "Allocated to goal",
		"goal_id", goalID,
		"amount", amount.String(),
		"current", out.Goal.CurrentAmount.String(),
		"completed", out.Completed)
	return out, nil
}

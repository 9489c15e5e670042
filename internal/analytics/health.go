package analytics

import (
	"github.com/shopspring/decimal"

	"smartwallet/internal/core"
)

var (
	expenseWeight = decimal.NewFromInt(80)
	goalWeight    = decimal.NewFromInt(20)
	hundred       = decimal.NewFromInt(100)
)

// HealthScore rates the ledger from 0 to 100. The spending ratio dominates;
// average goal progress can only add to the score.
//
//	no income, no expense   -> 100
//	no income, some expense -> 0
//	otherwise               -> 100 - expense/income*80 + avgGoalProgress*20
func HealthScore(t Totals, goals []core.Goal) int {
	if t.Income.IsZero() && t.Expense.IsZero() {
		return 100
	}
	if t.Income.IsZero() {
		return 0
	}

	score := hundred.Sub(t.Expense.Div(t.Income).Mul(expenseWeight))
	if len(goals) > 0 {
		score = score.Add(averageProgress(goals).Mul(goalWeight))
	}

	rounded := score.Round(0).IntPart()
	switch {
	case rounded < 0:
		return 0
	case rounded > 100:
		return 100
	default:
		return int(rounded)
	}
}

func averageProgress(goals []core.Goal) decimal.Decimal {
	sum := decimal.Zero
	for _, g := range goals {
		if g.TargetAmount.IsPositive() {
			sum = sum.Add(g.CurrentAmount.Div(g.TargetAmount))
		}
	}
	return sum.Div(decimal.NewFromInt(int64(len(goals))))
}

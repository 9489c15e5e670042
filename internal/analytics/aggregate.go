// Package analytics derives statistics from a ledger snapshot.
//
// Every function here is pure: the same transactions, budgets, goals and
// clock always produce the same result. Engine adds memoization keyed on
// the ledger version and the calendar day.
package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"smartwallet/internal/core"
)

// Totals are exact sums over the whole ledger.
type Totals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// CategorySpend pairs what was spent in an expense category with its cap.
type CategorySpend struct {
	Category string          `json:"id"`
	Name     string          `json:"name"`
	NameEn   string          `json:"nameEn"`
	Icon     string          `json:"icon"`
	Color    string          `json:"color"`
	Spent    decimal.Decimal `json:"spent"`
	// Budget is zero when no cap is set.
	Budget decimal.Decimal `json:"budget"`
}

// OverBudget reports a capped category whose spend exceeds the cap.
func (c CategorySpend) OverBudget() bool {
	return c.Budget.IsPositive() && c.Spent.GreaterThan(c.Budget)
}

// Remaining is max(0, budget - spent).
func (c CategorySpend) Remaining() decimal.Decimal {
	return decimal.Max(decimal.Zero, c.Budget.Sub(c.Spent))
}

// Stats is the derived snapshot consumed by display and export.
type Stats struct {
	Totals
	SafeToSpend      decimal.Decimal `json:"safeToSpend"`
	RemainingBudgets decimal.Decimal `json:"remainingBudgets"`
	RoundUpSavings   decimal.Decimal `json:"roundUpSavings"`
	CategorySpending []CategorySpend `json:"categorySpending"`
	Forecast         Forecast        `json:"forecast"`
	HealthScore      int             `json:"healthScore"`
	HealthBand       Band            `json:"healthBand"`
	Advice           *Advice         `json:"advice"`
	Months           MonthComparison `json:"monthComparison"`
	Version          uint64          `json:"version"`
	AsOf             core.Date       `json:"asOf"`
}

// ComputeTotals sums income and expense.
func ComputeTotals(txs []core.Transaction) Totals {
	income, expense := decimal.Zero, decimal.Zero
	for _, t := range txs {
		switch t.Type {
		case core.Income:
			income = income.Add(t.Amount)
		case core.Expense:
			expense = expense.Add(t.Amount)
		}
	}
	return Totals{Income: income, Expense: expense, Balance: income.Sub(expense)}
}

// ComputeCategorySpending returns, in registry order, every expense category
// with nonzero spend or a nonzero budget.
func ComputeCategorySpending(txs []core.Transaction, budgets core.Budgets) []CategorySpend {
	spent := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if t.Type == core.Expense {
			spent[t.Category] = spent[t.Category].Add(t.Amount)
		}
	}

	var out []CategorySpend
	for _, c := range core.CategoriesOf(core.Expense) {
		s := spent[c.Key]
		b, _ := budgets.Cap(c.Key)
		if s.IsZero() && b.IsZero() {
			continue
		}
		out = append(out, CategorySpend{
			Category: c.Key,
			Name:     c.Name,
			NameEn:   c.NameEn,
			Icon:     c.Icon,
			Color:    c.Color,
			Spent:    s,
			Budget:   b,
		})
	}
	return out
}

// RemainingBudgetReserve is the sum of what is left under each cap. Categories
// without a budget contribute nothing.
func RemainingBudgetReserve(spending []CategorySpend) decimal.Decimal {
	total := decimal.Zero
	for _, c := range spending {
		total = total.Add(c.Remaining())
	}
	return total
}

// RoundUpSavings is the notional spare change of every expense rounded up to
// the next whole unit. It is never moved anywhere.
func RoundUpSavings(txs []core.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		if t.Type == core.Expense {
			total = total.Add(t.Amount.Ceil().Sub(t.Amount))
		}
	}
	return total
}

// Compute derives the full Stats for one point in time.
func Compute(txs []core.Transaction, budgets core.Budgets, goals []core.Goal, now time.Time) Stats {
	totals := ComputeTotals(txs)
	spending := ComputeCategorySpending(txs, budgets)
	reserve := RemainingBudgetReserve(spending)
	score := HealthScore(totals, goals)

	return Stats{
		Totals:           totals,
		SafeToSpend:      totals.Balance.Sub(reserve),
		RemainingBudgets: reserve,
		RoundUpSavings:   RoundUpSavings(txs),
		CategorySpending: spending,
		Forecast:         ComputeForecast(totals, spending, now),
		HealthScore:      score,
		HealthBand:       HealthBand(score),
		Advice:           SmartAdvice(spending, totals),
		Months:           CompareMonths(txs, now),
		AsOf:             core.DateOf(now),
	}
}

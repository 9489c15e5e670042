package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"smartwallet/internal/schedule"
)

// Forecast projects month-end figures from the month-to-date daily rate.
type Forecast struct {
	DailyExpenseRate        decimal.Decimal  `json:"dailyExpenseRate"`
	ProjectedMonthlyExpense decimal.Decimal  `json:"projectedMonthlyExpense"`
	ForecastedBalance       decimal.Decimal  `json:"forecastedBalance"`
	DaysRemaining           int              `json:"daysRemaining"`
	AtRiskCategories        []AtRiskCategory `json:"atRiskCategories"`
}

// AtRiskCategory is a budgeted category expected to exhaust its cap before month end.
type AtRiskCategory struct {
	CategorySpend
	DaysUntilBurnout int64 `json:"daysUntilBurnout"`
}

// ComputeForecast uses the day of month d and month length D of now.
func ComputeForecast(t Totals, spending []CategorySpend, now time.Time) Forecast {
	day := now.Day()
	days := schedule.DaysIn(now.Year(), now.Month())

	rate := decimal.Zero
	if day > 0 {
		rate = t.Expense.Div(decimal.NewFromInt(int64(day)))
	}
	projected := rate.Mul(decimal.NewFromInt(int64(days)))

	return Forecast{
		DailyExpenseRate:        rate,
		ProjectedMonthlyExpense: projected,
		ForecastedBalance:       t.Income.Sub(projected),
		DaysRemaining:           days - day,
		AtRiskCategories:        AtRisk(spending, day, days-day),
	}
}

// AtRisk returns the budgeted, nonzero-spend categories whose cap runs out
// within daysRemaining at the current daily rate, soonest first. Categories
// already over their cap have a negative burnout and are not reported.
func AtRisk(spending []CategorySpend, day, daysRemaining int) []AtRiskCategory {
	if day <= 0 {
		return nil
	}
	d := decimal.NewFromInt(int64(day))

	var out []AtRiskCategory
	for _, c := range spending {
		if !c.Budget.IsPositive() || !c.Spent.IsPositive() {
			continue
		}
		// floor((budget - spent) / (spent / d)) computed as an exact integer division.
		burnout := floorDiv(c.Budget.Sub(c.Spent).Mul(d), c.Spent)
		if burnout < 0 || burnout > int64(daysRemaining) {
			continue
		}
		out = append(out, AtRiskCategory{CategorySpend: c, DaysUntilBurnout: burnout})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysUntilBurnout < out[j].DaysUntilBurnout
	})
	return out
}

// floorDiv returns floor(num/den) for den > 0.
func floorDiv(num, den decimal.Decimal) int64 {
	q, r := num.QuoRem(den, 0)
	if r.IsNegative() {
		q = q.Sub(decimal.NewFromInt(1))
	}
	return q.IntPart()
}

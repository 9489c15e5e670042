package analytics

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"smartwallet/internal/core"
)

type AdviceKind string

const (
	AdviceWarning  AdviceKind = "warning"
	AdviceInsight  AdviceKind = "insight"
	AdviceTip      AdviceKind = "tip"
	AdvicePositive AdviceKind = "positive"
)

// Advice is the single hint shown next to the spending breakdown.
type Advice struct {
	Kind     AdviceKind `json:"kind"`
	Title    string     `json:"title"`
	Message  string     `json:"message"`
	Category string     `json:"category,omitempty"`
	// OverflowPercent is how far a warning's category ran past its cap.
	OverflowPercent int64 `json:"overflowPercent,omitempty"`
}

var (
	dominantShare  = decimal.RequireFromString("0.4")
	minSavingsRate = decimal.NewFromInt(20)
)

// SmartAdvice picks the first rule that applies, in order:
//
//	a capped category over budget          -> warning with the overflow percent
//	the largest category above 40% income  -> insight
//	savings rate below 20%                 -> tip
//	otherwise                              -> positive
//
// It returns nil when nothing has been spent.
func SmartAdvice(spending []CategorySpend, t Totals) *Advice {
	var spent []CategorySpend
	for _, c := range spending {
		if c.Spent.IsPositive() {
			spent = append(spent, c)
		}
	}
	if len(spent) == 0 {
		return nil
	}

	for _, c := range spent {
		if c.OverBudget() {
			pct := c.Spent.Sub(c.Budget).Div(c.Budget).Mul(hundred).Round(0).IntPart()
			return &Advice{
				Kind:            AdviceWarning,
				Title:           "Budget exceeded",
				Message:         fmt.Sprintf("You are %d%% over the %q budget. Try cutting back here.", pct, c.NameEn),
				Category:        c.Category,
				OverflowPercent: pct,
			}
		}
	}

	// First of equals wins, so ties keep registry order.
	biggest := spent[0]
	for _, c := range spent[1:] {
		if c.Spent.GreaterThan(biggest.Spent) {
			biggest = c
		}
	}
	if t.Income.IsPositive() && biggest.Spent.GreaterThan(t.Income.Mul(dominantShare)) {
		return &Advice{
			Kind:     AdviceInsight,
			Title:    "Spending pattern",
			Message:  fmt.Sprintf("%q takes more than 40%% of your income. Is there a cheaper option?", biggest.NameEn),
			Category: biggest.Category,
		}
	}

	if t.Income.IsPositive() && t.Income.Sub(t.Expense).Div(t.Income).Mul(hundred).LessThan(minSavingsRate) {
		return &Advice{
			Kind:    AdviceTip,
			Title:   "Savings tip",
			Message: "Your savings rate is below 20%. The 50/30/20 rule can build a safety net faster.",
		}
	}

	return &Advice{
		Kind:    AdvicePositive,
		Title:   "On track",
		Message: "You are keeping to your budgets this month. Keep it up!",
	}
}

// MonthComparison sets this calendar month's expenses against last month's.
type MonthComparison struct {
	ThisMonth decimal.Decimal `json:"thisMonth"`
	LastMonth decimal.Decimal `json:"lastMonth"`
	// DiffPercent is |this-last|/last as a whole percent; zero without last month data.
	DiffPercent int64 `json:"diffPercent"`
	IsHigher    bool  `json:"isHigher"`
	HasData     bool  `json:"hasData"`
}

var half = decimal.RequireFromString("0.5")

// CompareMonths sums expenses of the month containing now and the month before it.
func CompareMonths(txs []core.Transaction, now time.Time) MonthComparison {
	today := core.DateOf(now)
	prev := time.Date(today.Year(), today.Month()-1, 1, 0, 0, 0, 0, time.UTC)

	this, last := decimal.Zero, decimal.Zero
	for _, t := range txs {
		if t.Type != core.Expense {
			continue
		}
		switch {
		case sameMonth(t.Date.Time, today.Time):
			this = this.Add(t.Amount)
		case sameMonth(t.Date.Time, prev):
			last = last.Add(t.Amount)
		}
	}

	c := MonthComparison{
		ThisMonth: this,
		LastMonth: last,
		IsHigher:  this.GreaterThan(last),
		HasData:   last.IsPositive(),
	}
	if c.HasData {
		// Halves round up before the sign is dropped.
		diff := this.Sub(last).Div(last).Mul(hundred)
		c.DiffPercent = diff.Add(half).Floor().Abs().IntPart()
	}
	return c
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// Band is the qualitative reading of a health score.
type Band string

const (
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandWeak      Band = "weak"
)

// HealthBand maps a score to its band: 80 and up is excellent, 50 and up good.
func HealthBand(score int) Band {
	switch {
	case score >= 80:
		return BandExcellent
	case score >= 50:
		return BandGood
	default:
		return BandWeak
	}
}

// Message is the one-line summary shown with the band.
func (b Band) Message() string {
	switch b {
	case BandExcellent:
		return "Outstanding. Your budget is fully under control."
	case BandGood:
		return "Stable, with room to save more."
	default:
		return "Expenses are high compared with your income."
	}
}

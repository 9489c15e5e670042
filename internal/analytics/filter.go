package analytics

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"smartwallet/internal/core"
)

// AllValue disables the type or category criterion.
const AllValue = "all"

// Criteria selects transactions. Zero values disable a criterion, and all
// enabled criteria must match.
type Criteria struct {
	Query     string
	Type      string
	Category  string
	Start     core.Date
	End       core.Date
	MinAmount decimal.NullDecimal
}

// Active reports whether any criterion is enabled.
func (c Criteria) Active() bool {
	return strings.TrimSpace(c.Query) != "" ||
		enabled(c.Type) || enabled(c.Category) ||
		!c.Start.IsZero() || !c.End.IsZero() || c.MinAmount.Valid
}

func enabled(v string) bool { return v != "" && v != AllValue }

// Filter returns the matching transactions in their input order. The input is not modified.
func Filter(txs []core.Transaction, c Criteria) []core.Transaction {
	m := newMatcher(c)
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if m.match(t) {
			out = append(out, t)
		}
	}
	return out
}

type matcher struct {
	Criteria
	fold  cases.Caser
	query string
}

func newMatcher(c Criteria) *matcher {
	fold := cases.Fold()
	return &matcher{Criteria: c, fold: fold, query: fold.String(strings.TrimSpace(c.Query))}
}

func (m *matcher) match(t core.Transaction) bool {
	if enabled(m.Type) && string(t.Type) != m.Type {
		return false
	}
	if enabled(m.Category) && t.Category != m.Category {
		return false
	}
	if !m.Start.IsZero() && t.Date.Before(m.Start.Time) {
		return false
	}
	if !m.End.IsZero() && t.Date.After(m.End.Time) {
		return false
	}
	if m.MinAmount.Valid && t.Amount.LessThan(m.MinAmount.Decimal) {
		return false
	}
	return m.matchQuery(t)
}

// matchQuery compares case-folded text against the description and both category names.
func (m *matcher) matchQuery(t core.Transaction) bool {
	if m.query == "" {
		return true
	}
	if strings.Contains(m.fold.String(t.Description), m.query) {
		return true
	}
	cat, ok := core.LookupCategory(t.Category)
	if !ok {
		return false
	}
	return strings.Contains(m.fold.String(cat.Name), m.query) ||
		strings.Contains(m.fold.String(cat.NameEn), m.query)
}

// DateGroup holds the transactions of one calendar day.
type DateGroup struct {
	Date         core.Date          `json:"date"`
	Transactions []core.Transaction `json:"transactions"`
}

// GroupByDate groups transactions by day, newest day first. Within a day the
// most recently created transaction comes first.
func GroupByDate(txs []core.Transaction) []DateGroup {
	sorted := append([]core.Transaction(nil), txs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date.Time) {
			return sorted[i].Date.After(sorted[j].Date.Time)
		}
		return sorted[i].ID > sorted[j].ID
	})

	var groups []DateGroup
	for _, t := range sorted {
		if n := len(groups); n > 0 && groups[n-1].Date.Equal(t.Date.Time) {
			groups[n-1].Transactions = append(groups[n-1].Transactions, t)
			continue
		}
		groups = append(groups, DateGroup{Date: t.Date, Transactions: []core.Transaction{t}})
	}
	return groups
}

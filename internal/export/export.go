// Package export projects the ledger into a flat table for CSV files and
// spreadsheets. The projection only uses Latin script so the output renders
// in tools without right-to-left or extended font support.
package export

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"smartwallet/internal/core"
	"smartwallet/internal/currency"
)

// Header is the column layout shared by every writer.
var Header = []string{"Date", "Description", "Category", "Type", "Amount", "Currency"}

// Row is one exported transaction.
type Row struct {
	Date        core.Date
	Description string
	Category    string
	Type        core.TransactionType
	Amount      decimal.Decimal
}

// Totals are the income and expense sums re-derived from exported rows.
type Totals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// Project converts transactions to rows, keeping their order. The category
// column carries the English category name, and a description that is empty
// or written in a non-Latin script is replaced by that name.
func Project(txs []core.Transaction) []Row {
	rows := make([]Row, 0, len(txs))
	for _, t := range txs {
		cat := core.CategoryOrFallback(t.Category)
		desc := strings.TrimSpace(t.Description)
		if desc == "" || !IsLatin(desc) {
			desc = cat.NameEn
		}
		rows = append(rows, Row{
			Date:        t.Date,
			Description: desc,
			Category:    cat.NameEn,
			Type:        t.Type,
			Amount:      t.Amount,
		})
	}
	return rows
}

// IsLatin reports whether every letter in s belongs to the Latin script.
// Digits, punctuation and symbols are ignored.
func IsLatin(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			return false
		}
	}
	return true
}

// SumRows re-derives totals from exported rows. For any ledger it matches the
// income and expense totals of the transactions the rows came from.
func SumRows(rows []Row) Totals {
	t := Totals{Income: decimal.Zero, Expense: decimal.Zero}
	for _, r := range rows {
		switch r.Type {
		case core.Income:
			t.Income = t.Income.Add(r.Amount)
		case core.Expense:
			t.Expense = t.Expense.Add(r.Amount)
		}
	}
	return t
}

// Record renders r as string cells in Header order. Amounts stay in the
// stored unit, so the Currency cell is always currency.Base.
func (r Row) Record() []string {
	return []string{
		r.Date.String(),
		r.Description,
		r.Category,
		string(r.Type),
		r.Amount.String(),
		currency.Base,
	}
}

// Values renders the header and rows as spreadsheet cells. Amounts are
// numeric cells so sheet formulas can sum them.
func Values(rows []Row) [][]any {
	out := make([][]any, 0, len(rows)+1)
	head := make([]any, len(Header))
	for i, h := range Header {
		head[i] = h
	}
	out = append(out, head)
	for _, r := range rows {
		amount, _ := r.Amount.Float64()
		out = append(out, []any{r.Date.String(), r.Description, r.Category, string(r.Type), amount, currency.Base})
	}
	return out
}

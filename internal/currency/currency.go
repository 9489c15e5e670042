// Package currency formats ledger amounts for display. Amounts are always
// stored in the base unit (MRU); other currencies are a display conversion.
package currency

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Base is the unit every stored amount is expressed in.
const Base = "MRU"

// Currency converts from the base unit with Rate.
type Currency struct {
	Code     string          `json:"code"`
	Symbol   string          `json:"symbol"`
	Name     string          `json:"name"`
	Rate     decimal.Decimal `json:"rate"`
	Decimals int32           `json:"decimals"`
}

var registry = map[string]Currency{
	"MRU": {Code: "MRU", Symbol: "UM", Name: "Mauritanian ouguiya", Rate: decimal.NewFromInt(1), Decimals: 2},
	// Pre-2018 ouguiya, ten to one against MRU and shown without fractions.
	"MRO": {Code: "MRO", Symbol: "UM (old)", Name: "Mauritanian ouguiya (old)", Rate: decimal.NewFromInt(10), Decimals: 0},
	"USD": {Code: "USD", Symbol: "$", Name: "US dollar", Rate: decimal.RequireFromString("0.025"), Decimals: 2},
	"EUR": {Code: "EUR", Symbol: "€", Name: "Euro", Rate: decimal.RequireFromString("0.023"), Decimals: 2},
}

var printer = message.NewPrinter(language.English)

// Lookup returns the currency for code, case-insensitively.
func Lookup(code string) (Currency, bool) {
	c, ok := registry[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

// Get returns the currency for code, falling back to the base currency.
func Get(code string) Currency {
	if c, ok := Lookup(code); ok {
		return c
	}
	return registry[Base]
}

// Valid reports whether code is a known currency.
func Valid(code string) bool {
	_, ok := Lookup(code)
	return ok
}

// All returns the registry sorted by code.
func All() []Currency {
	out := make([]Currency, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Convert turns a base amount into code, rounded to that currency's decimals.
func Convert(amount decimal.Decimal, code string) decimal.Decimal {
	c := Get(code)
	return amount.Mul(c.Rate).Round(c.Decimals)
}

// Format converts amount and renders it with thousands grouping followed by
// the symbol, e.g. "1,234.5 $". Trailing fraction zeros are dropped.
func Format(amount decimal.Decimal, code string) string {
	c := Get(code)
	v, _ := amount.Mul(c.Rate).Round(c.Decimals).Float64()
	return printer.Sprint(number.Decimal(v, number.MaxFractionDigits(int(c.Decimals)))) + " " + c.Symbol
}

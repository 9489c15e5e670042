package main

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"smartwallet/internal/analytics"
	"smartwallet/internal/core"
)

func TestRenderStats(t *testing.T) {
	s := analytics.Stats{
		Totals: analytics.Totals{
			Income:  decimal.NewFromInt(1000),
			Expense: decimal.NewFromInt(250),
			Balance: decimal.NewFromInt(750),
		},
		SafeToSpend: decimal.NewFromInt(-40),
		CategorySpending: []analytics.CategorySpend{
			{Category: "food", NameEn: "Food", Spent: decimal.NewFromInt(200), Budget: decimal.NewFromInt(100)},
		},
		HealthScore: 55,
		HealthBand:  analytics.BandGood,
		Advice:      &analytics.Advice{Kind: analytics.AdviceWarning, Title: "Budget exceeded", Message: "over by 100%"},
		Months: analytics.MonthComparison{
			ThisMonth: decimal.NewFromInt(250), LastMonth: decimal.NewFromInt(200),
			DiffPercent: 25, IsHigher: true, HasData: true,
		},
		Version: 7,
		AsOf:    core.NewDate(2024, 6, 15),
	}
	goals := []core.Goal{
		{Title: "Laptop", TargetAmount: decimal.NewFromInt(100), CurrentAmount: decimal.NewFromInt(100)},
	}

	out := renderStats(s, goals, "MRU")

	for _, want := range []string{"2024-06-15", "(v7)", "Balance", "Safe to spend", "55/100 good", "Budget exceeded: over by 100%", "▲ 25% vs last month", "Food", "Laptop", "done"} {
		assert.Contains(t, out, want)
	}
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestBar(t *testing.T) {
	assert.Equal(t, barWidth, strings.Count(bar(0), "░"))
	assert.Equal(t, barWidth/2, strings.Count(bar(0.5), "█"))
	assert.Equal(t, barWidth, strings.Count(bar(3), "█"), "overruns are drawn full")
	assert.Equal(t, barWidth, strings.Count(bar(-1), "░"))
}

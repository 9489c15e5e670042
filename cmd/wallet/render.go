package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"smartwallet/internal/analytics"
	"smartwallet/internal/core"
	"smartwallet/internal/currency"
)

var (
	incomeColor  = lipgloss.Color("#10B981")
	expenseColor = lipgloss.Color("#EF4444")
	accentColor  = lipgloss.Color("#6366F1")
	warnColor    = lipgloss.Color("#F59E0B")
	subtleColor  = lipgloss.Color("#6B7280")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Width(22).
			Foreground(subtleColor)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(subtleColor).
			Padding(1, 2)

	accentStyle  = lipgloss.NewStyle().Foreground(accentColor)
	incomeStyle  = lipgloss.NewStyle().Foreground(incomeColor)
	expenseStyle = lipgloss.NewStyle().Foreground(expenseColor)
	successStyle = lipgloss.NewStyle().Foreground(incomeColor)
	warnStyle    = lipgloss.NewStyle().Foreground(warnColor)
	subtleStyle  = lipgloss.NewStyle().Foreground(subtleColor)
)

const barWidth = 20

// renderStats draws the dashboard summary for a terminal.
func renderStats(s analytics.Stats, goals []core.Goal, code string) string {
	money := func(d decimal.Decimal) string { return currency.Format(d, code) }
	signed := func(d decimal.Decimal) string {
		if d.IsNegative() {
			return expenseStyle.Render(money(d))
		}
		return incomeStyle.Render(money(d))
	}
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
	}

	lines := []string{
		titleStyle.Render(fmt.Sprintf("SmartWallet  %s  (v%d)", s.AsOf, s.Version)),
		row("Balance", signed(s.Balance)),
		row("Income", incomeStyle.Render(money(s.Income))),
		row("Expenses", expenseStyle.Render(money(s.Expense))),
		row("Safe to spend", signed(s.SafeToSpend)),
		row("Remaining budgets", money(s.RemainingBudgets)),
		row("Round-up savings", subtleStyle.Render(money(s.RoundUpSavings))),
		row("Health score", healthStyle(s.HealthScore).Render(fmt.Sprintf("%d/100 %s", s.HealthScore, s.HealthBand))),
		row("", subtleStyle.Render(s.HealthBand.Message())),
		row("This month", monthTrend(s.Months, money)),
	}
	if a := s.Advice; a != nil {
		lines = append(lines, adviceStyle(a.Kind).Render(a.Title+": "+a.Message))
	}

	if len(s.CategorySpending) > 0 {
		lines = append(lines, sectionStyle.Render("Spending"))
		for _, c := range s.CategorySpending {
			value := money(c.Spent)
			if c.Budget.IsPositive() {
				ratio := c.Spent.Div(c.Budget).InexactFloat64()
				value = fmt.Sprintf("%s %s / %s", bar(ratio), value, money(c.Budget))
			}
			lines = append(lines, row(c.Icon+" "+c.NameEn, value))
		}
	}

	f := s.Forecast
	lines = append(lines,
		sectionStyle.Render("Forecast"),
		row("Daily expense rate", money(f.DailyExpenseRate)),
		row("Projected expenses", money(f.ProjectedMonthlyExpense)),
		row("Month-end balance", signed(f.ForecastedBalance)),
		row("Days remaining", fmt.Sprintf("%d", f.DaysRemaining)),
	)
	for _, c := range f.AtRiskCategories {
		lines = append(lines, warnStyle.Render(fmt.Sprintf("! %s runs out in %d days", c.NameEn, c.DaysUntilBurnout)))
	}

	if len(goals) > 0 {
		lines = append(lines, sectionStyle.Render("Goals"))
		for _, g := range goals {
			status := fmt.Sprintf("%s %s / %s", bar(g.Progress()), money(g.CurrentAmount), money(g.TargetAmount))
			if g.Completed() {
				status += " " + successStyle.Render("done")
			}
			lines = append(lines, row(g.Title, status))
		}
	}

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)) + "\n"
}

func monthTrend(m analytics.MonthComparison, money func(decimal.Decimal) string) string {
	out := money(m.ThisMonth)
	switch {
	case !m.HasData:
		return out
	case m.IsHigher:
		return out + " " + expenseStyle.Render(fmt.Sprintf("▲ %d%% vs last month", m.DiffPercent))
	default:
		return out + " " + incomeStyle.Render(fmt.Sprintf("▼ %d%% vs last month", m.DiffPercent))
	}
}

func adviceStyle(kind analytics.AdviceKind) lipgloss.Style {
	switch kind {
	case analytics.AdviceWarning:
		return expenseStyle
	case analytics.AdviceInsight, analytics.AdviceTip:
		return warnStyle
	default:
		return successStyle
	}
}

func healthStyle(score int) lipgloss.Style {
	switch {
	case score >= 70:
		return incomeStyle
	case score >= 40:
		return warnStyle
	default:
		return expenseStyle
	}
}

// bar renders ratio as a fixed-width gauge; overruns are drawn full in red.
func bar(ratio float64) string {
	filled := int(ratio * barWidth)
	if filled < 0 {
		filled = 0
	}
	style := accentStyle
	if ratio > 1 {
		filled = barWidth
		style = expenseStyle
	}
	return style.Render(strings.Repeat("█", filled)) + subtleStyle.Render(strings.Repeat("░", barWidth-filled))
}

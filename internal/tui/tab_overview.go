package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/partsbin/internal/cli"
	"github.com/theirongolddev/partsbin/internal/tui/components"
	"github.com/theirongolddev/partsbin/internal/tui/theme"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	s := a.summary
	var b strings.Builder

	spendDelta := fmt.Sprintf("%s/day over %dd", a.money.Format(s.SpendPerDay), a.days)
	budgetValue := "no budget"
	budgetColor := t.TextMuted
	budgetDelta := "set one in Settings"
	if a.budget.HasBudget() {
		budgetValue = cli.FormatPercent(a.budget.UsedFraction)
		budgetColor = t.LevelColor(a.budget.Level)
		budgetDelta = "of " + a.money.Format(a.budget.MonthlyBudget) + " this month"
	}
	lowColor := t.Green
	if s.LowStock > 0 {
		lowColor = t.Orange
	}

	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Inventory value", Value: cli.FormatMoney(a.money, s.InventoryValue),
			Delta: fmt.Sprintf("%s items, %s units", cli.FormatNumber(int64(s.Items)), cli.FormatCount(int64(s.Units)))},
		{Label: fmt.Sprintf("Spend (%dd)", a.days), Value: cli.FormatMoney(a.money, s.Spend), Delta: spendDelta},
		{Label: "Month budget", Value: budgetValue, Delta: budgetDelta, Color: budgetColor},
		{Label: "Open projects", Value: cli.FormatNumber(int64(s.OpenProjects)),
			Delta: cli.FormatMoney(a.money, s.PlannedCost) + " planned"},
		{Label: "Low stock", Value: cli.FormatNumber(int64(s.LowStock)),
			Delta: fmt.Sprintf("%d recommendations", len(a.recs)), Color: lowColor},
	}, cw))
	b.WriteString("\n")

	if a.budget.HasBudget() {
		inner := components.CardInnerWidth(cw)
		spent := a.money.Format(a.budget.CurrentSpend)
		barW := max(inner-lipgloss.Width(spent)-18, 10)
		body := components.BudgetBar(spent, a.budget.UsedFraction, a.budget.Level, lipgloss.Width(spent), barW) + "\n" +
			lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render(fmt.Sprintf(
				"projected %s · %s/day · %d days left",
				a.money.Format(a.budget.ProjectedMonthly), a.money.Format(a.budget.DailyBurnRate), a.budget.DaysRemaining))
		b.WriteString(components.ContentCard("This month", body, cw))
		b.WriteString("\n")
	}

	if len(a.months) > 0 {
		bars := make([]components.Bar, len(a.months))
		for i, m := range a.months {
			// Months come newest first; the chart reads left to right.
			bars[len(a.months)-1-i] = components.Bar{
				Label: m.Month.Format("Jan"),
				Value: m.Total.InexactFloat64(),
			}
		}
		chartH := 8
		if a.isCompactLayout() {
			chartH = 6
		}
		b.WriteString(components.ContentCard("Monthly spend",
			components.ColumnChart(bars, a.money.Symbol(), t.Blue, components.CardInnerWidth(cw), chartH), cw))
		b.WriteString("\n")
	}

	if a.isCompactLayout() {
		b.WriteString(a.renderSpendByCategory(cw))
		b.WriteString("\n")
		b.WriteString(a.renderTopRecommendations(cw))
	} else {
		halves := components.LayoutRow(cw, 2)
		b.WriteString(components.CardRow([]string{
			a.renderSpendByCategory(halves[0]),
			a.renderTopRecommendations(halves[1]),
		}))
	}
	return b.String()
}

func (a App) renderSpendByCategory(w int) string {
	t := theme.Active
	rows := a.analysis.ByCategory
	if len(rows) == 0 {
		return components.ContentCard(fmt.Sprintf("Spend by category (%dd)", a.days),
			lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render("No purchases in range"), w)
	}
	rows = rows[:min(len(rows), 6)]
	bars := make([]components.Bar, len(rows))
	for i, r := range rows {
		bars[i] = components.Bar{Label: r.Key, Value: r.Total.InexactFloat64()}
	}
	shares := make(map[string]float64, len(rows))
	for _, r := range rows {
		shares[r.Key] = r.Share
	}
	body := components.ShareBars(bars, func(b components.Bar) string {
		return fmt.Sprintf("%6s", cli.FormatPercent(shares[b.Label]))
	}, t.Accent, components.CardInnerWidth(w))
	return components.ContentCard(fmt.Sprintf("Spend by category (%dd)", a.days), body, w)
}

func (a App) renderTopRecommendations(w int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	if len(a.recs) == 0 {
		return components.ContentCard("Recommendations", muted.Render("Nothing to suggest right now"), w)
	}
	inner := components.CardInnerWidth(w)
	score := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	title := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var body strings.Builder
	for i, r := range a.recs[:min(len(a.recs), 6)] {
		if i > 0 {
			body.WriteString("\n")
		}
		cost := cli.FormatMoney(a.money, r.EstimatedCost)
		nameW := max(inner-4-lipgloss.Width(cost)-2, 8)
		body.WriteString(score.Render(fmt.Sprintf("%3s ", cli.FormatScore(r.Score))))
		body.WriteString(title.Render(fmt.Sprintf("%-*s", nameW, components.Truncate(r.Title, nameW))))
		body.WriteString(muted.Render("  " + cost))
	}
	return components.ContentCard(fmt.Sprintf("Recommendations (%d)", len(a.recs)), body.String(), w)
}

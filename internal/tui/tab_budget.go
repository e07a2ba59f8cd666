package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/partsbin/internal/cli"
	"github.com/theirongolddev/partsbin/internal/config"
	"github.com/theirongolddev/partsbin/internal/planner"
	"github.com/theirongolddev/partsbin/internal/tui/components"
	"github.com/theirongolddev/partsbin/internal/tui/theme"
)

func (a *App) budgetKey(key string) (bool, tea.Cmd) {
	if key != "s" {
		return false, nil
	}
	a.strategy = nextStrategy(a.strategy)
	a.recompute()

	cfg := loadConfigOrDefault()
	cfg.Budget.Strategy = string(a.strategy)
	_ = config.Save(cfg)
	return true, nil
}

func nextStrategy(s planner.Strategy) planner.Strategy {
	for i, v := range planner.Strategies {
		if v == s {
			return planner.Strategies[(i+1)%len(planner.Strategies)]
		}
	}
	return planner.Strategies[0]
}

func (a App) renderBudgetTab(cw int) string {
	var b strings.Builder
	b.WriteString(a.renderMonthCard(cw))
	b.WriteString("\n")
	b.WriteString(a.renderAllocationCard(cw))
	b.WriteString("\n")
	if a.isCompactLayout() {
		b.WriteString(a.renderAnalysisCard(cw))
		return b.String()
	}
	halves := components.LayoutRow(cw, 2)
	b.WriteString(components.CardRow([]string{
		a.renderAnalysisCard(halves[0]),
		a.renderSupplierSpendCard(halves[1]),
	}))
	return b.String()
}

func (a App) renderMonthCard(w int) string {
	t := theme.Active
	bs := a.budget
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	if !bs.HasBudget() {
		return components.ContentCard("Monthly budget",
			muted.Render(fmt.Sprintf("No budget set. Spent %s this month. Set one in Settings or with `partsbin budget set`.",
				a.money.Format(bs.CurrentSpend))), w)
	}

	inner := components.CardInnerWidth(w)
	var body strings.Builder
	body.WriteString(components.BudgetBar("used", bs.UsedFraction, bs.Level, 6, max(inner-24, 10)))
	body.WriteString("\n\n")

	cols := [][2]string{
		{"Spent", a.money.Format(bs.CurrentSpend)},
		{"Budget", a.money.Format(bs.MonthlyBudget)},
		{"Remaining", a.money.Format(bs.Remaining)},
		{"Burn/day", a.money.Format(bs.DailyBurnRate)},
		{"Projected", a.money.Format(bs.ProjectedMonthly)},
		{"Days left", fmt.Sprintf("%d of %d", bs.DaysRemaining, bs.DaysElapsed+bs.DaysRemaining)},
	}
	colW := max(inner/3, 20)
	for i, c := range cols {
		cell := muted.Render(fmt.Sprintf("%-10s ", c[0])) + value.Render(fmt.Sprintf("%-*s", colW-11, c[1]))
		body.WriteString(cell)
		if i%3 == 2 && i < len(cols)-1 {
			body.WriteString("\n")
		}
	}

	if bs.ProjectedMonthly.GreaterThan(bs.MonthlyBudget) {
		body.WriteString("\n\n")
		body.WriteString(lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).Render(
			fmt.Sprintf("At this rate the month ends %s over budget.",
				a.money.Format(bs.ProjectedMonthly.Sub(bs.MonthlyBudget)))))
	}

	var marks []string
	for i, th := range a.thresholds {
		marks = append(marks, fmt.Sprintf("%s %.0f%%", []string{"notice", "warning", "critical", "exceeded"}[min(i, 3)], th*100))
	}
	body.WriteString("\n")
	body.WriteString(lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("alerts: " + strings.Join(marks, " · ")))

	return components.ContentCard(fmt.Sprintf("Monthly budget · %s", bs.Level), body.String(), w)
}

func (a App) renderAllocationCard(w int) string {
	t := theme.Active
	plan := a.plan
	inner := components.CardInnerWidth(w)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	header := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	row := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	short := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
	hint := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	title := fmt.Sprintf("Allocation · %s", plan.Strategy)
	if len(plan.Items) == 0 {
		return components.ContentCard(title, muted.Render("No open project needs parts."), w)
	}

	prioW, costW := 4, 11
	barW := 12
	nameW := max(inner-prioW-3*costW-barW-5, 10)

	var body strings.Builder
	body.WriteString(muted.Render(fmt.Sprintf("available %s · allocated %s · unallocated %s · funded %d of %d",
		a.money.Format(plan.Available), a.money.Format(plan.Allocated), a.money.Format(plan.Unallocated),
		plan.Funded, len(plan.Items))))
	body.WriteString("\n\n")
	body.WriteString(header.Render(fmt.Sprintf("%-*s %*s %*s %*s %*s %-*s", nameW, "Project", prioW, "Prio",
		costW, "Needs", costW, "Gets", costW, "Short", barW, "Share")))
	for _, it := range plan.Items {
		line := fmt.Sprintf("%-*s %*s %*s %*s %*s ", nameW, components.Truncate(it.Name, nameW), prioW, fmt.Sprintf("P%d", it.Priority),
			costW, a.money.Format(it.Requested), costW, a.money.Format(it.Allocated), costW, a.money.Format(it.Shortfall))
		body.WriteString("\n")
		if it.Shortfall.IsPositive() {
			body.WriteString(short.Render(line))
		} else {
			body.WriteString(row.Render(line))
		}
		body.WriteString(components.CoverageBar(coverage(it), barW-5))
	}
	body.WriteString("\n\n")
	body.WriteString(hint.Render("[s] cycle strategy: " + strategyNames()))

	return components.ContentCard(title, body.String(), w)
}

func coverage(it planner.AllocationItem) float64 {
	if !it.Requested.IsPositive() {
		return 1
	}
	return it.Allocated.Div(it.Requested).InexactFloat64()
}

func strategyNames() string {
	names := make([]string, len(planner.Strategies))
	for i, s := range planner.Strategies {
		names[i] = string(s)
	}
	return strings.Join(names, " → ")
}

func (a App) renderAnalysisCard(w int) string {
	t := theme.Active
	an := a.analysis
	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var body strings.Builder
	line := func(k, v string) {
		body.WriteString(label.Render(fmt.Sprintf("%-18s", k)))
		body.WriteString(value.Render(v))
		body.WriteString("\n")
	}
	line("Spent", a.money.Format(an.Total))
	line("Purchases", cli.FormatNumber(int64(an.Purchases)))
	if an.ProratedBudget.IsPositive() {
		line("Prorated budget", a.money.Format(an.ProratedBudget))
		line("Budget used", cli.FormatPercent(an.BudgetUsed))
	}
	line("Project efficiency", cli.FormatPercent(an.BudgetEfficiency))

	if len(an.ByProject) > 0 {
		body.WriteString("\n")
		body.WriteString(label.Render("By project"))
		inner := components.CardInnerWidth(w)
		for _, p := range an.ByProject[:min(len(an.ByProject), 5)] {
			body.WriteString("\n")
			body.WriteString(value.Render(fmt.Sprintf("  %-*s %s", max(inner-16, 8), components.Truncate(p.Key, max(inner-16, 8)), a.money.Format(p.Total))))
		}
	}
	return components.ContentCard(fmt.Sprintf("Spending (%dd)", a.days), strings.TrimRight(body.String(), "\n"), w)
}

func (a App) renderSupplierSpendCard(w int) string {
	t := theme.Active
	rows := a.analysis.BySupplier
	if len(rows) == 0 {
		return components.ContentCard("By supplier",
			lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render("No purchases in range"), w)
	}
	rows = rows[:min(len(rows), 6)]
	bars := make([]components.Bar, len(rows))
	totals := make(map[string]string, len(rows))
	for i, r := range rows {
		bars[i] = components.Bar{Label: r.Key, Value: r.Total.InexactFloat64()}
		totals[r.Key] = cli.FormatMoney(a.money, r.Total)
	}
	return components.ContentCard(fmt.Sprintf("By supplier (%dd)", a.days),
		components.ShareBars(bars, func(b components.Bar) string {
			return fmt.Sprintf("%10s", totals[b.Label])
		}, t.Blue, components.CardInnerWidth(w)), w)
}

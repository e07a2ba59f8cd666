package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/partsbin/internal/cli"
	"github.com/theirongolddev/partsbin/internal/model"
	"github.com/theirongolddev/partsbin/internal/pipeline"
	"github.com/theirongolddev/partsbin/internal/tui/components"
	"github.com/theirongolddev/partsbin/internal/tui/theme"
)

// projectsState holds the projects tab's list position and view mode.
type projectsState struct {
	cursor int
	offset int
	detail bool // full-width bill of materials for the selected project
}

func (s *projectsState) clamp(n int) {
	s.cursor = min(max(s.cursor, 0), max(n-1, 0))
}

func (a *App) projectsKey(key string) (bool, tea.Cmd) {
	n := len(a.projectStats)
	switch key {
	case "enter", "f":
		a.proj.detail = n > 0
	case "esc":
		a.proj.detail = false
	case "q":
		if !a.proj.detail {
			return false, nil
		}
		a.proj.detail = false
	case "j", "down":
		a.proj.cursor++
	case "k", "up":
		a.proj.cursor--
	case "g":
		a.proj.cursor = 0
	case "G":
		a.proj.cursor = n - 1
	default:
		return false, nil
	}
	a.proj.clamp(n)
	return true, nil
}

func (a App) projectByID(id string) (model.Project, bool) {
	for _, p := range a.data.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return model.Project{}, false
}

func (a App) renderProjectsTab(cw, h int) string {
	t := theme.Active
	if len(a.projectStats) == 0 {
		return components.ContentCard("Projects",
			lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render("No projects yet. Add one with `partsbin projects add`."), cw)
	}

	sel := a.projectStats[a.proj.cursor]
	p, ok := a.projectByID(sel.ProjectID)
	if !ok {
		return a.renderProjectList(cw, h)
	}
	detail := pipeline.ProjectCost(p, a.data.Items)

	if a.proj.detail {
		return a.renderProjectDetail(detail, cw)
	}
	if a.isCompactLayout() {
		return a.renderProjectList(cw, h)
	}
	leftW := cw / 2
	return components.CardRow([]string{
		a.renderProjectList(leftW, h),
		a.renderProjectSummary(detail, cw-leftW),
	})
}

func (a App) renderProjectList(w, h int) string {
	t := theme.Active
	inner := components.CardInnerWidth(w)

	header := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	row := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	selected := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	over := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)

	statusW, costW := 10, 11
	nameW := max(inner-statusW-2*costW-3, 10)

	var body strings.Builder
	body.WriteString(header.Render(fmt.Sprintf("%-*s %-*s %*s %*s", nameW, "Project", statusW, "Status", costW, "Planned", costW, "To buy")))
	body.WriteString("\n")

	start, end := visibleWindow(a.proj.cursor, a.proj.offset, len(a.projectStats), h-5)
	for i := start; i < end; i++ {
		ps := a.projectStats[i]
		line := fmt.Sprintf("%-*s %-*s %*s %*s", nameW, components.Truncate(ps.Name, nameW),
			statusW, ps.Status, costW, cli.FormatMoney(a.money, ps.Planned), costW, cli.FormatMoney(a.money, ps.ToBuy))
		switch {
		case i == a.proj.cursor:
			body.WriteString(selected.Render(line))
		case ps.OverBudget:
			body.WriteString(over.Render(line))
		case ps.Status == model.StatusCompleted || ps.Status == model.StatusCancelled:
			body.WriteString(dim.Render(line))
		default:
			body.WriteString(row.Render(line))
		}
		body.WriteString("\n")
	}
	body.WriteString(dim.Render(fmt.Sprintf("%-*s %-*s %*s %*s", nameW, "Total", statusW, "",
		costW, cli.FormatMoney(a.money, a.projectTotal.Planned), costW, cli.FormatMoney(a.money, a.projectTotal.ToBuy))))

	return components.ContentCard(fmt.Sprintf("Projects [%d]", len(a.projectStats)), body.String(), w)
}

// renderProjectSummary is the side pane: budget, coverage and deadline.
func (a App) renderProjectSummary(d pipeline.ProjectCostDetail, w int) string {
	t := theme.Active
	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	hint := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	inner := components.CardInnerWidth(w)
	barW := max(inner-18, 8)
	p := d.Project

	var body strings.Builder
	line := func(k, v string) {
		body.WriteString(label.Render(fmt.Sprintf("%-11s", k)))
		body.WriteString(value.Render(v))
		body.WriteString("\n")
	}
	line("Status", string(p.Status))
	line("Priority", fmt.Sprintf("P%d", p.EffectivePriority()))
	if !p.Deadline.IsZero() {
		line("Deadline", cli.FormatDate(p.Deadline)+" ("+cli.FormatDeadline(p.Deadline, time.Now())+")")
	}
	line("BOM cost", a.money.Format(d.Total))
	line("In stock", a.money.Format(d.Covered))
	line("To buy", a.money.Format(d.ToBuy))

	body.WriteString(label.Render(fmt.Sprintf("%-11s", "Coverage")))
	body.WriteString(components.CoverageBar(d.Coverage, barW))
	body.WriteString("\n")

	if d.Budget.IsPositive() {
		line("Budget", a.money.Format(d.Budget))
		body.WriteString(label.Render(fmt.Sprintf("%-11s", "Used")))
		body.WriteString(components.ProgressBar(d.Utilization, barW))
		body.WriteString("\n")
		if d.OverBudget {
			body.WriteString(lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true).
				Render(fmt.Sprintf("over budget by %s", a.money.Format(d.Remaining.Neg()))))
		} else {
			line("Remaining", a.money.Format(d.Remaining))
		}
	} else {
		line("Budget", "-")
	}

	if len(d.BySupplier) > 0 {
		body.WriteString("\n")
		body.WriteString(label.Render("By supplier"))
		for _, s := range d.BySupplier[:min(len(d.BySupplier), 4)] {
			body.WriteString("\n")
			body.WriteString(value.Render(fmt.Sprintf("  %-*s %s", max(inner-16, 8), components.Truncate(s.Key, max(inner-16, 8)), a.money.Format(s.Total))))
		}
	}
	body.WriteString("\n\n")
	body.WriteString(hint.Render("[enter] bill of materials"))

	return components.ContentCard(components.Truncate(p.Name, inner), body.String(), w)
}

// renderProjectDetail shows the full bill of materials.
func (a App) renderProjectDetail(d pipeline.ProjectCostDetail, cw int) string {
	t := theme.Active
	inner := components.CardInnerWidth(cw)
	header := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	row := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	short := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
	hint := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	numW, costW, supW := 6, 11, 14
	nameW := max(inner-supW-3*numW-3*costW-6, 12)
	format := fmt.Sprintf("%%-%ds %%-%ds %%%ds %%%ds %%%ds %%%ds %%%ds %%%ds", nameW, supW, numW, numW, numW, costW, costW, costW)

	var body strings.Builder
	body.WriteString(header.Render(fmt.Sprintf(format, "Part", "Supplier", "Need", "Have", "Buy", "Unit", "Line", "To buy")))
	body.WriteString("\n")
	for _, l := range d.Lines {
		line := fmt.Sprintf(format,
			components.Truncate(l.Component.Name, nameW), components.Truncate(orDash(l.Component.Supplier), supW),
			cli.FormatNumber(int64(l.Required)), cli.FormatNumber(int64(l.InStock)), cli.FormatNumber(int64(l.ToBuy)),
			a.money.Format(l.UnitPrice), a.money.Format(l.LineCost), a.money.Format(l.ToBuyCost))
		if l.ToBuy > 0 {
			body.WriteString(short.Render(line))
		} else {
			body.WriteString(row.Render(line))
		}
		body.WriteString("\n")
	}
	body.WriteString(header.Render(fmt.Sprintf(format, "Total", "", "", "", "", "",
		a.money.Format(d.Total), a.money.Format(d.ToBuy))))

	if len(d.ByCategory) > 0 {
		bars := make([]components.Bar, len(d.ByCategory))
		totals := make(map[string]string, len(d.ByCategory))
		for i, c := range d.ByCategory {
			bars[i] = components.Bar{Label: c.Key, Value: c.Total.InexactFloat64()}
			totals[c.Key] = cli.FormatMoney(a.money, c.Total)
		}
		body.WriteString("\n\n")
		body.WriteString(components.ShareBars(bars, func(b components.Bar) string {
			return fmt.Sprintf("%10s", totals[b.Label])
		}, t.Accent, inner))
	}
	body.WriteString("\n\n")
	body.WriteString(hint.Render("[esc] back"))

	return components.ContentCard(fmt.Sprintf("%s · bill of materials", d.Project.Name), body.String(), cw)
}

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/partsbin/internal/model"
	"github.com/theirongolddev/partsbin/internal/tui/theme"
)

// ProgressBar renders a block bar followed by its percentage. Color steps
// from green to red as pct grows.
func ProgressBar(pct float64, width int) string {
	t := theme.Active
	pct = clamp01(pct)
	filled := min(int(pct*float64(width)), width)
	color := t.FractionColor(pct)

	surface := lipgloss.NewStyle().Background(t.Surface)
	return lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render(strings.Repeat("░", width-filled)) +
		surface.Render(" ") +
		lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true).Render(fmt.Sprintf("%.0f%%", pct*100))
}

// CoverageBar renders how much of a need is met; high coverage is good, so
// the colors run the other way from ProgressBar.
func CoverageBar(pct float64, width int) string {
	t := theme.Active
	pct = clamp01(pct)
	color := t.Red
	switch {
	case pct >= 0.8:
		color = t.Green
	case pct >= 0.5:
		color = t.Yellow
	}
	return solidBar(pct, width, color) +
		lipgloss.NewStyle().Background(t.Surface).Render(" ") +
		lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(fmt.Sprintf("%3.0f%%", pct*100))
}

// BudgetBar renders a labeled monthly budget bar colored by alert level.
// used may exceed 1; the bar is capped but the percentage is not.
func BudgetBar(label string, used float64, level model.AlertLevel, labelW, barWidth int) string {
	t := theme.Active
	color := t.LevelColor(level)
	surface := lipgloss.NewStyle().Background(t.Surface)

	return lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render(fmt.Sprintf("%-*s", labelW, label)) +
		surface.Render(" ") +
		solidBar(clamp01(used), barWidth, color) +
		surface.Render(" ") +
		lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true).Render(fmt.Sprintf("%4.0f%%", used*100)) +
		surface.Render("  ") +
		lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(strings.ToUpper(level.String()))
}

// CompactBudgetBar is the status-bar sized budget indicator.
func CompactBudgetBar(used float64, level model.AlertLevel, width int) string {
	t := theme.Active
	color := t.LevelColor(level)
	label := "budget"
	barW := max(width-lipgloss.Width(label)-7, 4)
	surface := lipgloss.NewStyle().Background(t.Surface)

	return lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render(label) +
		surface.Render(" ") +
		solidBar(clamp01(used), barW, color) +
		surface.Render(" ") +
		lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true).Render(fmt.Sprintf("%3.0f%%", used*100))
}

func solidBar(pct float64, width int, color lipgloss.Color) string {
	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(theme.Active.TextDim)
	return bar.ViewAs(pct)
}

func clamp01(f float64) float64 {
	return min(max(f, 0), 1)
}

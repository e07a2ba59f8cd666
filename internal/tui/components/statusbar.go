package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/partsbin/internal/model"
	"github.com/theirongolddev/partsbin/internal/tui/theme"
)

// StatusInfo is what the status bar shows besides the key hints.
type StatusInfo struct {
	Budget      *model.BudgetStats // nil hides the budget indicator
	Refreshing  bool
	AutoRefresh bool
	DataAge     string
	Message     string // transient notice, e.g. an import result
}

// RenderStatusBar renders the bottom bar: key hints on the left, budget
// level and data age on the right.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	surface := lipgloss.NewStyle().Background(t.Surface)

	left := muted.Render(" [?]help [r]efresh [R]auto [q]uit")
	if info.Message != "" {
		left += surface.Render("  ") + accent.Render(info.Message)
	}

	var right []string
	if b := info.Budget; b != nil && b.HasBudget() {
		right = append(right, CompactBudgetBar(b.UsedFraction, b.Level, 22))
	}
	switch {
	case info.Refreshing:
		right = append(right, accent.Render("refreshing…"))
	case info.DataAge != "":
		auto := ""
		if info.AutoRefresh {
			auto = " (auto)"
		}
		right = append(right, muted.Render(fmt.Sprintf("data %s%s", info.DataAge, auto)))
	}
	r := strings.Join(right, surface.Render("  ")) + surface.Render(" ")

	gap := width - lipgloss.Width(left) - lipgloss.Width(r)
	if gap < 1 {
		return Truncate(left, width)
	}
	return left + surface.Render(strings.Repeat(" ", gap)) + r
}

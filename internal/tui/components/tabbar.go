package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/partsbin/internal/tui/theme"
)

// Tab is one dashboard tab and its shortcut key.
type Tab struct {
	Name   string
	Key    rune
	KeyPos int // index of Key in Name, or -1 when the key is not in the name
}

// Tabs lists the dashboard tabs in display order.
var Tabs = []Tab{
	{Name: "Overview", Key: 'o', KeyPos: 0},
	{Name: "Inventory", Key: 'i', KeyPos: 0},
	{Name: "Projects", Key: 'p', KeyPos: 0},
	{Name: "Budget", Key: 'b', KeyPos: 0},
	{Name: "Recommend", Key: 'm', KeyPos: 4},
	{Name: "Settings", Key: 'x', KeyPos: -1},
}

// TabVisualWidth is the rendered width of tab i when activeIdx is active:
// one cell of padding on each side, plus "[k]" for inactive tabs whose key
// is not part of the name.
func TabVisualWidth(i, activeIdx int) int {
	w := lipgloss.Width(Tabs[i].Name) + 2
	if i != activeIdx && Tabs[i].KeyPos < 0 {
		w += 3
	}
	return w
}

// RenderTabBar renders all tabs on one row separated by a single rule
// character, padded to width.
func RenderTabBar(activeIdx, width int) string {
	t := theme.Active
	active := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)
	inactive := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	key := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	for i, tab := range Tabs {
		if i > 0 {
			b.WriteString(dim.Render("│"))
		}
		switch {
		case i == activeIdx:
			b.WriteString(active.Render(" " + tab.Name + " "))
		case tab.KeyPos >= 0 && tab.KeyPos < len(tab.Name):
			b.WriteString(inactive.Render(" " + tab.Name[:tab.KeyPos]))
			b.WriteString(key.Render(tab.Name[tab.KeyPos : tab.KeyPos+1]))
			b.WriteString(inactive.Render(tab.Name[tab.KeyPos+1:] + " "))
		default:
			b.WriteString(inactive.Render(" " + tab.Name))
			b.WriteString(dim.Render("["))
			b.WriteString(key.Render(string(tab.Key)))
			b.WriteString(dim.Render("]"))
			b.WriteString(inactive.Render(" "))
		}
	}

	bar := b.String()
	if pad := width - lipgloss.Width(bar); pad > 0 {
		bar += lipgloss.NewStyle().Background(t.Surface).Render(strings.Repeat(" ", pad))
	}
	return bar
}

// TabIdxByKey returns the tab bound to key, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}

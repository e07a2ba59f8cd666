package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/partsbin/internal/cli"
	"github.com/theirongolddev/partsbin/internal/model"
	"github.com/theirongolddev/partsbin/internal/pipeline"
	"github.com/theirongolddev/partsbin/internal/tui/components"
	"github.com/theirongolddev/partsbin/internal/tui/theme"
)

// inventoryState holds the inventory tab's list position and search.
type inventoryState struct {
	cursor      int
	offset      int
	searching   bool
	searchInput textinput.Model
	query       string
	lowOnly     bool
}

func (s *inventoryState) clamp(n int) {
	s.cursor = min(max(s.cursor, 0), max(n-1, 0))
}

func newSearchInput(value string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "name, SKU, location or tag"
	ti.CharLimit = 64
	ti.Width = 40
	ti.SetValue(value)
	return ti
}

func (a App) filteredItems() []model.InventoryItem {
	if a.data == nil {
		return nil
	}
	return pipeline.FilterItems(a.data.Items, pipeline.ItemFilter{
		Query:        a.inv.query,
		LowStockOnly: a.inv.lowOnly,
	})
}

func (a *App) inventoryKey(key string) (bool, tea.Cmd) {
	n := len(a.filteredItems())
	switch key {
	case "/":
		a.inv.searching = true
		a.inv.searchInput = newSearchInput(a.inv.query)
		a.inv.searchInput.Focus()
		return true, a.inv.searchInput.Cursor.BlinkCmd()
	case "esc":
		a.inv.query = ""
		a.inv.cursor, a.inv.offset = 0, 0
	case "l":
		a.inv.lowOnly = !a.inv.lowOnly
		a.inv.cursor, a.inv.offset = 0, 0
	case "j", "down":
		a.inv.cursor++
	case "k", "up":
		a.inv.cursor--
	case "g":
		a.inv.cursor = 0
	case "G":
		a.inv.cursor = n - 1
	default:
		return false, nil
	}
	a.inv.clamp(n)
	return true, nil
}

// updateInventorySearch handles keys while the search box has focus. The
// list filters as the user types.
func (a App) updateInventorySearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.inv.searching = false
		return a, nil
	case "esc":
		a.inv.searching = false
		a.inv.query = ""
		a.inv.clamp(len(a.filteredItems()))
		return a, nil
	}

	var cmd tea.Cmd
	a.inv.searchInput, cmd = a.inv.searchInput.Update(msg)
	a.inv.query = strings.TrimSpace(a.inv.searchInput.Value())
	a.inv.cursor, a.inv.offset = 0, 0
	return a, cmd
}

func (a App) renderInventoryTab(cw, h int) string {
	t := theme.Active
	items := a.filteredItems()

	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	var bar strings.Builder
	switch {
	case a.inv.searching:
		bar.WriteString(accent.Render("/ ") + a.inv.searchInput.View())
	case a.inv.query != "":
		bar.WriteString(muted.Render("search: ") + accent.Render(a.inv.query) + muted.Render("  [esc] clear"))
	default:
		bar.WriteString(muted.Render("[/] search  [l] low stock only"))
	}
	if a.inv.lowOnly {
		bar.WriteString(muted.Render("  ·  ") + lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).Render("low stock"))
	}

	if len(items) == 0 {
		return components.ContentCard("Inventory", bar.String()+"\n\n"+muted.Render("No matching items"), cw)
	}

	if a.isCompactLayout() {
		return a.renderItemList(items, bar.String(), cw, h)
	}
	leftW := cw * 3 / 5
	rightW := cw - leftW
	right := a.renderItemDetail(items[a.inv.cursor], rightW)
	return components.CardRow([]string{a.renderItemList(items, bar.String(), leftW, h), right})
}

func (a App) renderItemList(items []model.InventoryItem, bar string, w, h int) string {
	t := theme.Active
	inner := components.CardInnerWidth(w)

	header := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	row := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selected := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	low := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	qtyW, valW := 9, 12
	nameW := max(inner-qtyW-valW-2, 10)

	var body strings.Builder
	body.WriteString(bar)
	body.WriteString("\n")
	body.WriteString(header.Render(fmt.Sprintf("%-*s %*s %*s", nameW, "Item", qtyW, "Qty/Min", valW, "Value")))
	body.WriteString("\n")

	rows := h - 6 // borders, title, search bar, header
	start, end := visibleWindow(a.inv.cursor, a.inv.offset, len(items), rows)
	for i := start; i < end; i++ {
		it := items[i]
		qty := fmt.Sprintf("%d/%d", it.Quantity, it.MinQuantity)
		line := fmt.Sprintf("%-*s %*s %*s", nameW, components.Truncate(it.Name, nameW),
			qtyW, qty, valW, cli.FormatMoney(a.money, it.Value()))
		switch {
		case i == a.inv.cursor:
			body.WriteString(selected.Render(line))
		case it.LowStock():
			body.WriteString(low.Render(line))
		default:
			body.WriteString(row.Render(line))
		}
		if i < end-1 {
			body.WriteString("\n")
		}
	}

	title := fmt.Sprintf("Inventory [%d of %d]", len(items), len(a.data.Items))
	return components.ContentCard(title, body.String(), w)
}

func (a App) renderItemDetail(it model.InventoryItem, w int) string {
	t := theme.Active
	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	stock := fmt.Sprintf("%d (reorder at %d)", it.Quantity, it.MinQuantity)
	if it.LowStock() {
		stock += lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).Render(fmt.Sprintf("  short %d", it.Shortfall()))
	}

	fields := [][2]string{
		{"SKU", orDash(it.SKU)},
		{"Category", orDash(it.Category)},
		{"Supplier", orDash(it.Supplier)},
		{"Location", orDash(it.Location)},
		{"Stock", stock},
		{"Unit price", a.money.Format(it.UnitPrice)},
		{"Value", a.money.Format(it.Value())},
		{"Tags", orDash(strings.Join(it.Tags, ", "))},
		{"Updated", cli.FormatDate(it.UpdatedAt)},
	}

	var body strings.Builder
	for _, f := range fields {
		body.WriteString(label.Render(fmt.Sprintf("%-11s", f[0])))
		body.WriteString(value.Render(f[1]))
		body.WriteString("\n")
	}

	if uses := a.projectsUsing(it.ID); len(uses) > 0 {
		body.WriteString("\n")
		body.WriteString(label.Render("Used by"))
		for _, u := range uses {
			body.WriteString("\n")
			body.WriteString(value.Render("  " + components.Truncate(u, components.CardInnerWidth(w)-2)))
		}
	}

	return components.ContentCard(components.Truncate(it.Name, components.CardInnerWidth(w)), strings.TrimRight(body.String(), "\n"), w)
}

// projectsUsing lists "name (qty)" for open projects whose BOM references
// the item.
func (a App) projectsUsing(itemID string) []string {
	var out []string
	for _, p := range a.data.Projects {
		if !p.IsOpen() {
			continue
		}
		for _, c := range p.Components {
			if c.ItemID == itemID {
				out = append(out, fmt.Sprintf("%s (%d)", p.Name, c.Quantity))
				break
			}
		}
	}
	return out
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/partsbin/internal/cli"
	"github.com/theirongolddev/partsbin/internal/config"
	"github.com/theirongolddev/partsbin/internal/currency"
	"github.com/theirongolddev/partsbin/internal/planner"
	"github.com/theirongolddev/partsbin/internal/tui/components"
	"github.com/theirongolddev/partsbin/internal/tui/theme"
)

const (
	settingsFieldCurrency = iota
	settingsFieldBudget
	settingsFieldStrategy
	settingsFieldOrdersDir
	settingsFieldTheme
	settingsFieldDays
	settingsFieldAutoRefresh
	settingsFieldRefreshInterval
	settingsFieldCount
)

var settingsLabels = [settingsFieldCount]string{
	"Currency",
	"Monthly budget",
	"Strategy",
	"Orders dir",
	"Theme",
	"Default days",
	"Auto refresh",
	"Refresh interval",
}

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool
	saveErr error
}

func (a *App) settingsKey(key string) (bool, tea.Cmd) {
	switch key {
	case "j", "down":
		a.settings.cursor = min(a.settings.cursor+1, settingsFieldCount-1)
	case "k", "up":
		a.settings.cursor = max(a.settings.cursor-1, 0)
	case "enter":
		return true, a.settingsStartEdit()
	default:
		return false, nil
	}
	a.settings.saved = false
	return true, nil
}

func (a *App) settingsStartEdit() tea.Cmd {
	cfg := loadConfigOrDefault()
	a.settings.editing = true
	a.settings.saved = false
	a.settings.saveErr = nil

	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50

	switch a.settings.cursor {
	case settingsFieldCurrency:
		ti.Placeholder = "ISO 4217 code, e.g. USD, EUR, GBP"
		ti.SetValue(cfg.Currency.Code)
	case settingsFieldBudget:
		ti.Placeholder = "monthly amount, empty to clear"
		if cfg.Budget.Monthly != nil {
			ti.SetValue(strconv.FormatFloat(*cfg.Budget.Monthly, 'f', -1, 64))
		}
	case settingsFieldStrategy:
		ti.Placeholder = strategyNames()
		ti.SetValue(string(a.strategy))
	case settingsFieldOrdersDir:
		ti.Placeholder = cfg.OrdersDir()
		ti.SetValue(cfg.General.OrdersDir)
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
		ti.SetValue(cfg.Appearance.Theme)
	case settingsFieldDays:
		ti.Placeholder = "30"
		ti.SetValue(strconv.Itoa(a.days))
	case settingsFieldAutoRefresh:
		ti.Placeholder = "true or false"
		ti.SetValue(strconv.FormatBool(a.autoRefresh))
	case settingsFieldRefreshInterval:
		ti.Placeholder = "seconds, minimum 10"
		ti.SetValue(strconv.Itoa(int(a.refreshInterval.Seconds())))
	}

	ti.Focus()
	a.settings.input = ti
	return ti.Cursor.BlinkCmd()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		cmd := a.settingsSave()
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil
		return a, cmd
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave validates the edited field, writes the config and applies it
// to the running dashboard. Changes that alter loaded data (currency and
// orders dir) trigger a reload.
func (a *App) settingsSave() tea.Cmd {
	cfg := loadConfigOrDefault()
	val := strings.TrimSpace(a.settings.input.Value())
	reload := false

	switch a.settings.cursor {
	case settingsFieldCurrency:
		f, err := currency.New(val)
		if err != nil {
			a.settings.saveErr = err
			return nil
		}
		reload = f.Code() != a.money.Code()
		cfg.Currency.Code = f.Code()
	case settingsFieldBudget:
		if val == "" {
			cfg.Budget.Monthly = nil
			break
		}
		d, err := a.money.Parse(val)
		if err != nil || d.IsNegative() {
			a.settings.saveErr = fmt.Errorf("budget %q: not a positive amount", val)
			return nil
		}
		v := d.InexactFloat64()
		cfg.Budget.Monthly = &v
	case settingsFieldStrategy:
		s, err := planner.ParseStrategy(val)
		if err != nil {
			a.settings.saveErr = err
			return nil
		}
		cfg.Budget.Strategy = string(s)
	case settingsFieldOrdersDir:
		cfg.General.OrdersDir = val
		reload = cfg.OrdersDir() != a.opts.OrdersDir
		a.opts.OrdersDir = cfg.OrdersDir()
	case settingsFieldTheme:
		if !theme.Valid(val) {
			a.settings.saveErr = fmt.Errorf("unknown theme %q", val)
			return nil
		}
		cfg.Appearance.Theme = val
		theme.SetActive(val)
	case settingsFieldDays:
		d, err := strconv.Atoi(val)
		if err != nil || d <= 0 {
			a.settings.saveErr = fmt.Errorf("days %q: must be a positive number", val)
			return nil
		}
		cfg.General.DefaultDays = d
		a.days = d
	case settingsFieldAutoRefresh:
		b, err := strconv.ParseBool(val)
		if err != nil {
			a.settings.saveErr = fmt.Errorf("auto refresh %q: use true or false", val)
			return nil
		}
		cfg.TUI.AutoRefresh = b
		a.autoRefresh = b
	case settingsFieldRefreshInterval:
		n, err := strconv.Atoi(val)
		if err != nil || n < 10 {
			a.settings.saveErr = errors.New("refresh interval must be at least 10 seconds")
			return nil
		}
		cfg.TUI.RefreshIntervalSec = n
		a.refreshInterval = cfg.TUI.RefreshInterval()
	}

	a.settings.saveErr = config.Save(cfg)
	a.applyConfig(cfg)
	if reload && !a.refreshing {
		a.refreshing = true
		return refreshDataCmd(a.loader())
	}
	a.recompute()
	return nil
}

func (a App) settingsValue(field int, cfg config.Config) string {
	switch field {
	case settingsFieldCurrency:
		return fmt.Sprintf("%s (%s)", a.money.Code(), a.money.Symbol())
	case settingsFieldBudget:
		if !a.monthlyBudget.IsPositive() {
			return "(not set)"
		}
		return a.money.Format(a.monthlyBudget)
	case settingsFieldStrategy:
		return string(a.strategy)
	case settingsFieldOrdersDir:
		return a.opts.OrdersDir
	case settingsFieldTheme:
		return cfg.Appearance.Theme
	case settingsFieldDays:
		return strconv.Itoa(a.days)
	case settingsFieldAutoRefresh:
		return strconv.FormatBool(a.autoRefresh)
	case settingsFieldRefreshInterval:
		return fmt.Sprintf("%ds", int(a.refreshInterval/time.Second))
	}
	return ""
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	cfg := loadConfigOrDefault()

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)
	innerW := components.CardInnerWidth(cw)

	var form strings.Builder
	for i := 0; i < settingsFieldCount; i++ {
		label := settingsLabels[i]
		if a.settings.editing && i == a.settings.cursor {
			form.WriteString(markerStyle.Render("▸ "))
			form.WriteString(accentStyle.Render(fmt.Sprintf("%-18s ", label)))
			form.WriteString(a.settings.input.View())
			form.WriteString("\n")
			continue
		}

		value := a.settingsValue(i, cfg)
		if i == a.settings.cursor {
			row := markerStyle.Render("▸ ") +
				selectedLabelStyle.Render(fmt.Sprintf("%-18s ", label+":")) +
				selectedStyle.Render(value)
			if pad := innerW - lipgloss.Width(row); pad > 0 {
				row += lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad))
			}
			form.WriteString(row)
		} else {
			form.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			form.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", label+":")))
			form.WriteString(valueStyle.Render(value))
		}
		form.WriteString("\n")
	}

	switch {
	case a.settings.saveErr != nil:
		form.WriteString("\n")
		form.WriteString(lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).
			Render("Not saved: " + a.settings.saveErr.Error()))
	case a.settings.saved:
		form.WriteString("\n")
		form.WriteString(lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface).Render("Saved"))
	}
	form.WriteString("\n")
	form.WriteString(labelStyle.Render("[j/k] navigate  [enter] edit  [esc] cancel"))

	items, projects, purchases := 0, 0, 0
	if a.data != nil {
		items, projects, purchases = len(a.data.Items), len(a.data.Projects), len(a.data.Purchases)
	}
	var info strings.Builder
	infoLine := func(k, v string) {
		info.WriteString(labelStyle.Render(fmt.Sprintf("%-17s", k)))
		info.WriteString(valueStyle.Render(v))
		info.WriteString("\n")
	}
	infoLine("Config file", config.ConfigPath())
	infoLine("Database", cfg.Store.Driver+" "+cfg.DBPath())
	infoLine("Loaded", fmt.Sprintf("%s items, %s projects, %s purchases",
		cli.FormatNumber(int64(items)), cli.FormatNumber(int64(projects)), cli.FormatNumber(int64(purchases))))
	infoLine("Load time", fmt.Sprintf("%.1fs", a.loadTime.Seconds()))
	if imp := a.lastImport; imp != nil {
		infoLine("Last import", fmt.Sprintf("%d files, %d parsed, %d parse errors",
			imp.TotalFiles, imp.Reparsed, imp.ParseErrors))
	}
	if !a.quotesAt.IsZero() {
		q := fmt.Sprintf("%d prices, %s", len(a.quotes), dataAge(time.Since(a.quotesAt)))
		if a.quotesErr != nil {
			q += " (" + a.quotesErr.Error() + ")"
		}
		infoLine("Quotes", components.Truncate(q, max(innerW-17, 10)))
	}

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", form.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("General", strings.TrimRight(info.String(), "\n"), cw))
	return b.String()
}

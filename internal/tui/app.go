// Package tui provides the interactive Bubble Tea dashboard for partsbin.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/partsbin/internal/cli"
	"github.com/theirongolddev/partsbin/internal/config"
	"github.com/theirongolddev/partsbin/internal/currency"
	"github.com/theirongolddev/partsbin/internal/model"
	"github.com/theirongolddev/partsbin/internal/pipeline"
	"github.com/theirongolddev/partsbin/internal/planner"
	"github.com/theirongolddev/partsbin/internal/pricefeed"
	"github.com/theirongolddev/partsbin/internal/recommend"
	"github.com/theirongolddev/partsbin/internal/tui/components"
	"github.com/theirongolddev/partsbin/internal/tui/theme"
)

// Repository is the store surface the dashboard reads, imports into and
// records dismissals with.
type Repository interface {
	pipeline.Repository
	pipeline.ImportRepository
	Dismiss(ctx context.Context, id string, at time.Time) error
	Undismiss(ctx context.Context, id string) error
}

// QuoteSource fetches supplier quotes for price-drop recommendations.
type QuoteSource interface {
	FetchAll(ctx context.Context, skus []string) *pricefeed.QuoteSet
}

// Options wires the dashboard to its data.
type Options struct {
	Repo      Repository
	OrdersDir string // scanned for new order files on every load; empty skips import
	Quotes    QuoteSource
}

// DataLoadedMsg is sent when the initial load finishes.
type DataLoadedMsg struct {
	Data     *pipeline.LoadResult
	Import   *pipeline.ImportResult
	Err      error
	LoadTime time.Duration
}

// ProgressMsg reports order import progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// RefreshDataMsg is sent when a background refresh completes.
type RefreshDataMsg struct {
	Data     *pipeline.LoadResult
	Import   *pipeline.ImportResult
	Err      error
	LoadTime time.Duration
}

// QuotesMsg carries a finished supplier quote fetch.
type QuotesMsg struct {
	Quotes *pricefeed.QuoteSet
}

// dismissedMsg reports a dismiss or undo written to the store.
type dismissedMsg struct {
	id   string
	undo bool
	err  error
}

const (
	tabOverview = iota
	tabInventory
	tabProjects
	tabBudget
	tabRecommend
	tabSettings
)

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180
	minContentHeight = 5

	tickInterval = 250 * time.Millisecond
	quoteRefresh = 15 * time.Minute
	flashTTL     = 8 * time.Second
)

// App is the root Bubble Tea model.
type App struct {
	opts Options

	// Data
	data       *pipeline.LoadResult
	loaded     bool
	loadErr    error
	loadTime   time.Duration
	lastImport *pipeline.ImportResult

	// Auto-refresh
	autoRefresh     bool
	refreshInterval time.Duration
	lastRefresh     time.Time
	refreshing      bool

	// Supplier quotes
	quotes         map[string]decimal.Decimal
	quotesAt       time.Time
	quotesFetching bool
	quotesErr      error

	// Settings that shape the aggregates
	days          int
	money         *currency.Formatter
	conv          currency.Converter
	monthlyBudget decimal.Decimal
	thresholds    []float64
	strategy      planner.Strategy
	engine        *recommend.Engine

	// Derived from data
	summary      model.SummaryStats
	budget       model.BudgetStats
	analysis     model.SpendingAnalysis
	months       []model.MonthlyStats
	categories   []model.CategoryStats
	suppliers    []model.SupplierStats
	projectStats []model.ProjectCostStats
	projectTotal model.ProjectCostStats
	plan         planner.PlanResult
	recs         []model.Recommendation
	lastLevel    model.AlertLevel

	// Status-bar notice
	flash   string
	flashAt time.Time

	// UI
	width     int
	height    int
	activeTab int
	showHelp  bool

	inv      inventoryState
	proj     projectsState
	rec      recommendState
	settings settingsState

	// First-run setup
	setupForm *huh.Form
	setupVals *setupValues
	needSetup bool

	// Loading: the loader goroutine streams progress and completion on loadSub.
	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg
}

// loadConfigOrDefault loads config, falling back to defaults so the
// dashboard always starts.
func loadConfigOrDefault() config.Config {
	cfg, err := config.Load()
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

// NewApp creates the dashboard model.
func NewApp(opts Options, days int) App {
	cfg := loadConfigOrDefault()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	a := App{
		opts:            opts,
		days:            days,
		needSetup:       !config.Exists(),
		autoRefresh:     cfg.TUI.AutoRefresh,
		refreshInterval: cfg.TUI.RefreshInterval(),
		spinner:         sp,
		loadSub:         make(chan tea.Msg, 1),
		rec:             newRecommendState(cfg.Recommend.MinScore),
	}
	if a.days <= 0 {
		a.days = cfg.General.DefaultDays
	}
	a.applyConfig(cfg)
	return a
}

// applyConfig copies budget, currency and recommendation settings from cfg.
func (a *App) applyConfig(cfg config.Config) {
	money, err := currency.New(cfg.Currency.Code)
	if err != nil {
		money = currency.MustNew(currency.DefaultCode)
	}
	a.money = money
	a.conv = currency.NewConverter(a.money.Code(), cfg.Currency.Rates)
	a.monthlyBudget = decimal.Zero
	if cfg.Budget.Monthly != nil {
		a.monthlyBudget = decimal.NewFromFloat(*cfg.Budget.Monthly)
	}
	a.thresholds = cfg.Thresholds()
	if s, err := planner.ParseStrategy(cfg.Budget.Strategy); err == nil {
		a.strategy = s
	} else {
		a.strategy = planner.Priority
	}
	a.engine = recommend.NewEngine(recommend.Config{AffinityDays: cfg.Recommend.AffinityDays})
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.loader(), a.loadSub),
		a.spinner.Tick,
		tickCmd(),
	)
}

func (a App) loader() loader {
	return loader{repo: a.opts.Repo, ordersDir: a.opts.OrdersDir, conv: a.conv}
}

// recompute rebuilds every aggregate from the loaded data.
func (a *App) recompute() {
	if a.data == nil {
		return
	}
	now := time.Now()
	since := now.AddDate(0, 0, -a.days)
	d := a.data

	a.summary = pipeline.Summarize(d.Items, d.Projects, d.Purchases, since, now)
	a.budget = planner.BudgetStatusWithThresholds(d.Purchases, a.monthlyBudget, now, a.thresholds)
	a.analysis = pipeline.Analyze(d.Purchases, d.Projects, a.monthlyBudget, since, now)
	a.months = pipeline.AggregateMonths(d.Purchases, now.AddDate(0, -11, 0), now)
	a.categories = pipeline.AggregateCategories(d.Items)
	a.suppliers = pipeline.AggregateSuppliers(d.Items)
	a.projectStats, a.projectTotal = pipeline.ProjectOverview(d.Projects, d.Items, d.Purchases)
	a.plan = planner.Plan(planner.Options{
		MonthlyBudget: a.monthlyBudget,
		Strategy:      a.strategy,
		Thresholds:    a.thresholds,
	}, d.Projects, d.Items, d.Purchases, now)
	a.recs = a.engine.Generate(recommend.Input{
		Items:     d.Items,
		Projects:  d.Projects,
		Purchases: d.Purchases,
		Quotes:    a.quotes,
		Dismissed: d.Dismissed,
	}, now)

	a.inv.clamp(len(a.filteredItems()))
	a.proj.clamp(len(a.projectStats))
	a.rec.clamp(len(a.filteredRecs()))
}

// applyData installs freshly loaded data and raises a notice when the
// budget level has moved up since the last load.
func (a *App) applyData(data *pipeline.LoadResult, imp *pipeline.ImportResult) {
	a.data = data
	a.lastImport = imp
	a.recompute()

	switch {
	case a.budget.Level > a.lastLevel:
		a.setFlash(fmt.Sprintf("budget %s: %s of %s used",
			a.budget.Level, cli.FormatPercent(a.budget.UsedFraction),
			a.money.Format(a.budget.MonthlyBudget)))
	case imp != nil && imp.Reparsed > 0:
		a.setFlash(fmt.Sprintf("imported %d order files (%d purchases)", imp.Reparsed, imp.Purchases))
	}
	a.lastLevel = a.budget.Level
}

func (a *App) setFlash(msg string) {
	a.flash = msg
	a.flashAt = time.Now()
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		return a.updateMouse(msg)

	case tea.KeyMsg:
		return a.updateKey(msg)

	case DataLoadedMsg:
		a.loaded = true
		a.loadTime = msg.LoadTime
		a.lastRefresh = time.Now()
		a.loadErr = msg.Err
		if msg.Err == nil {
			a.applyData(msg.Data, msg.Import)
		}

		if a.needSetup {
			a.setupVals = newSetupValues(loadConfigOrDefault())
			a.setupForm = newSetupForm(a.setupVals, a.summary.Items)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case RefreshDataMsg:
		a.refreshing = false
		a.lastRefresh = time.Now()
		a.loadTime = msg.LoadTime
		a.loadErr = msg.Err
		if msg.Err == nil {
			a.applyData(msg.Data, msg.Import)
		}
		return a, nil

	case QuotesMsg:
		a.quotesFetching = false
		a.quotesAt = time.Now()
		if msg.Quotes == nil {
			return a, nil
		}
		a.quotesErr = msg.Quotes.Error
		a.quotes = msg.Quotes.Prices(a.conv)
		a.recompute()
		return a, nil

	case dismissedMsg:
		if msg.err != nil {
			a.setFlash("dismiss failed: " + msg.err.Error())
			return a, nil
		}
		if a.data != nil {
			if msg.undo {
				delete(a.data.Dismissed, msg.id)
			} else {
				if a.data.Dismissed == nil {
					a.data.Dismissed = make(map[string]bool)
				}
				a.data.Dismissed[msg.id] = true
			}
			a.recompute()
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		now := time.Now()

		if a.flash != "" && now.Sub(a.flashAt) > flashTTL {
			a.flash = ""
		}
		if a.loaded && a.opts.Quotes != nil && !a.quotesFetching && now.Sub(a.quotesAt) >= quoteRefresh {
			a.quotesFetching = true
			cmds = append(cmds, fetchQuotesCmd(a.opts.Quotes, a.skus()))
		}
		if a.loaded && a.autoRefresh && !a.refreshing && now.Sub(a.lastRefresh) >= a.refreshInterval {
			a.refreshing = true
			cmds = append(cmds, refreshDataCmd(a.loader()))
		}
		return a, tea.Batch(cmds...)
	}

	// Anything else (cursor blinks and the like) goes to the setup form.
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !a.loaded || a.showHelp || (a.needSetup && a.setupForm != nil) {
		return a, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		a.moveCursor(-1)
	case tea.MouseButtonWheelDown:
		a.moveCursor(1)
	case tea.MouseButtonLeft:
		if msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}

	// Modal inputs take every key.
	switch {
	case a.needSetup && a.setupForm != nil:
		return a.updateSetupForm(msg)
	case a.activeTab == tabSettings && a.settings.editing:
		return a.updateSettingsInput(msg)
	case a.activeTab == tabInventory && a.inv.searching:
		return a.updateInventorySearch(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	var (
		handled bool
		cmd     tea.Cmd
	)
	switch a.activeTab {
	case tabInventory:
		handled, cmd = a.inventoryKey(key)
	case tabProjects:
		handled, cmd = a.projectsKey(key)
	case tabBudget:
		handled, cmd = a.budgetKey(key)
	case tabRecommend:
		handled, cmd = a.recommendKey(key)
	case tabSettings:
		handled, cmd = a.settingsKey(key)
	}
	if handled {
		return a, cmd
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		if !a.refreshing {
			a.refreshing = true
			return a, refreshDataCmd(a.loader())
		}
		return a, nil
	case "R":
		a.autoRefresh = !a.autoRefresh
		cfg := loadConfigOrDefault()
		cfg.TUI.AutoRefresh = a.autoRefresh
		_ = config.Save(cfg)
		return a, nil
	case "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	}

	if r := []rune(key); len(r) == 1 {
		if idx := components.TabIdxByKey(r[0]); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

// moveCursor moves the list cursor of the active tab by delta.
func (a *App) moveCursor(delta int) {
	switch a.activeTab {
	case tabInventory:
		a.inv.cursor += delta
		a.inv.clamp(len(a.filteredItems()))
	case tabProjects:
		a.proj.cursor += delta
		a.proj.clamp(len(a.projectStats))
	case tabRecommend:
		a.rec.cursor += delta
		a.rec.clamp(len(a.filteredRecs()))
	case tabSettings:
		if !a.settings.editing {
			a.settings.cursor = min(max(a.settings.cursor+delta, 0), settingsFieldCount-1)
		}
	}
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		cfg, err := a.setupVals.apply(loadConfigOrDefault())
		if err == nil {
			err = config.Save(cfg)
		}
		if err != nil {
			a.setFlash("setup not saved: " + err.Error())
		}
		theme.SetActive(cfg.Appearance.Theme)
		a.applyConfig(cfg)
		a.opts.OrdersDir = cfg.OrdersDir()
		a.needSetup = false
		a.setupForm = nil
		// Currency or orders dir may have changed; reload through the new settings.
		a.refreshing = true
		return a, refreshDataCmd(a.loader())
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	switch {
	case a.width == 0:
		return ""
	case a.width < minTerminalWidth:
		return a.viewTooNarrow()
	case !a.loaded:
		return a.viewLoading()
	case a.needSetup && a.setupForm != nil:
		return a.setupForm.View()
	case a.showHelp:
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  partsbin needs at least %d columns.\n",
		a.width, minTerminalWidth)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logo := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spin := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	count := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logo.Render("▣ partsbin"))
	b.WriteString(muted.Render(" · parts, projects & budget"))
	b.WriteString("\n\n")

	if a.progressMax > 0 {
		barW := min(max(a.width-30, 20), 40)
		b.WriteString(spin.Render(a.spinner.View()))
		b.WriteString(muted.Render(" Importing order files\n\n"))
		b.WriteString(components.ProgressBar(float64(a.progress)/float64(a.progressMax), barW))
		b.WriteString("\n")
		b.WriteString(count.Render(cli.FormatNumber(int64(a.progress))))
		b.WriteString(muted.Render(" / "))
		b.WriteString(count.Render(cli.FormatNumber(int64(a.progressMax))))
	} else {
		b.WriteString(spin.Render(a.spinner.View()))
		b.WriteString(muted.Render(" Loading inventory..."))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	title := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	section := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	desc := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		name     string
		bindings [][2]string
	}{
		{"Navigation", [][2]string{
			{"o i p b m x", "Jump to tab"},
			{"← → tab", "Previous / next tab"},
			{"j k g G", "Move in lists"},
		}},
		{"Inventory & projects", [][2]string{
			{"/", "Search inventory"},
			{"l", "Low stock only"},
			{"enter", "Project detail"},
			{"esc", "Back / clear search"},
		}},
		{"Budget & recommendations", [][2]string{
			{"s", "Cycle strategy / sort"},
			{"t", "Cycle recommendation type"},
			{"+ -", "Raise / lower min score"},
			{"v", "Reverse sort order"},
			{"d u", "Dismiss / undo dismiss"},
		}},
		{"General", [][2]string{
			{"r", "Refresh now"},
			{"R", "Toggle auto-refresh"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(title.Render("▣ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, s := range sections {
		b.WriteString("\n")
		b.WriteString(section.Render(s.name))
		b.WriteString("\n")
		for _, kv := range s.bindings {
			fmt.Fprintf(&b, "  %s  %s\n", keyStyle.Render(fmt.Sprintf("%-12s", kv[0])), desc.Render(kv[1]))
		}
	}
	b.WriteString("\n")
	b.WriteString(dim.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()

	pill := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pillAccent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	filter := pill.Render(" ") + pillAccent.Render(fmt.Sprintf("%dd", a.days)) +
		pill.Render(" │ ") + pillAccent.Render(a.money.Code())
	if a.quotes != nil {
		filter += pill.Render(" │ ") + pillAccent.Render(fmt.Sprintf("%d quotes", len(a.quotes)))
	}
	filter += pill.Render(" ")

	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		lipgloss.NewStyle().Background(t.Surface).Width(w).Render(filter)

	var budget *model.BudgetStats
	if a.data != nil {
		budget = &a.budget
	}
	statusBar := components.RenderStatusBar(w, components.StatusInfo{
		Budget:      budget,
		Refreshing:  a.refreshing,
		AutoRefresh: a.autoRefresh,
		DataAge:     dataAge(time.Since(a.lastRefresh)),
		Message:     a.flash,
	})

	contentH := max(a.height-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch {
	case a.loadErr != nil:
		content = components.ContentCard("Error", lipgloss.NewStyle().Foreground(t.Red).Render(a.loadErr.Error()), cw)
	case a.activeTab == tabOverview:
		content = a.renderOverviewTab(cw)
	case a.activeTab == tabInventory:
		content = a.renderInventoryTab(cw, contentH)
	case a.activeTab == tabProjects:
		content = a.renderProjectsTab(cw, contentH)
	case a.activeTab == tabBudget:
		content = a.renderBudgetTab(cw)
	case a.activeTab == tabRecommend:
		content = a.renderRecommendTab(cw, contentH)
	case a.activeTab == tabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, a.height, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Helpers ────────────────────────────────────────────────────

// skus lists the SKUs of every inventory item, for quote fetches.
func (a App) skus() []string {
	if a.data == nil {
		return nil
	}
	out := make([]string, 0, len(a.data.Items))
	for _, it := range a.data.Items {
		if it.SKU != "" {
			out = append(out, it.SKU)
		}
	}
	return out
}

func dataAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	n := strings.Count(s, "\n") + 1
	if n >= h {
		return s
	}
	return s + strings.Repeat("\n", h-n)
}

// fillLinesWithBackground pads every line to w with the background color,
// covering the gaps between cards.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line, lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}

// tabAtX returns the tab under column x, or -1. Widths follow
// RenderTabBar: each tab then a one-column separator.
func (a App) tabAtX(x int) int {
	pos := 0
	for i := range components.Tabs {
		w := components.TabVisualWidth(i, a.activeTab)
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + 1
	}
	return -1
}

// visibleWindow returns the [start, end) slice of n rows to show so that
// cursor stays within rows visible lines.
func visibleWindow(cursor, offset, n, rows int) (int, int) {
	rows = max(rows, 1)
	if cursor < offset {
		offset = cursor
	}
	if cursor >= offset+rows {
		offset = cursor - rows + 1
	}
	offset = max(min(offset, n-rows), 0)
	return offset, min(offset+rows, n)
}

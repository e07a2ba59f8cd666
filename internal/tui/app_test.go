package tui

import (
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/partsbin/internal/config"
	"github.com/theirongolddev/partsbin/internal/model"
	"github.com/theirongolddev/partsbin/internal/planner"
	"github.com/theirongolddev/partsbin/internal/tui/components"
)

func TestTabAtXMatchesTabWidths(t *testing.T) {
	n := len(components.Tabs)
	for active := 0; active < n; active++ {
		a := App{activeTab: active}
		pos := 0
		for i := 0; i < n; i++ {
			w := components.TabVisualWidth(i, active)
			x := pos + w/2
			if got := a.tabAtX(x); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, x, got, i)
			}
			pos += w + 1
		}
		if got := a.tabAtX(pos + 50); got != -1 {
			t.Fatalf("active=%d tabAtX past the last tab = %d, want -1", active, got)
		}
	}
}

func TestVisibleWindow(t *testing.T) {
	tests := []struct {
		cursor, offset, n, rows int
		start, end              int
	}{
		{0, 0, 5, 10, 0, 5},
		{0, 0, 20, 10, 0, 10},
		{12, 0, 20, 10, 3, 13},
		{4, 8, 20, 10, 4, 14},
		{19, 0, 20, 10, 10, 20},
		{0, 0, 0, 10, 0, 0},
		{3, 0, 5, 0, 3, 4},
	}
	for _, tt := range tests {
		start, end := visibleWindow(tt.cursor, tt.offset, tt.n, tt.rows)
		if start != tt.start || end != tt.end {
			t.Fatalf("visibleWindow(%d, %d, %d, %d) = [%d, %d), want [%d, %d)",
				tt.cursor, tt.offset, tt.n, tt.rows, start, end, tt.start, tt.end)
		}
	}
}

func TestDataAge(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
	}
	for _, tt := range tests {
		if got := dataAge(tt.d); got != tt.want {
			t.Fatalf("dataAge(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestNextStrategyCycles(t *testing.T) {
	s := planner.Strategies[0]
	seen := map[planner.Strategy]bool{}
	for range planner.Strategies {
		seen[s] = true
		s = nextStrategy(s)
	}
	if s != planner.Strategies[0] || len(seen) != len(planner.Strategies) {
		t.Fatalf("nextStrategy did not visit every strategy once: seen=%v", seen)
	}
	if got := nextStrategy("bogus"); got != planner.Strategies[0] {
		t.Fatalf("nextStrategy(bogus) = %s, want %s", got, planner.Strategies[0])
	}
}

func TestClampScore(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{-0.1, 0},
		{0.30000000000000004, 0.3},
		{1.2, 1},
		{0.55, 0.6},
	}
	for _, tt := range tests {
		if got := clampScore(tt.in); got != tt.want {
			t.Fatalf("clampScore(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func testRecs() []model.Recommendation {
	return []model.Recommendation{
		{ID: "a", Type: model.RecComponent, Title: "Restock resistors", Score: 0.9, EstimatedCost: decimal.NewFromInt(4)},
		{ID: "b", Type: model.RecProject, Title: "Finish the clock", Score: 0.5, EstimatedCost: decimal.NewFromInt(30)},
		{ID: "c", Type: model.RecBundle, Title: "Sensor kit", Score: 0.2, EstimatedCost: decimal.NewFromInt(12)},
	}
}

func TestRecommendKeyFilters(t *testing.T) {
	a := &App{recs: testRecs(), rec: newRecommendState(0)}

	if got := len(a.filteredRecs()); got != 3 {
		t.Fatalf("unfiltered = %d, want 3", got)
	}

	a.recommendKey("t")
	recs := a.filteredRecs()
	if len(recs) != 1 || recs[0].Type != model.RecComponent {
		t.Fatalf("after t = %+v, want only component", recs)
	}
	for range model.RecommendationTypes {
		a.recommendKey("t")
	}
	if a.rec.typeIdx != -1 {
		t.Fatalf("typeIdx = %d, want -1 after a full cycle", a.rec.typeIdx)
	}

	for i := 0; i < 3; i++ {
		a.recommendKey("+")
	}
	if a.rec.minScore != 0.3 {
		t.Fatalf("minScore = %v, want 0.3", a.rec.minScore)
	}
	if got := len(a.filteredRecs()); got != 2 {
		t.Fatalf("with min score 0.3 = %d, want 2", got)
	}

	a.recommendKey("G")
	if a.rec.cursor != 1 {
		t.Fatalf("cursor after G = %d, want 1", a.rec.cursor)
	}
	a.recommendKey("v")
	if first := a.filteredRecs()[0].ID; first != "b" {
		t.Fatalf("ascending first = %s, want b", first)
	}
}

func TestRecommendDismissWithoutRepo(t *testing.T) {
	a := &App{recs: testRecs(), rec: newRecommendState(0)}
	handled, cmd := a.recommendKey("d")
	if !handled || cmd != nil {
		t.Fatalf("dismiss without a repository = (%v, %v), want (true, nil)", handled, cmd)
	}
	if a.rec.lastDismissed != "" {
		t.Fatalf("lastDismissed = %q, want empty", a.rec.lastDismissed)
	}
}

func TestProjectsKeyDetailNeedsProjects(t *testing.T) {
	a := &App{}
	a.projectsKey("enter")
	if a.proj.detail {
		t.Fatal("detail opened with no projects")
	}
	a.projectStats = []model.ProjectCostStats{{ProjectID: "p1"}, {ProjectID: "p2"}}
	a.projectsKey("enter")
	a.projectsKey("j")
	a.projectsKey("j")
	if !a.proj.detail || a.proj.cursor != 1 {
		t.Fatalf("detail=%v cursor=%d, want true and 1", a.proj.detail, a.proj.cursor)
	}
	if handled, _ := a.projectsKey("q"); !handled || a.proj.detail {
		t.Fatal("q should close the detail view before quitting")
	}
	if handled, _ := a.projectsKey("q"); handled {
		t.Fatal("q on the list should fall through to quit")
	}
}

func TestSetupValuesApply(t *testing.T) {
	cfg := config.DefaultConfig()
	v := &setupValues{currency: "eur", budget: "150.50", ordersDir: " /tmp/orders ", theme: "nord"}

	got, err := v.apply(cfg)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got.Currency.Code != "EUR" {
		t.Fatalf("currency = %s, want EUR", got.Currency.Code)
	}
	if got.Budget.Monthly == nil || *got.Budget.Monthly != 150.5 {
		t.Fatalf("budget = %v, want 150.5", got.Budget.Monthly)
	}
	if got.General.OrdersDir != "/tmp/orders" {
		t.Fatalf("orders dir = %q, want /tmp/orders", got.General.OrdersDir)
	}
	if got.Appearance.Theme != "nord" {
		t.Fatalf("theme = %s, want nord", got.Appearance.Theme)
	}

	v.budget = ""
	got, err = v.apply(got)
	if err != nil || got.Budget.Monthly != nil {
		t.Fatalf("blank budget = %v, %v; want cleared", got.Budget.Monthly, err)
	}

	v.currency = "XXQ"
	if _, err := v.apply(cfg); err == nil {
		t.Fatal("unknown currency should fail")
	}
	v.currency = "USD"
	v.budget = "-5"
	if _, err := v.apply(cfg); err == nil {
		t.Fatal("negative budget should fail")
	}
}

func TestSettingsSave(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	a := NewApp(Options{}, 0)

	edit := func(field int, value string) {
		a.settings.cursor = field
		a.settings.input = textinput.New()
		a.settings.input.SetValue(value)
		a.settingsSave()
	}

	edit(settingsFieldDays, "14")
	if a.settings.saveErr != nil || a.days != 14 {
		t.Fatalf("days save: err=%v days=%d", a.settings.saveErr, a.days)
	}
	edit(settingsFieldStrategy, "Equal")
	if a.strategy != planner.Equal {
		t.Fatalf("strategy = %s, want equal", a.strategy)
	}
	edit(settingsFieldBudget, "200")
	if !a.monthlyBudget.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("monthly budget = %s, want 200", a.monthlyBudget)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.DefaultDays != 14 || cfg.Budget.Strategy != "equal" || cfg.Budget.Monthly == nil {
		t.Fatalf("saved config = %+v", cfg)
	}

	edit(settingsFieldRefreshInterval, "5")
	if a.settings.saveErr == nil {
		t.Fatal("interval below 10s should be rejected")
	}
	edit(settingsFieldTheme, "no-such-theme")
	if a.settings.saveErr == nil {
		t.Fatal("unknown theme should be rejected")
	}
}

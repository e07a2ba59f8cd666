package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/partsbin/internal/model"
	"github.com/theirongolddev/partsbin/internal/tui/theme"
)

func init() {
	// Force TrueColor so styles emit ANSI codes in tests.
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRowSumsToWidth(t *testing.T) {
	for _, tt := range []struct{ width, n int }{{80, 3}, {81, 4}, {7, 7}, {100, 6}} {
		got := LayoutRow(tt.width, tt.n)
		sum := 0
		for _, w := range got {
			sum += w
		}
		if sum != tt.width {
			t.Fatalf("LayoutRow(%d, %d) sums to %d, want %d", tt.width, tt.n, sum, tt.width)
		}
		if got[0]-got[len(got)-1] > 1 {
			t.Fatalf("LayoutRow(%d, %d) = %v, uneven split", tt.width, tt.n, got)
		}
	}
	if got := LayoutRow(10, 0); got != nil {
		t.Fatalf("LayoutRow(10, 0) = %v, want nil", got)
	}
}

func TestCardRowBackgroundFill(t *testing.T) {
	theme.SetActive("flexoki-dark")

	short := ContentCard("Short", "Content", 22)
	tall := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)
	shortLines := lipgloss.Height(short)
	tallLines := lipgloss.Height(tall)
	if shortLines >= tallLines {
		t.Fatal("short card should be shorter than tall card")
	}

	lines := strings.Split(CardRow([]string{tall, short}), "\n")
	if len(lines) != tallLines {
		t.Fatalf("joined height = %d, want %d", len(lines), tallLines)
	}
	want := lipgloss.Width(tall) + lipgloss.Width(short)
	for i, line := range lines {
		if w := lipgloss.Width(line); w != want {
			t.Fatalf("line %d width = %d, want %d", i, w, want)
		}
		if i >= shortLines && !strings.Contains(line, "\x1b[") {
			t.Fatalf("padding line %d has no styling: %q", i, line)
		}
	}
}

func TestMetricCardRowWidth(t *testing.T) {
	row := MetricCardRow([]Metric{
		{Label: "Spend", Value: "$120.00"},
		{Label: "Budget", Value: "40%", Delta: "of $300.00"},
		{Label: "Low stock", Value: "3", Color: theme.Active.Orange},
	}, 90)
	for i, line := range strings.Split(row, "\n") {
		if w := lipgloss.Width(line); w != 90 {
			t.Fatalf("line %d width = %d, want 90", i, w)
		}
	}
}

func TestTabVisualWidthMatchesRender(t *testing.T) {
	for active := range Tabs {
		want := len(Tabs) - 1 // separators
		for i := range Tabs {
			want += TabVisualWidth(i, active)
		}
		if got := lipgloss.Width(RenderTabBar(active, 0)); got != want {
			t.Fatalf("active=%d: rendered width = %d, want %d", active, got, want)
		}
	}
}

func TestTabIdxByKey(t *testing.T) {
	if got := TabIdxByKey('m'); Tabs[got].Name != "Recommend" {
		t.Fatalf("TabIdxByKey('m') = %d, want Recommend", got)
	}
	if got := TabIdxByKey('z'); got != -1 {
		t.Fatalf("TabIdxByKey('z') = %d, want -1", got)
	}
}

func TestNiceStep(t *testing.T) {
	tests := []struct {
		peak, want float64
	}{
		{0, 1},
		{5, 1},
		{12, 2},
		{30, 5},
		{480, 50},
		{1200, 200},
	}
	for _, tt := range tests {
		if got := niceStep(tt.peak); got != tt.want {
			t.Fatalf("niceStep(%v) = %v, want %v", tt.peak, got, tt.want)
		}
	}
}

func TestCompactLabel(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{0, "0"},
		{0.5, "0.50"},
		{250, "250"},
		{2000, "2k"},
		{2500, "2.5k"},
		{3000000, "3M"},
	}
	for _, tt := range tests {
		if got := compactLabel(tt.v); got != tt.want {
			t.Fatalf("compactLabel(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestColumnChartFallsBackToSparkline(t *testing.T) {
	bars := []Bar{{"Jan", 1}, {"Feb", 4}, {"Mar", 2}}
	got := ColumnChart(bars, "$", theme.Active.Accent, 10, 10)
	if lipgloss.Height(got) != 1 || lipgloss.Width(got) != 3 {
		t.Fatalf("narrow chart = %q, want a 3-cell sparkline", got)
	}

	full := ColumnChart(bars, "$", theme.Active.Accent, 40, 8)
	if !strings.Contains(full, "Jan") || !strings.Contains(full, "Mar") {
		t.Fatalf("chart missing labels:\n%s", full)
	}
}

func TestShareBarsAlignsValues(t *testing.T) {
	got := ShareBars([]Bar{{"passives", 10}, {"ics", 40}}, func(b Bar) string {
		return "x"
	}, theme.Active.Accent, 40)
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if lipgloss.Width(lines[0]) != lipgloss.Width(lines[1]) {
		t.Fatalf("row widths differ: %d vs %d", lipgloss.Width(lines[0]), lipgloss.Width(lines[1]))
	}
}

func TestBudgetBarShowsLevel(t *testing.T) {
	got := BudgetBar("May", 1.2, model.AlertExceeded, 6, 20)
	if !strings.Contains(got, "EXCEEDED") || !strings.Contains(got, "120%") {
		t.Fatalf("BudgetBar = %q, want level and uncapped percent", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("resistor kit", 6); lipgloss.Width(got) != 6 || !strings.HasSuffix(got, "…") {
		t.Fatalf("Truncate = %q, want 6 cells ending in ellipsis", got)
	}
	if got := Truncate("led", 6); got != "led" {
		t.Fatalf("Truncate(short) = %q, want unchanged", got)
	}
}

package report

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/partsbin/internal/currency"
	"github.com/theirongolddev/partsbin/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testData() Data {
	return Data{
		GeneratedAt: time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC),
		Days:        30,
		Budget: model.BudgetStats{
			MonthlyBudget:    dec("200"),
			CurrentSpend:     dec("150"),
			Remaining:        dec("50"),
			DailyBurnRate:    dec("10"),
			ProjectedMonthly: dec("310"),
			UsedFraction:     0.75,
			Level:            model.AlertWarning,
		},
		Analysis: model.SpendingAnalysis{
			Total:      dec("150"),
			Purchases:  3,
			ByCategory: []model.SpendStats{{Key: "mcu", Purchases: 2, Total: dec("120"), Share: 0.8}},
		},
		Projects: []model.ProjectCostStats{
			{Name: "Clock", Status: model.StatusActive, Planned: dec("40"), Spent: dec("25"), ToBuy: dec("15"), Budget: dec("30"), OverBudget: true},
		},
		Totals: model.ProjectCostStats{Planned: dec("40"), Spent: dec("25"), ToBuy: dec("15")},
		Recommendations: []model.Recommendation{
			{Title: "Buy 2 x ESP32", EstimatedCost: dec("10"), Score: 0.9, Reasoning: "Clock still need 2."},
		},
		Format: currency.MustNew("USD"),
	}
}

func TestMarkdown(t *testing.T) {
	md, err := Markdown(testData())
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	for _, want := range []string{
		"# partsbin report",
		"_Generated 2026-03-15 09:30 · USD_",
		"| Monthly budget | $200.00 |",
		"| Spent this month | $150.00 (75%) |",
		"| Alert level | **warning** |",
		"| mcu | 2 | $120.00 | 80% |",
		"| Clock ⚠ | active | $40.00 | $25.00 | $15.00 | $30.00 |",
		"**Buy 2 x ESP32** ($10.00, score 0.90): Clock still need 2.",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestMarkdownWithoutBudgetOrProjects(t *testing.T) {
	d := testData()
	d.Budget = model.BudgetStats{CurrentSpend: dec("12"), ProjectedMonthly: dec("30")}
	d.Projects = nil
	d.Recommendations = nil
	d.Format = nil

	md, err := Markdown(d)
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	for _, want := range []string{"No monthly budget is set. Spent this month: $12.00, projected $30.00.", "No projects yet."} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "## Recommendations") {
		t.Fatal("empty recommendations section rendered")
	}
}

func TestTerminal(t *testing.T) {
	out, err := Terminal("# Budget\n\nSpent **$150.00**.", 80, "notty")
	if err != nil {
		t.Fatalf("Terminal: %v", err)
	}
	if !strings.Contains(out, "Budget") || !strings.Contains(out, "$150.00") {
		t.Fatalf("rendered = %q", out)
	}
}

package pipeline

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/partsbin/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.Local)
}

func testItems() []model.InventoryItem {
	return []model.InventoryItem{
		{ID: "r10k", Name: "10k resistor", SKU: "R-10K", Category: "passives", Supplier: "lcsc",
			Quantity: 100, MinQuantity: 20, UnitPrice: dec("0.01"), Tags: []string{"0805"}},
		{ID: "esp", Name: "ESP32-C3", SKU: "ESP32C3", Category: "microcontrollers", Supplier: "digikey",
			Quantity: 1, MinQuantity: 2, UnitPrice: dec("3.00"), Location: "drawer A"},
		{ID: "oled", Name: "OLED 128x64", SKU: "SSD1306", Category: "displays", Supplier: "digikey",
			Quantity: 2, UnitPrice: dec("4.50")},
		{ID: "misc", Name: "Mystery part", Quantity: 3, UnitPrice: dec("1")},
	}
}

func testPurchases() []model.Purchase {
	return []model.Purchase{
		{ID: "a", Supplier: "digikey", Category: "microcontrollers", ProjectID: "clock",
			Quantity: 2, UnitPrice: dec("3"), Shipping: dec("1"), PurchasedAt: day(2026, 10, 3)},
		{ID: "b", Supplier: "lcsc", Category: "passives",
			Quantity: 100, UnitPrice: dec("0.01"), PurchasedAt: day(2026, 10, 3)},
		{ID: "c", Supplier: "digikey", Category: "displays", ProjectID: "clock",
			Quantity: 1, UnitPrice: dec("4.5"), PurchasedAt: day(2026, 10, 9)},
		{ID: "d", Supplier: "adafruit", Category: "sensors", ProjectID: "weather",
			Quantity: 1, UnitPrice: dec("10"), PurchasedAt: day(2026, 8, 20)},
	}
}

func TestSummarize(t *testing.T) {
	projects := []model.Project{
		{ID: "clock", Status: model.StatusActive, Components: []model.ProjectComponent{{Quantity: 2, UnitPrice: dec("5")}}},
		{ID: "done", Status: model.StatusCompleted, Components: []model.ProjectComponent{{Quantity: 1, UnitPrice: dec("99")}}},
		{ID: "plan", Status: model.StatusPlanning},
	}
	since := day(2026, 10, 1)
	until := day(2026, 11, 1)

	s := Summarize(testItems(), projects, testPurchases(), since, until)

	if s.Items != 4 || s.Units != 106 {
		t.Fatalf("Items/Units = %d/%d, want 4/106", s.Items, s.Units)
	}
	// 1.00 + 3.00 + 9.00 + 3.00
	if !s.InventoryValue.Equal(dec("16")) {
		t.Fatalf("InventoryValue = %s, want 16", s.InventoryValue)
	}
	if s.LowStock != 1 {
		t.Fatalf("LowStock = %d, want 1", s.LowStock)
	}
	if s.OpenProjects != 2 || s.ActiveProjects != 1 {
		t.Fatalf("Open/Active = %d/%d, want 2/1", s.OpenProjects, s.ActiveProjects)
	}
	if !s.PlannedCost.Equal(dec("10")) {
		t.Fatalf("PlannedCost = %s, want 10", s.PlannedCost)
	}
	// 7 + 1 + 4.5
	if !s.Spend.Equal(dec("12.5")) || s.Purchases != 3 {
		t.Fatalf("Spend = %s over %d purchases, want 12.5 over 3", s.Spend, s.Purchases)
	}
	if s.SpendDays != 2 || !s.SpendPerDay.Equal(dec("6.25")) {
		t.Fatalf("SpendDays = %d, SpendPerDay = %s, want 2 and 6.25", s.SpendDays, s.SpendPerDay)
	}
}

func TestAggregateCategories(t *testing.T) {
	cats := AggregateCategories(testItems())
	if len(cats) != 4 {
		t.Fatalf("categories = %d, want 4", len(cats))
	}
	if cats[0].Category != "displays" || !cats[0].Value.Equal(dec("9")) {
		t.Fatalf("top category = %s %s, want displays 9", cats[0].Category, cats[0].Value)
	}
	// Ties at 3.00 break by name.
	if cats[1].Category != NoneKey || cats[2].Category != "microcontrollers" {
		t.Fatalf("tie order = %s, %s; want %s, microcontrollers", cats[1].Category, cats[2].Category, NoneKey)
	}
	if cats[2].LowStock != 1 {
		t.Fatalf("microcontrollers LowStock = %d, want 1", cats[2].LowStock)
	}

	var total float64
	for _, c := range cats {
		total += c.Share
	}
	if total < 0.999 || total > 1.001 {
		t.Fatalf("shares sum to %f, want 1", total)
	}
}

func TestAggregateSuppliers(t *testing.T) {
	sups := AggregateSuppliers(testItems())
	if sups[0].Supplier != "digikey" || sups[0].Items != 2 || !sups[0].Value.Equal(dec("12")) {
		t.Fatalf("top supplier = %+v, want digikey with 2 items worth 12", sups[0])
	}
}

func TestAggregateSpend(t *testing.T) {
	since := day(2026, 10, 1)
	until := day(2026, 11, 1)

	byProject := AggregateSpend(testPurchases(), since, until, KeyProject)
	if len(byProject) != 2 {
		t.Fatalf("project groups = %d, want 2", len(byProject))
	}
	if byProject[0].Key != "clock" || !byProject[0].Total.Equal(dec("11.5")) {
		t.Fatalf("top project = %s %s, want clock 11.5", byProject[0].Key, byProject[0].Total)
	}
	if byProject[1].Key != NoneKey {
		t.Fatalf("untagged purchases key = %q, want %q", byProject[1].Key, NoneKey)
	}

	bySupplier := AggregateSpend(testPurchases(), time.Time{}, time.Time{}, KeySupplier)
	if bySupplier[0].Key != "digikey" || bySupplier[0].Purchases != 2 {
		t.Fatalf("top supplier = %+v, want digikey with 2 purchases", bySupplier[0])
	}
}

func TestAggregateMonthsFillsGaps(t *testing.T) {
	since := time.Date(2026, 7, 15, 0, 0, 0, 0, time.Local)
	until := time.Date(2026, 11, 1, 0, 0, 0, 0, time.Local)

	months := AggregateMonths(testPurchases(), since, until)
	if len(months) != 4 {
		t.Fatalf("months = %d, want 4 (Jul..Oct)", len(months))
	}
	if months[0].Month.Month() != time.October || !months[0].Total.Equal(dec("12.5")) {
		t.Fatalf("first month = %s %s, want October 12.5", months[0].Month.Month(), months[0].Total)
	}
	if months[1].Month.Month() != time.September || !months[1].Total.IsZero() {
		t.Fatalf("second month = %s %s, want empty September", months[1].Month.Month(), months[1].Total)
	}
	if months[3].Month.Month() != time.July {
		t.Fatalf("last month = %s, want July", months[3].Month.Month())
	}
}

func TestFilterItems(t *testing.T) {
	items := testItems()
	tests := []struct {
		name   string
		filter ItemFilter
		want   int
	}{
		{"empty", ItemFilter{}, 4},
		{"category", ItemFilter{Category: "PASSIVE"}, 1},
		{"supplier", ItemFilter{Supplier: "digi"}, 2},
		{"query sku", ItemFilter{Query: "ssd13"}, 1},
		{"query tag", ItemFilter{Query: "0805"}, 1},
		{"query location", ItemFilter{Query: "drawer"}, 1},
		{"low stock", ItemFilter{LowStockOnly: true}, 1},
		{"combined", ItemFilter{Supplier: "digikey", LowStockOnly: true}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(FilterItems(items, tt.filter)); got != tt.want {
				t.Fatalf("FilterItems(%+v) = %d items, want %d", tt.filter, got, tt.want)
			}
		})
	}
}

func TestFilterPurchasesByTimeIsHalfOpen(t *testing.T) {
	p := []model.Purchase{{ID: "x", PurchasedAt: day(2026, 10, 3)}}
	if got := FilterPurchasesByTime(p, day(2026, 10, 3), day(2026, 10, 4)); len(got) != 1 {
		t.Fatal("purchase at since excluded")
	}
	if got := FilterPurchasesByTime(p, day(2026, 10, 1), day(2026, 10, 3)); len(got) != 0 {
		t.Fatal("purchase at until included")
	}
}

func TestFilterProjectsByStatus(t *testing.T) {
	projects := []model.Project{
		{ID: "a", Status: model.StatusActive},
		{ID: "b", Status: model.StatusPaused},
		{ID: "c", Status: model.StatusCompleted},
	}
	got := FilterProjectsByStatus(projects, model.StatusActive, model.StatusPaused)
	if len(got) != 2 {
		t.Fatalf("FilterProjectsByStatus = %d, want 2", len(got))
	}
	if len(FilterProjectsByStatus(projects)) != 3 {
		t.Fatal("no statuses should keep all projects")
	}
	if got := FilterPurchasesByProject(testPurchases(), "clock"); len(got) != 2 {
		t.Fatalf("FilterPurchasesByProject(clock) = %d, want 2", len(got))
	}
}

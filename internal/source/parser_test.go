package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/partsbin/internal/model"
)

// writeOrder creates a temp order file and returns a DiscoveredFile for it.
func writeOrder(t *testing.T, name, content string) DiscoveredFile {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return DiscoveredFile{Path: path, Supplier: "mouser", Format: formatForExt(filepath.Ext(name))}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestParseFile_CSV(t *testing.T) {
	df := writeOrder(t, "order.csv",
		"Date,SKU,Name,Category,Quantity,Unit_Price,Currency,Shipping,Project,Notes\n"+
			"2026-10-01,R-10K,10k resistor,passives,100,0.01,usd,0,,bulk\n"+
			"2026-10-01,ATMEGA328P,ATmega328P,microcontrollers,2,$2.50,USD,1.20,clock,\n"+
			"2026-10-01,,,passives,1,0.1,USD,0,,\n"+
			"2026-10-01,BAD,bad row,passives,many,0.1,USD,0,,\n",
	)

	res := ParseFile(df)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(res.Purchases) != 2 {
		t.Fatalf("Purchases = %d, want 2", len(res.Purchases))
	}
	if res.ParseErrors != 2 {
		t.Errorf("ParseErrors = %d, want 2", res.ParseErrors)
	}

	p := res.Purchases[1]
	if p.Supplier != "mouser" {
		t.Errorf("Supplier = %q, want mouser", p.Supplier)
	}
	if !p.UnitPrice.Equal(dec("2.5")) || !p.Shipping.Equal(dec("1.2")) {
		t.Errorf("price/shipping = %s/%s, want 2.5/1.2", p.UnitPrice, p.Shipping)
	}
	if !p.Total().Equal(dec("6.2")) {
		t.Errorf("Total() = %s, want 6.2", p.Total())
	}
	if p.ProjectID != "clock" {
		t.Errorf("ProjectID = %q, want clock", p.ProjectID)
	}
	if res.Purchases[0].Currency != "USD" {
		t.Errorf("Currency = %q, want USD", res.Purchases[0].Currency)
	}
	if p.PurchasedAt.Day() != 1 || p.PurchasedAt.Month() != 10 {
		t.Errorf("PurchasedAt = %v, want 2026-10-01", p.PurchasedAt)
	}
}

func TestParseFile_CSVMissingColumns(t *testing.T) {
	df := writeOrder(t, "order.csv", "sku,name\nA,B\n")
	if res := ParseFile(df); res.Err == nil {
		t.Fatal("expected error for CSV without quantity/unit_price")
	}
}

func TestParseFile_StableIDs(t *testing.T) {
	content := "sku,quantity,unit_price\nA,1,1\nB,2,2\n"
	df := writeOrder(t, "order.csv", content)

	first := ParseFile(df)
	second := ParseFile(df)
	for i := range first.Purchases {
		if first.Purchases[i].ID != second.Purchases[i].ID {
			t.Fatalf("purchase %d id changed between parses", i)
		}
	}
	if first.Purchases[0].ID == first.Purchases[1].ID {
		t.Fatal("rows share an id")
	}
}

func TestParseFile_JSONSplitsShipping(t *testing.T) {
	df := writeOrder(t, "order.json", `{
		"supplier": "lcsc",
		"ordered_at": "2026-09-14",
		"currency": "usd",
		"shipping": "3.00",
		"project": "synth",
		"lines": [
			{"sku": "C1", "name": "cap", "category": "passives", "quantity": 10, "unit_price": 0.1},
			{"sku": "U1", "name": "opamp", "category": "ics", "quantity": 2, "unit_price": "1.00"},
			{"sku": "", "name": "", "quantity": 1, "unit_price": 1}
		]
	}`)

	res := ParseFile(df)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.ParseErrors != 1 || len(res.Purchases) != 2 {
		t.Fatalf("purchases=%d errors=%d, want 2 and 1", len(res.Purchases), res.ParseErrors)
	}
	if res.Purchases[0].Supplier != "lcsc" {
		t.Errorf("Supplier = %q, want lcsc (document wins over directory)", res.Purchases[0].Supplier)
	}
	// Line values 1.00 and 2.00: shipping splits 1.00 / 2.00.
	if !res.Purchases[0].Shipping.Equal(dec("1")) || !res.Purchases[1].Shipping.Equal(dec("2")) {
		t.Errorf("shipping = %s/%s, want 1/2", res.Purchases[0].Shipping, res.Purchases[1].Shipping)
	}
	if res.Purchases[1].ProjectID != "synth" {
		t.Errorf("ProjectID = %q, want synth", res.Purchases[1].ProjectID)
	}
}

func TestParseFile_YAML(t *testing.T) {
	df := writeOrder(t, "order.yaml", `
ordered_at: "2026-08-02 10:30"
shipping: 4.99
lines:
  - sku: NEMA17
    name: Stepper motor
    category: motion
    quantity: 3
    unit_price: 11.50
`)

	res := ParseFile(df)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(res.Purchases) != 1 {
		t.Fatalf("Purchases = %d, want 1", len(res.Purchases))
	}
	p := res.Purchases[0]
	if p.Supplier != "mouser" {
		t.Errorf("Supplier = %q, want directory supplier mouser", p.Supplier)
	}
	if !p.Shipping.Equal(dec("4.99")) {
		t.Errorf("Shipping = %s, want 4.99", p.Shipping)
	}
	if p.PurchasedAt.Hour() != 10 {
		t.Errorf("PurchasedAt = %v, want 10:30", p.PurchasedAt)
	}
}

func TestParseFile_BadDocument(t *testing.T) {
	df := writeOrder(t, "order.json", `{"lines": [`)
	if res := ParseFile(df); res.Err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}

func TestSplitShippingResidue(t *testing.T) {
	lines := []model.Purchase{
		{Quantity: 1, UnitPrice: dec("1")},
		{Quantity: 1, UnitPrice: dec("1")},
		{Quantity: 1, UnitPrice: dec("1")},
	}
	SplitShipping(lines, dec("1"))

	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Shipping)
	}
	if !sum.Equal(dec("1")) {
		t.Fatalf("shipping sum = %s, want 1", sum)
	}
	if !lines[0].Shipping.Equal(dec("0.33")) || !lines[2].Shipping.Equal(dec("0.34")) {
		t.Fatalf("shares = %s/%s/%s, want 0.33/0.33/0.34", lines[0].Shipping, lines[1].Shipping, lines[2].Shipping)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "0"},
		{"1.5", "1.5"},
		{"$1,234.50", "1234.5"},
		{"€3", "3"},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		if err != nil {
			t.Fatalf("ParseAmount(%q) error: %v", tt.in, err)
		}
		if !got.Equal(dec(tt.want)) {
			t.Fatalf("ParseAmount(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
	if _, err := ParseAmount("cheap"); err == nil {
		t.Fatal("ParseAmount(cheap) succeeded")
	}
}

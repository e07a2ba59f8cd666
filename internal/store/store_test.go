package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/partsbin/internal/model"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "partsbin.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRebind(t *testing.T) {
	got := rebind("SELECT a FROM t WHERE x = ? AND y = ?")
	want := "SELECT a FROM t WHERE x = $1 AND y = $2"
	if got != want {
		t.Fatalf("rebind() = %q, want %q", got, want)
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open(context.Background(), Options{Driver: "mysql"}); err == nil {
		t.Fatal("Open(mysql) succeeded, want error")
	}
}

func TestReopenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "partsbin.db")
	for i := 0; i < 2; i++ {
		s, err := OpenSQLite(ctx, path)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		_ = s.Close()
	}
}

func TestItemCRUD(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	it, err := s.SaveItem(ctx, model.InventoryItem{
		Name:        "ESP32-C3 module",
		SKU:         "ESP32-C3-MINI",
		Category:    "microcontrollers",
		Supplier:    "digikey",
		Quantity:    4,
		MinQuantity: 2,
		UnitPrice:   decimal.RequireFromString("2.85"),
		Tags:        []string{"wifi", "ble"},
	})
	if err != nil {
		t.Fatalf("SaveItem() error: %v", err)
	}
	if it.ID == "" {
		t.Fatal("SaveItem() did not assign an id")
	}

	got, err := s.GetItem(ctx, it.ID)
	if err != nil {
		t.Fatalf("GetItem() error: %v", err)
	}
	if !got.UnitPrice.Equal(decimal.RequireFromString("2.85")) {
		t.Fatalf("UnitPrice = %s, want 2.85", got.UnitPrice)
	}
	if len(got.Tags) != 2 || got.Tags[1] != "ble" {
		t.Fatalf("Tags = %v, want [wifi ble]", got.Tags)
	}

	if err := s.SetQuantity(ctx, it.ID, 1); err != nil {
		t.Fatalf("SetQuantity() error: %v", err)
	}
	got, _ = s.GetItem(ctx, it.ID)
	if got.Quantity != 1 || !got.LowStock() {
		t.Fatalf("after SetQuantity: quantity=%d lowStock=%v", got.Quantity, got.LowStock())
	}

	if err := s.DeleteItem(ctx, it.ID); err != nil {
		t.Fatalf("DeleteItem() error: %v", err)
	}
	if _, err := s.GetItem(ctx, it.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetItem after delete error = %v, want ErrNotFound", err)
	}
	if err := s.SetQuantity(ctx, "missing", 3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("SetQuantity(missing) error = %v, want ErrNotFound", err)
	}
}

func TestProjectComponentsReplacedOnSave(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	p, err := s.SaveProject(ctx, model.Project{
		Name:     "Weather station",
		Budget:   decimal.NewFromInt(60),
		Priority: 2,
		Deadline: time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
		Components: []model.ProjectComponent{
			{Name: "BME280", Quantity: 1, UnitPrice: decimal.RequireFromString("6.50")},
			{Name: "Enclosure", Quantity: 1, UnitPrice: decimal.RequireFromString("12")},
		},
	})
	if err != nil {
		t.Fatalf("SaveProject() error: %v", err)
	}
	if p.Status != model.StatusPlanning {
		t.Fatalf("Status = %q, want planning", p.Status)
	}

	p.Components = p.Components[:1]
	p.Components[0].Quantity = 2
	if _, err := s.SaveProject(ctx, p); err != nil {
		t.Fatalf("SaveProject(update) error: %v", err)
	}

	got, err := s.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProject() error: %v", err)
	}
	if len(got.Components) != 1 || got.Components[0].Quantity != 2 {
		t.Fatalf("Components = %+v, want one BME280 x2", got.Components)
	}
	if !got.Cost().Equal(decimal.NewFromInt(13)) {
		t.Fatalf("Cost() = %s, want 13", got.Cost())
	}
	if !got.Deadline.Equal(p.Deadline) {
		t.Fatalf("Deadline = %v, want %v", got.Deadline, p.Deadline)
	}

	all, err := s.ListProjects(ctx)
	if err != nil || len(all) != 1 || len(all[0].Components) != 1 {
		t.Fatalf("ListProjects() = %+v, %v", all, err)
	}

	if err := s.SetProjectStatus(ctx, p.ID, model.StatusActive); err != nil {
		t.Fatalf("SetProjectStatus() error: %v", err)
	}
	if err := s.DeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProject() error: %v", err)
	}
	if _, err := s.GetProject(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetProject after delete error = %v, want ErrNotFound", err)
	}
}

func TestApplyImportReplacesAndRestocks(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	at := time.Date(2026, 10, 3, 12, 0, 0, 0, time.UTC)
	batch := ImportBatch{
		SourceFile: "/orders/digikey/oct.csv",
		File:       FileInfo{MtimeNs: 100, SizeBytes: 512},
		Restock:    true,
		Purchases: []model.Purchase{
			{ID: "p1", Supplier: "digikey", SKU: "R-10K", Name: "10k resistor", Category: "passives",
				Quantity: 100, UnitPrice: decimal.RequireFromString("0.01"), PurchasedAt: at},
			{ID: "p2", Supplier: "digikey", SKU: "C-100N", Name: "100nF cap", Category: "passives",
				Quantity: 50, UnitPrice: decimal.RequireFromString("0.02"), PurchasedAt: at},
		},
	}
	if err := s.ApplyImport(ctx, batch); err != nil {
		t.Fatalf("ApplyImport() error: %v", err)
	}

	items, err := s.ListItems(ctx)
	if err != nil {
		t.Fatalf("ListItems() error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	for _, it := range items {
		if it.SKU == "R-10K" && it.Quantity != 100 {
			t.Fatalf("R-10K quantity = %d, want 100", it.Quantity)
		}
	}

	// Re-import the edited file without restock: purchases are replaced,
	// stock is untouched.
	batch.Restock = false
	batch.File = FileInfo{MtimeNs: 200, SizeBytes: 300}
	batch.Purchases = batch.Purchases[:1]
	if err := s.ApplyImport(ctx, batch); err != nil {
		t.Fatalf("ApplyImport(reparse) error: %v", err)
	}

	purchases, err := s.ListPurchases(ctx)
	if err != nil {
		t.Fatalf("ListPurchases() error: %v", err)
	}
	if len(purchases) != 1 || purchases[0].ItemID != ItemIDForSKU("digikey", "R-10K") {
		t.Fatalf("purchases = %+v, want p1 linked to R-10K item", purchases)
	}
	if !purchases[0].PurchasedAt.Equal(at) {
		t.Fatalf("PurchasedAt = %v, want %v", purchases[0].PurchasedAt, at)
	}

	it, _ := s.GetItem(ctx, ItemIDForSKU("digikey", "R-10K"))
	if it.Quantity != 100 {
		t.Fatalf("quantity after reparse = %d, want 100", it.Quantity)
	}

	tracked, err := s.TrackedFiles(ctx)
	if err != nil {
		t.Fatalf("TrackedFiles() error: %v", err)
	}
	if fi := tracked[batch.SourceFile]; fi.MtimeNs != 200 || fi.SizeBytes != 300 {
		t.Fatalf("tracked = %+v, want mtime 200 size 300", fi)
	}

	if err := s.ForgetFile(ctx, batch.SourceFile); err != nil {
		t.Fatalf("ForgetFile() error: %v", err)
	}
	purchases, _ = s.ListPurchases(ctx)
	if len(purchases) != 0 {
		t.Fatalf("purchases after ForgetFile = %d, want 0", len(purchases))
	}
}

func TestApplyImportKeepsPriceInItemCurrency(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	it, err := s.SaveItem(ctx, model.InventoryItem{
		Name: "Stepper driver", SKU: "TMC2209", Supplier: "mouser", Quantity: 1,
		UnitPrice: decimal.RequireFromString("80"), Currency: "EUR",
	})
	if err != nil {
		t.Fatalf("SaveItem() error: %v", err)
	}

	at := time.Date(2026, 10, 5, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		currency  string
		price     string
		wantQty   int
		wantPrice string
	}{
		{"foreign currency keeps price", "JPY", "9000", 2, "80"},
		{"same currency updates price", "eur", "75.5", 3, "75.5"},
		{"base currency on a EUR item keeps price", "", "70", 4, "75.5"},
	}
	for i, tt := range tests {
		err := s.ApplyImport(ctx, ImportBatch{
			SourceFile: fmt.Sprintf("/orders/mouser/%d.csv", i),
			Restock:    true,
			Purchases: []model.Purchase{{
				ID: fmt.Sprintf("p%d", i), ItemID: it.ID, Supplier: "mouser", SKU: "TMC2209",
				Quantity: 1, UnitPrice: decimal.RequireFromString(tt.price), Currency: tt.currency, PurchasedAt: at,
			}},
		})
		if err != nil {
			t.Fatalf("%s: ApplyImport() error: %v", tt.name, err)
		}
		got, err := s.GetItem(ctx, it.ID)
		if err != nil {
			t.Fatalf("%s: GetItem() error: %v", tt.name, err)
		}
		if got.Quantity != tt.wantQty {
			t.Fatalf("%s: quantity = %d, want %d", tt.name, got.Quantity, tt.wantQty)
		}
		if !got.UnitPrice.Equal(decimal.RequireFromString(tt.wantPrice)) || got.Currency != "EUR" {
			t.Fatalf("%s: price = %s %s, want %s EUR", tt.name, got.UnitPrice, got.Currency, tt.wantPrice)
		}
	}
}

func TestDismissed(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	if err := s.Dismiss(ctx, "restock:abc", time.Now()); err != nil {
		t.Fatalf("Dismiss() error: %v", err)
	}
	if err := s.Dismiss(ctx, "restock:abc", time.Now()); err != nil {
		t.Fatalf("Dismiss() twice error: %v", err)
	}
	got, err := s.Dismissed(ctx)
	if err != nil {
		t.Fatalf("Dismissed() error: %v", err)
	}
	if !got["restock:abc"] || len(got) != 1 {
		t.Fatalf("Dismissed() = %v, want {restock:abc}", got)
	}
	if err := s.Undismiss(ctx, "restock:abc"); err != nil {
		t.Fatalf("Undismiss() error: %v", err)
	}
	if err := s.Undismiss(ctx, "restock:abc"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Undismiss twice error = %v, want ErrNotFound", err)
	}
}

package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/theirongolddev/partsbin/internal/currency"
	"github.com/theirongolddev/partsbin/internal/model"
)

type fakeRepo struct {
	items     []model.InventoryItem
	projects  []model.Project
	purchases []model.Purchase
	dismissed map[string]bool
	err       error
}

func (f *fakeRepo) ListItems(context.Context) ([]model.InventoryItem, error) { return f.items, nil }
func (f *fakeRepo) ListProjects(context.Context) ([]model.Project, error)    { return f.projects, nil }
func (f *fakeRepo) ListPurchases(context.Context) ([]model.Purchase, error) {
	return f.purchases, f.err
}
func (f *fakeRepo) Dismissed(context.Context) (map[string]bool, error) { return f.dismissed, nil }

func TestLoad(t *testing.T) {
	repo := &fakeRepo{
		items:     testItems(),
		projects:  []model.Project{{ID: "clock"}},
		purchases: testPurchases(),
	}
	res, err := Load(context.Background(), repo)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(res.Items) != 4 || len(res.Projects) != 1 || len(res.Purchases) != 4 {
		t.Fatalf("Load() = %d items, %d projects, %d purchases", len(res.Items), len(res.Projects), len(res.Purchases))
	}
	if res.Dismissed == nil {
		t.Fatal("Dismissed is nil, want empty map")
	}
}

func TestLoadPropagatesError(t *testing.T) {
	boom := errors.New("disk on fire")
	_, err := Load(context.Background(), &fakeRepo{err: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("Load() error = %v, want wrapped %v", err, boom)
	}
}

func TestConvertTo(t *testing.T) {
	res := &LoadResult{
		Items: []model.InventoryItem{
			{ID: "a", UnitPrice: dec("10"), Currency: "EUR"},
			{ID: "b", UnitPrice: dec("10")},
			{ID: "c", UnitPrice: dec("10"), Currency: "CHF"},
		},
		Purchases: []model.Purchase{
			{ID: "p", Quantity: 1, UnitPrice: dec("2"), Shipping: dec("1"), Currency: "EUR"},
		},
	}
	conv := currency.NewConverter("USD", map[string]float64{"EUR": 1.5})

	if missing := res.ConvertTo(conv); missing != 1 {
		t.Fatalf("ConvertTo() missing = %d, want 1 (CHF)", missing)
	}
	if !res.Items[0].UnitPrice.Equal(dec("15")) || res.Items[0].Currency != "USD" {
		t.Fatalf("EUR item = %s %s, want 15 USD", res.Items[0].UnitPrice, res.Items[0].Currency)
	}
	if !res.Items[2].UnitPrice.Equal(dec("10")) || res.Items[2].Currency != "CHF" {
		t.Fatalf("CHF item changed: %s %s", res.Items[2].UnitPrice, res.Items[2].Currency)
	}
	if !res.Purchases[0].Total().Equal(dec("4.5")) {
		t.Fatalf("converted purchase total = %s, want 4.5", res.Purchases[0].Total())
	}
}

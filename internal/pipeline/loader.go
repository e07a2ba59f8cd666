package pipeline

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/partsbin/internal/currency"
	"github.com/theirongolddev/partsbin/internal/model"
)

// Repository is the read side of the store used by Load.
type Repository interface {
	ListItems(ctx context.Context) ([]model.InventoryItem, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	ListPurchases(ctx context.Context) ([]model.Purchase, error)
	Dismissed(ctx context.Context) (map[string]bool, error)
}

// LoadResult holds everything the dashboards aggregate over.
type LoadResult struct {
	Items     []model.InventoryItem
	Projects  []model.Project
	Purchases []model.Purchase
	Dismissed map[string]bool
}

// Load reads items, projects, purchases and dismissed recommendations
// concurrently.
func Load(ctx context.Context, repo Repository) (*LoadResult, error) {
	res := &LoadResult{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		items, err := repo.ListItems(ctx)
		if err != nil {
			return fmt.Errorf("loading items: %w", err)
		}
		res.Items = items
		return nil
	})
	g.Go(func() error {
		projects, err := repo.ListProjects(ctx)
		if err != nil {
			return fmt.Errorf("loading projects: %w", err)
		}
		res.Projects = projects
		return nil
	})
	g.Go(func() error {
		purchases, err := repo.ListPurchases(ctx)
		if err != nil {
			return fmt.Errorf("loading purchases: %w", err)
		}
		res.Purchases = purchases
		return nil
	})
	g.Go(func() error {
		dismissed, err := repo.Dismissed(ctx)
		if err != nil {
			return fmt.Errorf("loading dismissed recommendations: %w", err)
		}
		res.Dismissed = dismissed
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if res.Dismissed == nil {
		res.Dismissed = map[string]bool{}
	}
	return res, nil
}

// ConvertTo rewrites item and purchase prices into the
// converter's base currency. Amounts with no known rate are left unchanged
// and counted in the returned value.
func (r *LoadResult) ConvertTo(conv currency.Converter) int {
	missing := 0
	convert := func(amount decimal.Decimal, from string) (decimal.Decimal, bool) {
		out, err := conv.Convert(amount, from)
		if err != nil {
			return amount, false
		}
		return out, true
	}

	for i := range r.Items {
		it := &r.Items[i]
		if v, ok := convert(it.UnitPrice, it.Currency); ok {
			it.UnitPrice = v
			it.Currency = conv.Base
		} else {
			missing++
		}
	}
	for i := range r.Purchases {
		p := &r.Purchases[i]
		price, ok1 := convert(p.UnitPrice, p.Currency)
		ship, ok2 := convert(p.Shipping, p.Currency)
		if ok1 && ok2 {
			p.UnitPrice, p.Shipping, p.Currency = price, ship, conv.Base
		} else {
			missing++
		}
	}
	return missing
}

// Package recommend generates rule-based, personalized purchase and build
// recommendations and filters them for display.
package recommend

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/partsbin/internal/model"
	"github.com/theirongolddev/partsbin/internal/pipeline"
)

// Config tunes the rules. Zero fields take defaults.
type Config struct {
	AffinityDays      int     // spend window for category affinity
	BuildableCoverage float64 // minimum stock coverage for a build suggestion
	PriceDropMin      float64 // minimum fractional drop for a price alert
	BundleMinItems    int     // minimum shortage items per supplier bundle
}

func (c Config) withDefaults() Config {
	if c.AffinityDays <= 0 {
		c.AffinityDays = 90
	}
	if c.BuildableCoverage <= 0 {
		c.BuildableCoverage = 0.8
	}
	if c.PriceDropMin <= 0 {
		c.PriceDropMin = 0.10
	}
	if c.BundleMinItems < 2 {
		c.BundleMinItems = 2
	}
	return c
}

// Input is everything the engine looks at.
type Input struct {
	Items     []model.InventoryItem
	Projects  []model.Project
	Purchases []model.Purchase
	// Quotes maps SKU to the latest supplier quote, in the base currency.
	Quotes    map[string]decimal.Decimal
	Dismissed map[string]bool
}

// Engine generates recommendations.
type Engine struct {
	cfg Config
}

// NewEngine returns an engine with cfg, defaults filled in.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults()}
}

// shortage is the to-buy quantity of one part across stock and open projects.
type shortage struct {
	key        string
	item       *model.InventoryItem
	name       string
	category   string
	supplier   string
	unitPrice  decimal.Decimal
	lowStock   int // units to get back above the reorder point
	forProject int // units open projects still need
	projects   []string
	bestPrio   int // highest priority (lowest number) of a needing project
}

func (s *shortage) qty() int { return s.lowStock + s.forProject }

// Generate runs every rule, personalizes scores and drops dismissed ids.
// Results are sorted by score descending, then id.
func (e *Engine) Generate(in Input, now time.Time) []model.Recommendation {
	shortages := e.shortages(in)
	affinity := CategoryAffinity(in.Purchases, now.AddDate(0, 0, -e.cfg.AffinityDays), now)

	var recs []model.Recommendation
	recs = append(recs, e.restock(shortages)...)
	recs = append(recs, e.buildable(in)...)
	recs = append(recs, e.bundles(shortages)...)
	recs = append(recs, e.priceDrops(in)...)

	out := recs[:0]
	for _, r := range recs {
		if in.Dismissed[r.ID] {
			continue
		}
		r.Score = clamp01(r.Score * (0.6 + 0.4*affinity[strings.ToLower(r.Category)]))
		r.CreatedAt = now
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// CategoryAffinity returns each category's share of spend in [since, until),
// normalized so the top category is 1. Keys are lower-cased.
func CategoryAffinity(purchases []model.Purchase, since, until time.Time) map[string]float64 {
	totals := make(map[string]decimal.Decimal)
	top := decimal.Zero
	for _, p := range pipeline.FilterPurchasesByTime(purchases, since, until) {
		key := strings.ToLower(p.Category)
		if key == "" {
			continue
		}
		totals[key] = totals[key].Add(p.Total())
		if totals[key].GreaterThan(top) {
			top = totals[key]
		}
	}

	out := make(map[string]float64, len(totals))
	if !top.IsPositive() {
		return out
	}
	for k, v := range totals {
		out[k], _ = v.Div(top).Float64()
	}
	return out
}

func (e *Engine) shortages(in Input) []*shortage {
	byItem := make(map[string]*shortage)
	var order []string

	get := func(key string) *shortage {
		s, ok := byItem[key]
		if !ok {
			s = &shortage{key: key, bestPrio: 6}
			byItem[key] = s
			order = append(order, key)
		}
		return s
	}

	for i := range in.Items {
		it := &in.Items[i]
		if n := it.Shortfall(); n > 0 {
			s := get("item:" + it.ID)
			s.item = it
			s.lowStock = n
		}
	}

	itemByID := make(map[string]*model.InventoryItem, len(in.Items))
	for i := range in.Items {
		itemByID[in.Items[i].ID] = &in.Items[i]
	}

	for _, p := range in.Projects {
		if !p.IsOpen() {
			continue
		}
		d := pipeline.ProjectCost(p, in.Items)
		for _, line := range d.Lines {
			if line.ToBuy <= 0 {
				continue
			}
			c := line.Component
			var s *shortage
			if it, ok := itemByID[c.ItemID]; ok {
				s = get("item:" + it.ID)
				s.item = it
			} else {
				s = get(partKey(c))
				s.name, s.category, s.supplier = c.Name, c.Category, c.Supplier
				s.unitPrice = line.UnitPrice
			}
			s.forProject += line.ToBuy
			s.projects = append(s.projects, p.Name)
			s.bestPrio = min(s.bestPrio, p.EffectivePriority())
		}
	}

	out := make([]*shortage, 0, len(order))
	for _, key := range order {
		s := byItem[key]
		if s.item != nil {
			s.name, s.category, s.supplier = s.item.Name, s.item.Category, s.item.Supplier
			s.unitPrice = s.item.UnitPrice
		}
		out = append(out, s)
	}
	return out
}

func (e *Engine) restock(shortages []*shortage) []model.Recommendation {
	var recs []model.Recommendation
	for _, s := range shortages {
		severity := 0.2
		if s.item != nil && s.item.MinQuantity > 0 && s.lowStock > 0 {
			severity = 0.3 * (1 - float64(s.item.Quantity)/float64(s.item.MinQuantity))
			severity = max(severity, 0)
			if s.item.Quantity <= 0 {
				severity = 0.3
			}
		}
		weight := 0.0
		if len(s.projects) > 0 {
			weight = 0.3 * float64(6-s.bestPrio) / 5
		}

		var ids []string
		if s.item != nil {
			ids = []string{s.item.ID}
		}

		recs = append(recs, model.Recommendation{
			ID:            "restock:" + strings.TrimPrefix(s.key, "item:"),
			Type:          model.RecComponent,
			Title:         fmt.Sprintf("Buy %d x %s", s.qty(), s.name),
			Category:      s.category,
			Supplier:      s.supplier,
			EstimatedCost: s.unitPrice.Mul(decimal.NewFromInt(int64(s.qty()))),
			Score:         clamp01(0.4 + severity + weight),
			Reasoning:     restockReason(s),
			ItemIDs:       ids,
		})
	}
	return recs
}

func restockReason(s *shortage) string {
	var parts []string
	if s.lowStock > 0 && s.item != nil {
		parts = append(parts, fmt.Sprintf("stock is %d against a reorder point of %d", s.item.Quantity, s.item.MinQuantity))
	}
	if s.forProject > 0 {
		parts = append(parts, fmt.Sprintf("%s still need %d", strings.Join(uniq(s.projects), ", "), s.forProject))
	}
	r := strings.Join(parts, " and ")
	if r == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(r)
	return string(unicode.ToUpper(first)) + r[size:] + "."
}

func (e *Engine) buildable(in Input) []model.Recommendation {
	var recs []model.Recommendation
	for _, p := range in.Projects {
		if p.Status != model.StatusPlanning && p.Status != model.StatusPaused {
			continue
		}
		if len(p.Components) == 0 {
			continue
		}
		d := pipeline.ProjectCost(p, in.Items)
		if d.Coverage < e.cfg.BuildableCoverage {
			continue
		}

		category := ""
		if len(d.ByCategory) > 0 && d.ByCategory[0].Key != pipeline.NoneKey {
			category = d.ByCategory[0].Key
		}

		reason := fmt.Sprintf("%.0f%% of the parts are already in stock.", d.Coverage*100)
		if d.ToBuy.IsPositive() {
			reason = fmt.Sprintf("%.0f%% of the parts are already in stock; %s more completes it.",
				d.Coverage*100, d.ToBuy.StringFixed(2))
		}

		recs = append(recs, model.Recommendation{
			ID:            "build:" + p.ID,
			Type:          model.RecProject,
			Title:         "Build " + p.Name,
			Category:      category,
			EstimatedCost: d.ToBuy,
			Score:         clamp01(d.Coverage * float64(6-p.EffectivePriority()) / 5),
			Reasoning:     reason,
			ProjectID:     p.ID,
		})
	}
	return recs
}

func (e *Engine) bundles(shortages []*shortage) []model.Recommendation {
	bySupplier := make(map[string][]*shortage)
	var suppliers []string
	for _, s := range shortages {
		if s.supplier == "" {
			continue
		}
		key := strings.ToLower(s.supplier)
		if _, ok := bySupplier[key]; !ok {
			suppliers = append(suppliers, key)
		}
		bySupplier[key] = append(bySupplier[key], s)
	}

	var recs []model.Recommendation
	for _, key := range suppliers {
		group := bySupplier[key]
		if len(group) < e.cfg.BundleMinItems {
			continue
		}
		cost := decimal.Zero
		var ids []string
		cats := make(map[string]decimal.Decimal)
		for _, s := range group {
			line := s.unitPrice.Mul(decimal.NewFromInt(int64(s.qty())))
			cost = cost.Add(line)
			cats[s.category] = cats[s.category].Add(line)
			if s.item != nil {
				ids = append(ids, s.item.ID)
			}
		}

		recs = append(recs, model.Recommendation{
			ID:            "bundle:" + key,
			Type:          model.RecBundle,
			Title:         fmt.Sprintf("Order %d parts from %s together", len(group), group[0].supplier),
			Category:      topKey(cats),
			Supplier:      group[0].supplier,
			EstimatedCost: cost,
			Score:         clamp01(0.3 + 0.1*float64(len(group))),
			Reasoning:     fmt.Sprintf("%d needed parts ship from %s; one order saves separate shipping.", len(group), group[0].supplier),
			ItemIDs:       ids,
		})
	}
	return recs
}

func (e *Engine) priceDrops(in Input) []model.Recommendation {
	if len(in.Quotes) == 0 {
		return nil
	}

	needed := make(map[string]int)
	for _, p := range in.Projects {
		if !p.IsOpen() {
			continue
		}
		for _, c := range p.Components {
			if c.ItemID != "" {
				needed[c.ItemID] += c.Quantity
			}
		}
	}

	var recs []model.Recommendation
	for _, it := range in.Items {
		qty := needed[it.ID]
		if qty == 0 || it.SKU == "" || !it.UnitPrice.IsPositive() {
			continue
		}
		quote, ok := in.Quotes[it.SKU]
		if !ok || !quote.IsPositive() {
			continue
		}
		drop, _ := it.UnitPrice.Sub(quote).Div(it.UnitPrice).Float64()
		if drop < e.cfg.PriceDropMin {
			continue
		}

		recs = append(recs, model.Recommendation{
			ID:            "price:" + it.ID,
			Type:          model.RecComponent,
			Title:         fmt.Sprintf("%s is %.0f%% cheaper", it.Name, drop*100),
			Category:      it.Category,
			Supplier:      it.Supplier,
			EstimatedCost: quote.Mul(decimal.NewFromInt(int64(qty))),
			Score:         clamp01(0.5 + drop),
			Reasoning: fmt.Sprintf("Quoted at %s, %.0f%% below the stored %s; open projects use %d.",
				quote.StringFixed(2), drop*100, it.UnitPrice.StringFixed(2), qty),
			ItemIDs: []string{it.ID},
		})
	}
	return recs
}

// partKey identifies a free-standing BOM part by name and supplier.
func partKey(c model.ProjectComponent) string {
	key := "part:" + strings.ToLower(strings.Join(strings.Fields(c.Name), "-"))
	if c.Supplier != "" {
		key += "@" + strings.ToLower(c.Supplier)
	}
	return key
}

func topKey(m map[string]decimal.Decimal) string {
	best := ""
	bestVal := decimal.NewFromInt(-1)
	for k, v := range m {
		if v.GreaterThan(bestVal) || (v.Equal(bestVal) && k < best) {
			best, bestVal = k, v
		}
	}
	return best
}

func uniq(ss []string) []string {
	seen := make(map[string]bool, len(ss))
	var out []string
	for _, s := range ss {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

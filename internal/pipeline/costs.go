package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/partsbin/internal/model"
)

// BOMLine is the cost breakdown of one bill-of-materials line.
type BOMLine struct {
	Component model.ProjectComponent
	UnitPrice decimal.Decimal // component price, or the linked item's when unset
	Required  int
	InStock   int // units covered by inventory
	ToBuy     int
	LineCost  decimal.Decimal
	ToBuyCost decimal.Decimal
}

// ProjectCostDetail is the per-project cost tracker result.
type ProjectCostDetail struct {
	Project     model.Project
	Lines       []BOMLine
	Total       decimal.Decimal
	Covered     decimal.Decimal // value of the BOM already in stock
	ToBuy       decimal.Decimal
	Coverage    float64 // fraction of required units in stock
	ByCategory  []model.SpendStats
	BySupplier  []model.SpendStats
	Budget      decimal.Decimal
	Remaining   decimal.Decimal // budget minus total; zero without a budget
	Utilization float64         // total / budget; 0 without a budget
	OverBudget  bool
}

// ProjectCost computes the cost of a project's bill of materials against
// current stock. Stock is consumed across lines in BOM order, so two lines
// that reference the same item never both count the same units.
func ProjectCost(p model.Project, items []model.InventoryItem) ProjectCostDetail {
	byID := make(map[string]model.InventoryItem, len(items))
	available := make(map[string]int, len(items))
	for _, it := range items {
		byID[it.ID] = it
		if it.Quantity > 0 {
			available[it.ID] = it.Quantity
		}
	}

	d := ProjectCostDetail{
		Project: p,
		Total:   decimal.Zero,
		Covered: decimal.Zero,
		ToBuy:   decimal.Zero,
		Budget:  p.Budget,
	}

	catMap := make(map[string]*model.SpendStats)
	supMap := make(map[string]*model.SpendStats)
	var requiredUnits, stockUnits int

	for _, c := range p.Components {
		line := BOMLine{Component: c, Required: c.Quantity, UnitPrice: c.UnitPrice}
		it, linked := byID[c.ItemID]
		if linked && line.UnitPrice.IsZero() {
			line.UnitPrice = it.UnitPrice
		}

		if linked && c.Quantity > 0 {
			take := min(available[c.ItemID], c.Quantity)
			available[c.ItemID] -= take
			line.InStock = take
		}
		if line.Required > 0 {
			line.ToBuy = line.Required - line.InStock
		}

		line.LineCost = line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Required)))
		line.ToBuyCost = line.UnitPrice.Mul(decimal.NewFromInt(int64(line.ToBuy)))

		d.Total = d.Total.Add(line.LineCost)
		d.ToBuy = d.ToBuy.Add(line.ToBuyCost)
		d.Covered = d.Covered.Add(line.LineCost.Sub(line.ToBuyCost))
		requiredUnits += max(line.Required, 0)
		stockUnits += line.InStock

		category, supplier := c.Category, c.Supplier
		if linked {
			if category == "" {
				category = it.Category
			}
			if supplier == "" {
				supplier = it.Supplier
			}
		}
		addSpend(catMap, category, line)
		addSpend(supMap, supplier, line)

		d.Lines = append(d.Lines, line)
	}

	if requiredUnits > 0 {
		d.Coverage = float64(stockUnits) / float64(requiredUnits)
	} else {
		d.Coverage = 1
	}

	d.ByCategory = spendRows(catMap, d.Total)
	d.BySupplier = spendRows(supMap, d.Total)

	d.Remaining = decimal.Zero
	if d.Budget.IsPositive() {
		d.Remaining = d.Budget.Sub(d.Total)
		d.Utilization = share(d.Total, d.Budget)
		d.OverBudget = d.Total.GreaterThan(d.Budget)
	}
	return d
}

func addSpend(m map[string]*model.SpendStats, key string, line BOMLine) {
	key = keyOrNone(key)
	ss, ok := m[key]
	if !ok {
		ss = &model.SpendStats{Key: key, Total: decimal.Zero}
		m[key] = ss
	}
	ss.Purchases++
	ss.Units += line.Required
	ss.Total = ss.Total.Add(line.LineCost)
}

func spendRows(m map[string]*model.SpendStats, total decimal.Decimal) []model.SpendStats {
	rows := make([]model.SpendStats, 0, len(m))
	for _, ss := range m {
		ss.Share = share(ss.Total, total)
		rows = append(rows, *ss)
	}
	sortSpend(rows)
	return rows
}

// ProjectOverview computes planned, spent and to-buy cost for every project,
// sorted by planned cost descending, plus a totals row.
func ProjectOverview(projects []model.Project, items []model.InventoryItem, purchases []model.Purchase) ([]model.ProjectCostStats, model.ProjectCostStats) {
	spent := make(map[string]decimal.Decimal)
	for _, pu := range purchases {
		if pu.ProjectID == "" {
			continue
		}
		spent[pu.ProjectID] = spent[pu.ProjectID].Add(pu.Total())
	}

	totals := model.ProjectCostStats{
		Name:      "Total",
		Planned:   decimal.Zero,
		Spent:     decimal.Zero,
		ToBuy:     decimal.Zero,
		Budget:    decimal.Zero,
		Remaining: decimal.Zero,
	}

	rows := make([]model.ProjectCostStats, 0, len(projects))
	for _, p := range projects {
		d := ProjectCost(p, items)
		row := model.ProjectCostStats{
			ProjectID:   p.ID,
			Name:        p.Name,
			Status:      p.Status,
			Priority:    p.EffectivePriority(),
			Planned:     d.Total,
			Spent:       spent[p.ID],
			ToBuy:       d.ToBuy,
			Budget:      p.Budget,
			Remaining:   d.Remaining,
			Utilization: d.Utilization,
		}
		if p.Budget.IsPositive() {
			row.OverBudget = row.Planned.GreaterThan(p.Budget) || row.Spent.GreaterThan(p.Budget)
		}
		rows = append(rows, row)

		totals.Planned = totals.Planned.Add(row.Planned)
		totals.Spent = totals.Spent.Add(row.Spent)
		totals.ToBuy = totals.ToBuy.Add(row.ToBuy)
		totals.Budget = totals.Budget.Add(row.Budget)
		totals.Remaining = totals.Remaining.Add(row.Remaining)
		if row.OverBudget {
			totals.OverBudget = true
		}
	}
	totals.Utilization = share(totals.Planned, totals.Budget)

	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].Planned.Cmp(rows[j].Planned); c != 0 {
			return c > 0
		}
		return rows[i].Name < rows[j].Name
	})
	return rows, totals
}

// Analyze builds the spending analysis for [since, until). Budget
// efficiency is the share of spend tagged to projects that are open or
// completed; budget used is spend over the monthly budget prorated to the
// window length.
func Analyze(purchases []model.Purchase, projects []model.Project, monthlyBudget decimal.Decimal, since, until time.Time) model.SpendingAnalysis {
	filtered := FilterPurchasesByTime(purchases, since, until)

	a := model.SpendingAnalysis{
		Total:          decimal.Zero,
		ProratedBudget: decimal.Zero,
		ByCategory:     AggregateSpend(filtered, time.Time{}, time.Time{}, KeyCategory),
		BySupplier:     AggregateSpend(filtered, time.Time{}, time.Time{}, KeySupplier),
		ByProject:      AggregateSpend(filtered, time.Time{}, time.Time{}, KeyProject),
	}

	byID := make(map[string]model.Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}
	for i, row := range a.ByProject {
		if p, ok := byID[row.Key]; ok {
			a.ByProject[i].Key = p.Name
		}
	}

	productive := decimal.Zero
	for _, pu := range filtered {
		a.Purchases++
		a.Total = a.Total.Add(pu.Total())
		if p, ok := byID[pu.ProjectID]; ok && (p.IsOpen() || p.Status == model.StatusCompleted) {
			productive = productive.Add(pu.Total())
		}
	}
	a.BudgetEfficiency = share(productive, a.Total)

	if monthlyBudget.IsPositive() && !since.IsZero() && !until.IsZero() && until.After(since) {
		days := decimal.NewFromFloat(until.Sub(since).Hours() / 24)
		a.ProratedBudget = monthlyBudget.Mul(days).Div(decimal.NewFromFloat(averageMonthDays)).Round(2)
		a.BudgetUsed = share(a.Total, a.ProratedBudget)
	}
	return a
}

const averageMonthDays = 365.25 / 12

// ResolveProjectRefs rewrites purchase project references given by name to
// project ids. Unknown references are left as they are.
func ResolveProjectRefs(purchases []model.Purchase, projects []model.Project) {
	ids := make(map[string]bool, len(projects))
	byName := make(map[string]string, len(projects))
	for _, p := range projects {
		ids[p.ID] = true
		byName[strings.ToLower(p.Name)] = p.ID
	}
	for i, pu := range purchases {
		if pu.ProjectID == "" || ids[pu.ProjectID] {
			continue
		}
		if id, ok := byName[strings.ToLower(strings.TrimSpace(pu.ProjectID))]; ok {
			purchases[i].ProjectID = id
		}
	}
}

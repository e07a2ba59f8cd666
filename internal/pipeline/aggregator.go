// Package pipeline loads partsbin data and reduces it into cost, spend and
// inventory aggregates.
package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/partsbin/internal/model"
)

// NoneKey groups purchases or items that have no value for the grouping key.
const NoneKey = "(none)"

// SpendKey selects the grouping dimension for AggregateSpend.
type SpendKey string

const (
	KeyCategory SpendKey = "category"
	KeySupplier SpendKey = "supplier"
	KeyProject  SpendKey = "project"
)

// Summarize computes the top-level aggregate across inventory, projects and
// purchases within [since, until).
func Summarize(items []model.InventoryItem, projects []model.Project, purchases []model.Purchase, since, until time.Time) model.SummaryStats {
	var stats model.SummaryStats

	stats.InventoryValue = decimal.Zero
	for _, it := range items {
		stats.Items++
		stats.Units += it.Quantity
		stats.InventoryValue = stats.InventoryValue.Add(it.Value())
		if it.LowStock() {
			stats.LowStock++
		}
	}

	stats.PlannedCost = decimal.Zero
	for _, p := range projects {
		if !p.IsOpen() {
			continue
		}
		stats.OpenProjects++
		if p.Status == model.StatusActive {
			stats.ActiveProjects++
		}
		stats.PlannedCost = stats.PlannedCost.Add(p.Cost())
	}

	stats.Spend = decimal.Zero
	activeDays := make(map[string]struct{})
	for _, p := range FilterPurchasesByTime(purchases, since, until) {
		stats.Purchases++
		stats.Spend = stats.Spend.Add(p.Total())
		if !p.PurchasedAt.IsZero() {
			activeDays[p.PurchasedAt.Local().Format("2006-01-02")] = struct{}{}
		}
	}
	stats.SpendDays = len(activeDays)

	stats.SpendPerDay = decimal.Zero
	stats.SpendPerOrder = decimal.Zero
	if stats.SpendDays > 0 {
		stats.SpendPerDay = stats.Spend.Div(decimal.NewFromInt(int64(stats.SpendDays)))
	}
	if stats.Purchases > 0 {
		stats.SpendPerOrder = stats.Spend.Div(decimal.NewFromInt(int64(stats.Purchases)))
	}

	return stats
}

// AggregateCategories computes inventory value per category, sorted by value descending.
func AggregateCategories(items []model.InventoryItem) []model.CategoryStats {
	catMap := make(map[string]*model.CategoryStats)
	total := decimal.Zero

	for _, it := range items {
		key := keyOrNone(it.Category)
		cs, ok := catMap[key]
		if !ok {
			cs = &model.CategoryStats{Category: key, Value: decimal.Zero}
			catMap[key] = cs
		}
		cs.Items++
		cs.Units += it.Quantity
		cs.Value = cs.Value.Add(it.Value())
		if it.LowStock() {
			cs.LowStock++
		}
		total = total.Add(it.Value())
	}

	cats := make([]model.CategoryStats, 0, len(catMap))
	for _, cs := range catMap {
		cs.Share = share(cs.Value, total)
		cats = append(cats, *cs)
	}
	sort.Slice(cats, func(i, j int) bool {
		if c := cats[i].Value.Cmp(cats[j].Value); c != 0 {
			return c > 0
		}
		return cats[i].Category < cats[j].Category
	})
	return cats
}

// AggregateSuppliers computes inventory value per supplier, sorted by value descending.
func AggregateSuppliers(items []model.InventoryItem) []model.SupplierStats {
	supMap := make(map[string]*model.SupplierStats)
	total := decimal.Zero

	for _, it := range items {
		key := keyOrNone(it.Supplier)
		ss, ok := supMap[key]
		if !ok {
			ss = &model.SupplierStats{Supplier: key, Value: decimal.Zero}
			supMap[key] = ss
		}
		ss.Items++
		ss.Units += it.Quantity
		ss.Value = ss.Value.Add(it.Value())
		total = total.Add(it.Value())
	}

	sups := make([]model.SupplierStats, 0, len(supMap))
	for _, ss := range supMap {
		ss.Share = share(ss.Value, total)
		sups = append(sups, *ss)
	}
	sort.Slice(sups, func(i, j int) bool {
		if c := sups[i].Value.Cmp(sups[j].Value); c != 0 {
			return c > 0
		}
		return sups[i].Supplier < sups[j].Supplier
	})
	return sups
}

// AggregateSpend groups purchases in [since, until) by key, sorted by total descending.
func AggregateSpend(purchases []model.Purchase, since, until time.Time, key SpendKey) []model.SpendStats {
	filtered := FilterPurchasesByTime(purchases, since, until)

	spendMap := make(map[string]*model.SpendStats)
	total := decimal.Zero

	for _, p := range filtered {
		k := keyOrNone(spendKey(p, key))
		ss, ok := spendMap[k]
		if !ok {
			ss = &model.SpendStats{Key: k, Total: decimal.Zero}
			spendMap[k] = ss
		}
		ss.Purchases++
		ss.Units += p.Quantity
		ss.Total = ss.Total.Add(p.Total())
		total = total.Add(p.Total())
	}

	rows := make([]model.SpendStats, 0, len(spendMap))
	for _, ss := range spendMap {
		ss.Share = share(ss.Total, total)
		rows = append(rows, *ss)
	}
	sortSpend(rows)
	return rows
}

func spendKey(p model.Purchase, key SpendKey) string {
	switch key {
	case KeySupplier:
		return p.Supplier
	case KeyProject:
		return p.ProjectID
	default:
		return p.Category
	}
}

func sortSpend(rows []model.SpendStats) {
	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].Total.Cmp(rows[j].Total); c != 0 {
			return c > 0
		}
		return rows[i].Key < rows[j].Key
	})
}

// AggregateMonths computes per-month spend. Every month between since and
// until is present so charts show gaps as zeros. Most recent month first.
func AggregateMonths(purchases []model.Purchase, since, until time.Time) []model.MonthlyStats {
	filtered := FilterPurchasesByTime(purchases, since, until)

	monthMap := make(map[string]*model.MonthlyStats)
	for _, p := range filtered {
		if p.PurchasedAt.IsZero() {
			continue
		}
		start := monthStart(p.PurchasedAt)
		key := start.Format("2006-01")
		ms, ok := monthMap[key]
		if !ok {
			ms = &model.MonthlyStats{Month: start, Total: decimal.Zero}
			monthMap[key] = ms
		}
		ms.Purchases++
		ms.Units += p.Quantity
		ms.Total = ms.Total.Add(p.Total())
	}

	if !since.IsZero() && !until.IsZero() {
		month := monthStart(since)
		end := monthStart(until.Add(-time.Nanosecond))
		for !month.After(end) {
			key := month.Format("2006-01")
			if _, ok := monthMap[key]; !ok {
				monthMap[key] = &model.MonthlyStats{Month: month, Total: decimal.Zero}
			}
			month = month.AddDate(0, 1, 0)
		}
	}

	months := make([]model.MonthlyStats, 0, len(monthMap))
	for _, ms := range monthMap {
		months = append(months, *ms)
	}
	sort.Slice(months, func(i, j int) bool {
		return months[i].Month.After(months[j].Month)
	})
	return months
}

func monthStart(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.Local)
}

// ItemFilter selects inventory items. Empty fields match everything.
type ItemFilter struct {
	Category     string
	Supplier     string
	Query        string // matched against name, SKU, location and tags
	LowStockOnly bool
}

// FilterItems returns items matching f. Substring matches ignore case.
func FilterItems(items []model.InventoryItem, f ItemFilter) []model.InventoryItem {
	if f == (ItemFilter{}) {
		return items
	}
	var result []model.InventoryItem
	for _, it := range items {
		if f.LowStockOnly && !it.LowStock() {
			continue
		}
		if f.Category != "" && !containsIgnoreCase(it.Category, f.Category) {
			continue
		}
		if f.Supplier != "" && !containsIgnoreCase(it.Supplier, f.Supplier) {
			continue
		}
		if f.Query != "" && !itemMatches(it, f.Query) {
			continue
		}
		result = append(result, it)
	}
	return result
}

func itemMatches(it model.InventoryItem, q string) bool {
	if containsIgnoreCase(it.Name, q) || containsIgnoreCase(it.SKU, q) || containsIgnoreCase(it.Location, q) {
		return true
	}
	for _, tag := range it.Tags {
		if containsIgnoreCase(tag, q) {
			return true
		}
	}
	return false
}

// FilterProjectsByStatus returns projects in any of the given statuses.
// No statuses means all projects.
func FilterProjectsByStatus(projects []model.Project, statuses ...model.ProjectStatus) []model.Project {
	if len(statuses) == 0 {
		return projects
	}
	var result []model.Project
	for _, p := range projects {
		for _, st := range statuses {
			if p.Status == st {
				result = append(result, p)
				break
			}
		}
	}
	return result
}

// FilterPurchasesByTime returns purchases whose time falls within [since, until).
// A zero bound is open.
func FilterPurchasesByTime(purchases []model.Purchase, since, until time.Time) []model.Purchase {
	if since.IsZero() && until.IsZero() {
		return purchases
	}

	var result []model.Purchase
	for _, p := range purchases {
		if p.PurchasedAt.IsZero() {
			continue
		}
		if !since.IsZero() && p.PurchasedAt.Before(since) {
			continue
		}
		if !until.IsZero() && !p.PurchasedAt.Before(until) {
			continue
		}
		result = append(result, p)
	}
	return result
}

// FilterPurchasesByProject returns purchases tagged with the project id.
func FilterPurchasesByProject(purchases []model.Purchase, projectID string) []model.Purchase {
	if projectID == "" {
		return purchases
	}
	var result []model.Purchase
	for _, p := range purchases {
		if p.ProjectID == projectID {
			result = append(result, p)
		}
	}
	return result
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func keyOrNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return NoneKey
	}
	return s
}

// share returns part/total as a float fraction, 0 when total is zero.
func share(part, total decimal.Decimal) float64 {
	if !total.IsPositive() {
		return 0
	}
	f, _ := part.Div(total).Float64()
	return f
}

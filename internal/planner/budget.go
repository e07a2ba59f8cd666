// Package planner tracks the monthly budget and allocates it across open
// projects.
package planner

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/partsbin/internal/model"
	"github.com/theirongolddev/partsbin/internal/pipeline"
)

// DefaultThresholds are the used-fraction boundaries for notice, warning,
// critical and exceeded.
var DefaultThresholds = []float64{0.5, 0.75, 0.9, 1.0}

// Level maps a used fraction to an alert level. Thresholds are sorted
// ascending; the i-th threshold opens level i+1. Extra thresholds beyond
// exceeded are ignored.
func Level(used float64, thresholds []float64) model.AlertLevel {
	if len(thresholds) == 0 {
		thresholds = DefaultThresholds
	}
	t := append([]float64(nil), thresholds...)
	sort.Float64s(t)
	if len(t) > int(model.AlertExceeded) {
		t = t[:model.AlertExceeded]
	}
	for i := len(t) - 1; i >= 0; i-- {
		if used >= t[i] {
			return model.AlertLevel(i + 1)
		}
	}
	return model.AlertOK
}

// BudgetStatus computes month-to-date spend against monthlyBudget using
// the default thresholds.
func BudgetStatus(purchases []model.Purchase, monthlyBudget decimal.Decimal, now time.Time) model.BudgetStats {
	return BudgetStatusWithThresholds(purchases, monthlyBudget, now, DefaultThresholds)
}

// BudgetStatusWithThresholds is BudgetStatus with custom alert thresholds.
func BudgetStatusWithThresholds(purchases []model.Purchase, monthlyBudget decimal.Decimal, now time.Time, thresholds []float64) model.BudgetStats {
	now = now.Local()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
	next := start.AddDate(0, 1, 0)
	daysInMonth := int(next.Sub(start).Hours()/24 + 0.5)

	spend := decimal.Zero
	for _, p := range pipeline.FilterPurchasesByTime(purchases, start, next) {
		spend = spend.Add(p.Total())
	}

	elapsed := max(now.Day(), 1)
	stats := model.BudgetStats{
		MonthlyBudget: monthlyBudget,
		CurrentSpend:  spend,
		DaysElapsed:   elapsed,
		DaysRemaining: daysInMonth - now.Day(),
		DailyBurnRate: spend.Div(decimal.NewFromInt(int64(elapsed))),
		Remaining:     decimal.Zero,
	}
	stats.ProjectedMonthly = stats.DailyBurnRate.Mul(decimal.NewFromInt(int64(daysInMonth)))

	if monthlyBudget.IsPositive() {
		stats.Remaining = monthlyBudget.Sub(spend)
		stats.UsedFraction, _ = spend.Div(monthlyBudget).Float64()
		stats.Level = Level(stats.UsedFraction, thresholds)
	}
	return stats
}

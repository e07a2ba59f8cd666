package planner

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/partsbin/internal/model"
	"github.com/theirongolddev/partsbin/internal/pipeline"
)

// Options controls Plan.
type Options struct {
	MonthlyBudget decimal.Decimal
	Strategy      Strategy
	Thresholds    []float64
	// Amount overrides the money to allocate; zero means the month's
	// remaining budget.
	Amount decimal.Decimal
}

// PlanResult combines the month's budget status with an allocation of the
// remaining money across open projects.
type PlanResult struct {
	Budget    model.BudgetStats
	Available decimal.Decimal
	Needs     []Need
	Allocation
}

// Plan allocates the remaining monthly budget (or opts.Amount) across the
// to-buy cost of every open project.
func Plan(opts Options, projects []model.Project, items []model.InventoryItem, purchases []model.Purchase, now time.Time) PlanResult {
	status := BudgetStatusWithThresholds(purchases, opts.MonthlyBudget, now, opts.Thresholds)

	available := opts.Amount
	if !available.IsPositive() {
		available = decimal.Max(status.Remaining, decimal.Zero)
	}

	needs := ProjectNeeds(projects, items)
	return PlanResult{
		Budget:     status,
		Available:  available,
		Needs:      needs,
		Allocation: Allocate(available, needs, opts.Strategy),
	}
}

// ProjectNeeds returns the to-buy cost of each open project that still
// needs parts.
func ProjectNeeds(projects []model.Project, items []model.InventoryItem) []Need {
	var needs []Need
	for _, p := range projects {
		if !p.IsOpen() {
			continue
		}
		d := pipeline.ProjectCost(p, items)
		if !d.ToBuy.IsPositive() {
			continue
		}
		needs = append(needs, Need{
			ProjectID: p.ID,
			Name:      p.Name,
			Priority:  p.EffectivePriority(),
			Deadline:  p.Deadline,
			Amount:    d.ToBuy,
		})
	}
	return needs
}

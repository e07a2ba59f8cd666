package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/partsbin/internal/cli"
	"github.com/theirongolddev/partsbin/internal/pipeline"
	"github.com/theirongolddev/partsbin/internal/planner"
	"github.com/theirongolddev/partsbin/internal/store"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Inventory, spend and budget at a glance",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	return withStore(func(ctx context.Context, st *store.Store) error {
		result, err := loadData(ctx, st)
		if err != nil {
			return err
		}
		if len(result.Items) == 0 && len(result.Purchases) == 0 && len(result.Projects) == 0 {
			fmt.Println("\n  Nothing tracked yet.")
			fmt.Println("  Add parts with `partsbin inventory add` or drop order exports into", appConfig.OrdersDir())
			return nil
		}

		f := money()
		since, until := timeRange()
		stats := pipeline.Summarize(result.Items, result.Projects, result.Purchases, since, until)

		// Previous period for comparison
		prevSince := since.Add(-until.Sub(since))
		prev := pipeline.Summarize(result.Items, result.Projects, result.Purchases, prevSince, since)

		fmt.Println()
		fmt.Println(cli.RenderTitle(fmt.Sprintf("PARTSBIN  Last %dd", flagDays)))
		fmt.Println()

		spendDay := fmt.Sprintf("%s/day", f.Format(stats.SpendPerDay))
		if prev.SpendPerDay.IsPositive() {
			spendDay += fmt.Sprintf("  (%s vs prev %dd)", f.FormatDelta(stats.SpendPerDay.Sub(prev.SpendPerDay)), flagDays)
		}

		rows := [][]string{
			{"Items", cli.FormatNumber(int64(stats.Items))},
			{"Units on hand", cli.FormatNumber(int64(stats.Units))},
			{"Inventory value", f.Format(stats.InventoryValue)},
			{"Low stock", cli.FormatNumber(int64(stats.LowStock))},
			{"---"},
			{"Open projects", fmt.Sprintf("%d (%d active)", stats.OpenProjects, stats.ActiveProjects)},
			{"Planned cost", f.Format(stats.PlannedCost)},
			{"---"},
			{"Spend", f.Format(stats.Spend)},
			{"Purchases", cli.FormatNumber(int64(stats.Purchases))},
			{"Spend/day", spendDay},
			{"Spend/order", f.Format(stats.SpendPerOrder)},
		}

		if budget := monthlyBudget(); budget.IsPositive() {
			bs := planner.BudgetStatusWithThresholds(result.Purchases, budget, time.Now(), appConfig.Thresholds())
			rows = append(rows,
				[]string{"---"},
				[]string{"Month budget", fmt.Sprintf("%s of %s (%s)", f.Format(bs.CurrentSpend), f.Format(bs.MonthlyBudget), cli.FormatPercent(bs.UsedFraction))},
				[]string{"Budget status", cli.RenderLevel(bs.Level)},
			)
		}

		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Metric", "Value"},
			Rows:    rows,
		}))
		return nil
	})
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/partsbin/internal/cli"
	"github.com/theirongolddev/partsbin/internal/currency"
	"github.com/theirongolddev/partsbin/internal/model"
	"github.com/theirongolddev/partsbin/internal/pipeline"
	"github.com/theirongolddev/partsbin/internal/store"
)

var flagCostsBy string

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Spending breakdown by category, supplier and project",
	RunE:  runCosts,
}

func init() {
	costsCmd.Flags().StringVar(&flagCostsBy, "by", "", "Only one breakdown: category, supplier or project")
	rootCmd.AddCommand(costsCmd)
}

func runCosts(_ *cobra.Command, _ []string) error {
	switch flagCostsBy {
	case "", "category", "supplier", "project":
	default:
		return fmt.Errorf("--by %q: must be category, supplier or project", flagCostsBy)
	}

	return withStore(func(ctx context.Context, st *store.Store) error {
		result, err := loadData(ctx, st)
		if err != nil {
			return err
		}
		if len(result.Purchases) == 0 {
			fmt.Println("\n  No purchases recorded.")
			return nil
		}

		since, until := timeRange()
		an := pipeline.Analyze(result.Purchases, result.Projects, monthlyBudget(), since, until)
		if an.Purchases == 0 {
			fmt.Println("\n  No purchases in the selected time range.")
			return nil
		}
		f := money()

		// Previous period for comparison
		prev := pipeline.Analyze(result.Purchases, result.Projects, monthlyBudget(), since.Add(-until.Sub(since)), since)

		fmt.Println()
		fmt.Println(cli.RenderTitle(fmt.Sprintf("SPENDING  Last %dd", flagDays)))
		fmt.Println()

		total := f.Format(an.Total)
		if prev.Total.IsPositive() {
			total += fmt.Sprintf("  (%s vs prev %dd)", f.FormatDelta(an.Total.Sub(prev.Total)), flagDays)
		}
		rows := [][]string{
			{"Spent", total},
			{"Purchases", cli.FormatNumber(int64(an.Purchases))},
		}
		if an.ProratedBudget.IsPositive() {
			rows = append(rows,
				[]string{"Prorated budget", f.Format(an.ProratedBudget)},
				[]string{"Budget used", cli.FormatPercent(an.BudgetUsed)},
			)
		}
		rows = append(rows, []string{"Project efficiency", cli.FormatPercent(an.BudgetEfficiency)})
		fmt.Print(cli.RenderTable(cli.Table{Headers: []string{"Metric", "Value"}, Rows: rows}))

		for _, g := range []struct {
			key  string
			name string
			rows []model.SpendStats
		}{
			{"category", "Category", an.ByCategory},
			{"supplier", "Supplier", an.BySupplier},
			{"project", "Project", an.ByProject},
		} {
			if flagCostsBy != "" && flagCostsBy != g.key {
				continue
			}
			fmt.Println()
			fmt.Print(renderSpendTable(g.name, g.rows, f))
		}

		months := pipeline.AggregateMonths(result.Purchases, until.AddDate(0, -11, 0), until)
		if len(months) > 1 {
			values := make([]float64, len(months))
			for i, m := range months {
				values[len(months)-1-i] = m.Total.InexactFloat64()
			}
			fmt.Println()
			fmt.Printf("  Last %d months  %s  %s this month\n", len(months), cli.RenderSparkline(values),
				f.Format(months[0].Total))
		}
		return nil
	})
}

func renderSpendTable(name string, rows []model.SpendStats, f *currency.Formatter) string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			truncate(r.Key, 24),
			cli.FormatNumber(int64(r.Purchases)),
			cli.FormatNumber(int64(r.Units)),
			f.Format(r.Total),
			cli.FormatPercent(r.Share),
		})
	}
	return cli.RenderTable(cli.Table{
		Title:   "By " + name,
		Headers: []string{name, "Orders", "Units", "Spent", "Share"},
		Rows:    out,
	})
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/partsbin/internal/cli"
	"github.com/theirongolddev/partsbin/internal/config"
	"github.com/theirongolddev/partsbin/internal/planner"
	"github.com/theirongolddev/partsbin/internal/store"
)

var (
	flagPlanStrategy string
	flagPlanAmount   string
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "This month's spend against the monthly budget",
	RunE:  runBudgetStatus,
}

var budgetPlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "Split the remaining budget across open projects",
	RunE:  runBudgetPlan,
}

var budgetSetCmd = &cobra.Command{
	Use:   "set <amount|none>",
	Short: "Set the monthly parts budget",
	Args:  cobra.ExactArgs(1),
	RunE:  runBudgetSet,
}

func init() {
	budgetPlanCmd.Flags().StringVarP(&flagPlanStrategy, "strategy", "s", "", "proportional, priority or equal (default from config)")
	budgetPlanCmd.Flags().StringVar(&flagPlanAmount, "amount", "", "Allocate this amount instead of the remaining budget")

	budgetCmd.AddCommand(budgetPlanCmd, budgetSetCmd)
	rootCmd.AddCommand(budgetCmd)
}

func runBudgetStatus(_ *cobra.Command, _ []string) error {
	budget := monthlyBudget()
	return withStore(func(ctx context.Context, st *store.Store) error {
		result, err := loadData(ctx, st)
		if err != nil {
			return err
		}
		bs := planner.BudgetStatusWithThresholds(result.Purchases, budget, time.Now(), appConfig.Thresholds())
		f := money()

		fmt.Println()
		fmt.Println(cli.RenderTitle(fmt.Sprintf("BUDGET  %s", time.Now().Format("January 2006"))))
		fmt.Println()

		if !bs.HasBudget() {
			fmt.Printf("  Spent %s this month. No budget set; try `partsbin budget set 150`.\n", f.Format(bs.CurrentSpend))
			return nil
		}

		fmt.Printf("  %s  %s\n\n", cli.RenderProgressBar(bs.UsedFraction, 36, bs.Level), cli.RenderLevel(bs.Level))
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Metric", "Value"},
			Rows: [][]string{
				{"Budget", f.Format(bs.MonthlyBudget)},
				{"Spent", f.Format(bs.CurrentSpend)},
				{"Remaining", f.Format(bs.Remaining)},
				{"---"},
				{"Burn rate", f.Format(bs.DailyBurnRate) + "/day"},
				{"Projected", f.Format(bs.ProjectedMonthly)},
				{"Days", fmt.Sprintf("%d elapsed, %d left", bs.DaysElapsed, bs.DaysRemaining)},
			},
		}))
		if bs.ProjectedMonthly.GreaterThan(bs.MonthlyBudget) {
			fmt.Println()
			fmt.Printf("  At this rate the month ends %s over budget.\n", f.Format(bs.ProjectedMonthly.Sub(bs.MonthlyBudget)))
		}
		return nil
	})
}

func runBudgetPlan(_ *cobra.Command, _ []string) error {
	name := flagPlanStrategy
	if name == "" {
		name = appConfig.Budget.Strategy
	}
	strategy, err := planner.ParseStrategy(name)
	if err != nil {
		return err
	}
	f := money()
	opts := planner.Options{
		MonthlyBudget: monthlyBudget(),
		Strategy:      strategy,
		Thresholds:    appConfig.Thresholds(),
	}
	if flagPlanAmount != "" {
		if opts.Amount, err = f.Parse(flagPlanAmount); err != nil {
			return fmt.Errorf("--amount: %w", err)
		}
	}
	if !opts.MonthlyBudget.IsPositive() && !opts.Amount.IsPositive() {
		return errors.New("nothing to allocate: set a budget with `partsbin budget set` or pass --amount")
	}

	return withStore(func(ctx context.Context, st *store.Store) error {
		result, err := loadData(ctx, st)
		if err != nil {
			return err
		}
		plan := planner.Plan(opts, result.Projects, result.Items, result.Purchases, time.Now())

		fmt.Println()
		fmt.Println(cli.RenderTitle(fmt.Sprintf("ALLOCATION  %s", strings.ToUpper(string(plan.Strategy)))))
		fmt.Println()

		if len(plan.Items) == 0 {
			fmt.Println("  No open project needs parts.")
			return nil
		}

		rows := make([][]string, 0, len(plan.Items)+2)
		for _, it := range plan.Items {
			rows = append(rows, []string{
				truncate(it.Name, 24),
				fmt.Sprintf("P%d", it.Priority),
				f.Format(it.Requested),
				f.Format(it.Allocated),
				f.Format(it.Shortfall),
				cli.FormatPercent(it.Share),
			})
		}
		rows = append(rows, []string{"---"})
		rows = append(rows, []string{"Total", "", "", f.Format(plan.Allocated), "", ""})

		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Project", "Prio", "Needs", "Gets", "Short", "Share"},
			Rows:    rows,
		}))
		fmt.Println()
		fmt.Printf("  Available %s · unallocated %s · %d of %d projects fully funded\n",
			f.Format(plan.Available), f.Format(plan.Unallocated), plan.Funded, len(plan.Items))
		return nil
	})
}

func runBudgetSet(_ *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	f := money()
	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "none", "off", "0":
		cfg.Budget.Monthly = nil
	default:
		d, err := f.Parse(args[0])
		if err != nil {
			return err
		}
		if !d.IsPositive() {
			return fmt.Errorf("budget %s: must be positive", args[0])
		}
		v := d.InexactFloat64()
		cfg.Budget.Monthly = &v
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	if cfg.Budget.Monthly == nil {
		fmt.Println("  Monthly budget cleared")
	} else {
		fmt.Printf("  Monthly budget set to %s\n", f.Format(monthlyBudgetOf(cfg)))
	}
	return nil
}

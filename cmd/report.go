package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/theirongolddev/partsbin/internal/pipeline"
	"github.com/theirongolddev/partsbin/internal/planner"
	"github.com/theirongolddev/partsbin/internal/recommend"
	"github.com/theirongolddev/partsbin/internal/report"
	"github.com/theirongolddev/partsbin/internal/store"
)

var (
	flagReportRaw   bool
	flagReportStyle string
	flagReportOut   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Budget, spending, project and recommendation report",
	Long:  "Render a markdown report of the month's budget, spending in the --days window, open project costs and the top recommendations.",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&flagReportRaw, "raw", false, "Print markdown without terminal styling")
	reportCmd.Flags().StringVar(&flagReportStyle, "style", "", "Glamour style: dark, light, notty (default auto)")
	reportCmd.Flags().StringVarP(&flagReportOut, "out", "o", "", "Write the markdown to a file")
	rootCmd.AddCommand(reportCmd)
}

func runReport(_ *cobra.Command, _ []string) error {
	return withStore(func(ctx context.Context, st *store.Store) error {
		result, err := loadData(ctx, st)
		if err != nil {
			return err
		}

		now := time.Now()
		since, until := timeRange()
		budget := monthlyBudget()
		projects, totals := pipeline.ProjectOverview(
			pipeline.FilterProjectsByStatus(result.Projects, openStatuses()...), result.Items, result.Purchases)

		engine := recommend.NewEngine(recommend.Config{AffinityDays: appConfig.Recommend.AffinityDays})
		recs := engine.Generate(recommend.Input{
			Items:     result.Items,
			Projects:  result.Projects,
			Purchases: result.Purchases,
			Dismissed: result.Dismissed,
		}, now)
		filter := recommend.DefaultFilter()
		filter.MinScore = appConfig.Recommend.MinScore
		filter.Limit = 5

		md, err := report.Markdown(report.Data{
			GeneratedAt:     now,
			Days:            flagDays,
			Budget:          planner.BudgetStatusWithThresholds(result.Purchases, budget, now, appConfig.Thresholds()),
			Analysis:        pipeline.Analyze(result.Purchases, result.Projects, budget, since, until),
			Projects:        projects,
			Totals:          totals,
			Recommendations: recommend.Apply(recs, filter),
			Format:          money(),
		})
		if err != nil {
			return err
		}

		if flagReportOut != "" {
			if err := os.WriteFile(flagReportOut, []byte(md), 0o600); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
			fmt.Printf("  Report written to %s\n", flagReportOut)
			return nil
		}
		if flagReportRaw || !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Print(md)
			return nil
		}

		out, err := report.Terminal(md, terminalWidth(), flagReportStyle)
		if err != nil {
			return err
		}
		fmt.Print(strings.TrimLeft(out, "\n"))
		return nil
	})
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 100
	}
	return min(w, 120)
}

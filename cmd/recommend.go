package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/partsbin/internal/cli"
	"github.com/theirongolddev/partsbin/internal/model"
	"github.com/theirongolddev/partsbin/internal/pipeline"
	"github.com/theirongolddev/partsbin/internal/recommend"
	"github.com/theirongolddev/partsbin/internal/store"
)

var (
	flagRecTypes    []string
	flagRecCategory string
	flagRecSearch   string
	flagRecMinScore float64
	flagRecMaxCost  string
	flagRecSort     string
	flagRecAsc      bool
	flagRecDesc     bool
	flagRecLimit    int
	flagRecQuotes   bool
	flagRecVerbose  bool
)

var recommendCmd = &cobra.Command{
	Use:     "recommend",
	Aliases: []string{"rec"},
	Short:   "What to buy or build next",
	RunE:    runRecommend,
}

var recommendDismissCmd = &cobra.Command{
	Use:   "dismiss <id>",
	Short: "Hide a recommendation",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecommendDismiss,
}

var recommendRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Show a dismissed recommendation again",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecommendRestore,
}

func init() {
	recommendCmd.Flags().StringSliceVarP(&flagRecTypes, "type", "t", nil, "component, project or bundle (repeatable)")
	recommendCmd.Flags().StringVar(&flagRecCategory, "category", "", "Category substring")
	recommendCmd.Flags().StringVarP(&flagRecSearch, "search", "s", "", "Search title, reasoning and supplier")
	recommendCmd.Flags().Float64Var(&flagRecMinScore, "min-score", -1, "Minimum relevance, 0 to 1 (default from config)")
	recommendCmd.Flags().StringVar(&flagRecMaxCost, "max-cost", "", "Maximum estimated cost")
	recommendCmd.Flags().StringVar(&flagRecSort, "sort", "relevance", "relevance, cost, name or category")
	recommendCmd.Flags().BoolVar(&flagRecAsc, "asc", false, "Ascending order")
	recommendCmd.Flags().BoolVar(&flagRecDesc, "desc", false, "Descending order")
	recommendCmd.Flags().IntVarP(&flagRecLimit, "limit", "l", -1, "Maximum results, 0 for all (default from config)")
	recommendCmd.Flags().BoolVar(&flagRecQuotes, "quotes", false, "Fetch supplier quotes for price-drop suggestions")
	recommendCmd.Flags().BoolVarP(&flagRecVerbose, "verbose", "v", false, "Show the reasoning for each suggestion")

	recommendCmd.AddCommand(recommendDismissCmd, recommendRestoreCmd)
	rootCmd.AddCommand(recommendCmd)
}

func recommendFilter() (recommend.Filter, error) {
	f := recommend.DefaultFilter()
	for _, t := range flagRecTypes {
		rt, err := model.ParseRecommendationType(t)
		if err != nil {
			return f, err
		}
		f.Types = append(f.Types, rt)
	}
	sort, err := recommend.ParseSortField(flagRecSort)
	if err != nil {
		return f, err
	}
	f.Sort = sort
	switch {
	case flagRecAsc && flagRecDesc:
		return f, fmt.Errorf("--asc and --desc are mutually exclusive")
	case flagRecAsc:
		f.Desc = false
	case flagRecDesc:
		f.Desc = true
	default:
		// Alphabetical reads top-down, scores and costs biggest first.
		f.Desc = sort != recommend.SortName && sort != recommend.SortCategory
	}
	f.Category = flagRecCategory
	f.Query = flagRecSearch

	f.MinScore = appConfig.Recommend.MinScore
	if flagRecMinScore >= 0 {
		f.MinScore = flagRecMinScore
	}
	f.Limit = appConfig.Recommend.Limit
	if flagRecLimit >= 0 {
		f.Limit = flagRecLimit
	}
	if flagRecMaxCost != "" {
		if f.MaxCost, err = money().Parse(flagRecMaxCost); err != nil {
			return f, fmt.Errorf("--max-cost: %w", err)
		}
	}
	return f, nil
}

func runRecommend(_ *cobra.Command, _ []string) error {
	filter, err := recommendFilter()
	if err != nil {
		return err
	}

	return withStore(func(ctx context.Context, st *store.Store) error {
		result, err := loadData(ctx, st)
		if err != nil {
			return err
		}

		quotes := fetchQuotes(ctx, result)
		engine := recommend.NewEngine(recommend.Config{AffinityDays: appConfig.Recommend.AffinityDays})
		all := engine.Generate(recommend.Input{
			Items:     result.Items,
			Projects:  result.Projects,
			Purchases: result.Purchases,
			Quotes:    quotes,
			Dismissed: result.Dismissed,
		}, time.Now())
		recs := recommend.Apply(all, filter)

		if len(recs) == 0 {
			if len(all) == 0 {
				fmt.Println("\n  Nothing to suggest right now.")
			} else {
				fmt.Printf("\n  %d suggestions, none match the filters.\n", len(all))
			}
			return nil
		}

		f := money()
		fmt.Println()
		fmt.Println(cli.RenderTitle(fmt.Sprintf("RECOMMENDATIONS  %d of %d", len(recs), len(all))))
		fmt.Println()

		rows := make([][]string, 0, len(recs))
		for _, r := range recs {
			rows = append(rows, []string{
				cli.FormatScore(r.Score),
				string(r.Type),
				truncate(r.Title, 36),
				truncate(r.Category, 14),
				f.Format(r.EstimatedCost),
				r.ID,
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Score", "Type", "Suggestion", "Category", "Cost", "ID"},
			Rows:    rows,
			Left:    []int{1, 2, 3, 5},
		}))

		if flagRecVerbose {
			fmt.Println()
			for _, r := range recs {
				fmt.Printf("  %s\n    %s\n", r.Title, cli.RenderMuted(r.Reasoning))
			}
		}
		fmt.Println()
		fmt.Println(cli.RenderMuted("  Hide one with `partsbin recommend dismiss <id>`."))
		return nil
	})
}

// fetchQuotes returns supplier prices when --quotes is set and a price feed
// is configured. Failures only cost the price-drop suggestions.
func fetchQuotes(ctx context.Context, result *pipeline.LoadResult) map[string]decimal.Decimal {
	if !flagRecQuotes {
		return nil
	}
	client := quoteClient()
	if client == nil {
		fmt.Fprintln(os.Stderr, "  No price feed configured (price_feed.base_url); skipping quotes")
		return nil
	}
	skus := make([]string, 0, len(result.Items))
	for _, it := range result.Items {
		if it.SKU != "" {
			skus = append(skus, it.SKU)
		}
	}
	set := client.FetchAll(ctx, skus)
	if set.Error != nil && !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Quotes incomplete: %v\n", set.Error)
	}
	return set.Prices(converter())
}

func runRecommendDismiss(_ *cobra.Command, args []string) error {
	id := strings.TrimSpace(args[0])
	return withStore(func(ctx context.Context, st *store.Store) error {
		if err := st.Dismiss(ctx, id, time.Now()); err != nil {
			return err
		}
		fmt.Printf("  Dismissed %s\n", id)
		return nil
	})
}

func runRecommendRestore(_ *cobra.Command, args []string) error {
	id := strings.TrimSpace(args[0])
	return withStore(func(ctx context.Context, st *store.Store) error {
		if err := st.Undismiss(ctx, id); err != nil {
			return err
		}
		fmt.Printf("  Restored %s\n", id)
		return nil
	})
}

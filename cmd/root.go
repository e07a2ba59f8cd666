// Package cmd implements the partsbin CLI commands.
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
	"github.com/theirongolddev/partsbin/internal/config"
	"github.com/theirongolddev/partsbin/internal/currency"
	"github.com/theirongolddev/partsbin/internal/logging"
	"github.com/theirongolddev/partsbin/internal/pipeline"
	"github.com/theirongolddev/partsbin/internal/pricefeed"
	"github.com/theirongolddev/partsbin/internal/store"
)

var (
	flagDays     int
	flagCurrency string
	flagDBPath   string
	flagNoImport bool
	flagQuiet    bool
)

// appConfig is loaded once per invocation by the root pre-run hook.
var appConfig = config.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:   "partsbin",
	Short: "Parts inventory, project costs and budget for makers",
	Long:  "Track your electronics parts, what your projects cost, whether you are inside your monthly budget, and what to buy next.",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		config.LoadDotEnv()
		logging.Setup(logging.DefaultConfig())

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if flagCurrency != "" {
			cfg.Currency.Code = strings.ToUpper(flagCurrency)
		}
		if flagDBPath != "" {
			cfg.Store.Path = flagDBPath
		}
		if !cmd.Flags().Changed("days") {
			flagDays = cfg.General.DefaultDays
		}
		if flagDays < 1 {
			return fmt.Errorf("--days %d: must be at least 1", flagDays)
		}
		appConfig = cfg
		return nil
	},
	RunE:         runSummary,
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&flagDays, "days", "n", 30, "Time window in days")
	rootCmd.PersistentFlags().StringVarP(&flagCurrency, "currency", "c", "", "Display currency (ISO 4217), overrides config")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "SQLite database path")
	rootCmd.PersistentFlags().BoolVar(&flagNoImport, "no-import", false, "Skip scanning the orders directory")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

func openStore(ctx context.Context) (*store.Store, error) {
	st, err := store.Open(ctx, store.Options{
		Driver: appConfig.Store.Driver,
		Path:   appConfig.DBPath(),
		DSN:    appConfig.Store.DSN,
	})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return st, nil
}

// withStore opens the store for the duration of fn.
func withStore(fn func(ctx context.Context, st *store.Store) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	return fn(ctx, st)
}

// loadData is the shared data loading path used by the reporting commands:
// import new order files, read the store, convert into the display currency.
func loadData(ctx context.Context, st *store.Store) (*pipeline.LoadResult, error) {
	if !flagNoImport {
		if err := importOrders(ctx, st); err != nil {
			return nil, err
		}
	}

	result, err := pipeline.Load(ctx, st)
	if err != nil {
		return nil, err
	}
	if n := result.ConvertTo(converter()); n > 0 && !flagQuiet {
		fmt.Fprintf(os.Stderr, "  %d amounts had no exchange rate to %s and were left unconverted\n", n, appConfig.Currency.Code)
	}
	return result, nil
}

func importOrders(ctx context.Context, st *store.Store) error {
	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		if current%25 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  Importing [%d/%d]", current, total)
		}
	}

	res, err := pipeline.ImportOrders(ctx, appConfig.OrdersDir(), st, progressFn)
	if err != nil {
		return fmt.Errorf("importing orders: %w", err)
	}
	if flagQuiet || res.TotalFiles == 0 {
		return nil
	}
	if res.Reparsed == 0 {
		fmt.Fprintf(os.Stderr, "\r  %s order files up to date    \n", cli.FormatNumber(int64(res.TotalFiles)))
	} else {
		fmt.Fprintf(os.Stderr, "\r  %d cached + %d imported (%s purchases from %d suppliers)    \n",
			res.Cached, res.Reparsed, cli.FormatNumber(int64(res.Purchases)), res.Suppliers)
	}
	if res.FileErrors > 0 || res.ParseErrors > 0 {
		fmt.Fprintf(os.Stderr, "  %d files unreadable, %d lines skipped\n", res.FileErrors, res.ParseErrors)
	}
	return nil
}

func money() *currency.Formatter {
	return currency.MustNew(appConfig.Currency.Code)
}

func converter() currency.Converter {
	return currency.NewConverter(money().Code(), appConfig.Currency.Rates)
}

// monthlyBudget returns the configured budget, zero when unset.
func monthlyBudget() decimal.Decimal {
	return monthlyBudgetOf(appConfig)
}

func monthlyBudgetOf(cfg config.Config) decimal.Decimal {
	if cfg.Budget.Monthly == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*cfg.Budget.Monthly)
}

// quoteClient returns the configured price feed, or nil.
func quoteClient() *pricefeed.Client {
	return pricefeed.NewClient(appConfig.PriceFeed.BaseURL, appConfig.PriceFeed.APIKey)
}

// timeRange returns the --days window ending now.
func timeRange() (time.Time, time.Time) {
	now := time.Now()
	return now.AddDate(0, 0, -flagDays), now
}

func truncate(s string, n int) string {
	return cli.Truncate(s, n)
}

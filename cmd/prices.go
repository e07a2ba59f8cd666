package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/partsbin/internal/cli"
	"github.com/theirongolddev/partsbin/internal/model"
	"github.com/theirongolddev/partsbin/internal/pricefeed"
	"github.com/theirongolddev/partsbin/internal/store"
)

var flagPricesApply bool

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Compare stocked parts against current supplier quotes",
	RunE:  runPrices,
}

func init() {
	pricesCmd.Flags().BoolVar(&flagPricesApply, "apply", false, "Update unit prices to the quoted price")
	rootCmd.AddCommand(pricesCmd)
}

func runPrices(_ *cobra.Command, _ []string) error {
	client := quoteClient()
	if client == nil {
		fmt.Println()
		fmt.Println("  No price feed configured.")
		fmt.Println()
		fmt.Println("  Set one in config.toml:")
		fmt.Println("    [price_feed]")
		fmt.Println(`    base_url = "https://quotes.example.com"`)
		fmt.Println()
		fmt.Println("  or for one run: PARTSBIN_PRICEFEED_URL=... PARTSBIN_PRICEFEED_KEY=... partsbin prices")
		fmt.Println()
		return nil
	}

	return withStore(func(ctx context.Context, st *store.Store) error {
		items, err := st.ListItems(ctx)
		if err != nil {
			return err
		}
		var skus []string
		for _, it := range items {
			if it.SKU != "" {
				skus = append(skus, it.SKU)
			}
		}
		if len(skus) == 0 {
			fmt.Println("\n  No parts with a SKU to quote.")
			return nil
		}

		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Fetching quotes for %d SKUs...\n", len(skus))
		}
		set := client.FetchAll(ctx, skus)
		if set.Error != nil {
			switch {
			case errors.Is(set.Error, pricefeed.ErrUnauthorized):
				return errors.New("price feed rejected the API key; check price_feed.api_key")
			case errors.Is(set.Error, pricefeed.ErrRateLimited):
				if len(set.Quotes) == 0 {
					return errors.New("rate limited by the price feed; try again in a minute")
				}
			case len(set.Quotes) == 0:
				return fmt.Errorf("fetch failed: %w", set.Error)
			}
			fmt.Fprintf(os.Stderr, "  Partial results: %v\n", set.Error)
		}

		f := money()
		conv := converter()
		fmt.Println()
		fmt.Println(cli.RenderTitle(fmt.Sprintf("SUPPLIER QUOTES  %d of %d", len(set.Quotes), len(skus))))
		fmt.Println()

		var rows [][]string
		updated := 0
		for _, it := range items {
			q, ok := set.Quotes[it.SKU]
			if it.SKU == "" || !ok {
				continue
			}
			ours := conv.ConvertOr(it.UnitPrice, it.Currency)
			theirs := conv.ConvertOr(q.Price, quoteCurrency(q, f.Code()))
			change := "-"
			if ours.IsPositive() {
				pct := theirs.Sub(ours).Div(ours).InexactFloat64()
				change = fmt.Sprintf("%+.1f%%", pct*100)
				if pct <= -0.1 {
					change = cli.LevelStyle(model.AlertOK).Render(change)
				} else if pct >= 0.1 {
					change = cli.LevelStyle(model.AlertWarning).Render(change)
				}
			}
			rows = append(rows, []string{
				truncate(it.Name, 28),
				truncate(it.SKU, 16),
				f.Format(ours),
				f.Format(theirs),
				change,
				cli.FormatNumber(int64(q.InStock)),
			})

			if flagPricesApply && !q.Price.Equal(it.UnitPrice) && samePriceCurrency(it, q, f.Code()) {
				if err := st.SetUnitPrice(ctx, it.ID, q.Price); err != nil {
					return err
				}
				updated++
			}
		}
		if len(rows) == 0 {
			fmt.Println("  The feed had no quotes for your SKUs.")
			return nil
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Part", "SKU", "Ours", "Quote", "Change", "Stock"},
			Rows:    rows,
			Left:    []int{1},
		}))
		if flagPricesApply {
			fmt.Printf("\n  Updated %d unit prices\n", updated)
		}
		return nil
	})
}

func quoteCurrency(q pricefeed.Quote, base string) string {
	if q.Currency == "" {
		return base
	}
	return q.Currency
}

// samePriceCurrency reports whether a quote can overwrite the item price
// without a conversion.
func samePriceCurrency(it model.InventoryItem, q pricefeed.Quote, base string) bool {
	itemCur := it.Currency
	if itemCur == "" {
		itemCur = base
	}
	return strings.EqualFold(itemCur, quoteCurrency(q, base))
}

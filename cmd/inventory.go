package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/partsbin/internal/cli"
	"github.com/theirongolddev/partsbin/internal/model"
	"github.com/theirongolddev/partsbin/internal/pipeline"
	"github.com/theirongolddev/partsbin/internal/store"
)

var (
	flagInvCategory string
	flagInvSupplier string
	flagInvSearch   string
	flagInvLow      bool

	flagItemSKU      string
	flagItemCategory string
	flagItemSupplier string
	flagItemQty      int
	flagItemMin      int
	flagItemPrice    string
	flagItemCurrency string
	flagItemLocation string
	flagItemTags     []string
)

var inventoryCmd = &cobra.Command{
	Use:     "inventory",
	Aliases: []string{"inv"},
	Short:   "List stocked parts",
	RunE:    runInventory,
}

var inventoryAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a part to the inventory",
	Args:  cobra.ExactArgs(1),
	RunE:  runInventoryAdd,
}

var inventorySetQtyCmd = &cobra.Command{
	Use:   "set-qty <id|sku> <quantity>",
	Short: "Set the on-hand quantity of a part",
	Args:  cobra.ExactArgs(2),
	RunE:  runInventorySetQty,
}

var inventoryRmCmd = &cobra.Command{
	Use:   "rm <id|sku>",
	Short: "Remove a part",
	Args:  cobra.ExactArgs(1),
	RunE:  runInventoryRm,
}

func init() {
	inventoryCmd.Flags().StringVar(&flagInvCategory, "category", "", "Filter by category (substring)")
	inventoryCmd.Flags().StringVar(&flagInvSupplier, "supplier", "", "Filter by supplier (substring)")
	inventoryCmd.Flags().StringVarP(&flagInvSearch, "search", "s", "", "Search name, SKU, location and tags")
	inventoryCmd.Flags().BoolVar(&flagInvLow, "low", false, "Only parts at or below their reorder point")

	inventoryAddCmd.Flags().StringVar(&flagItemSKU, "sku", "", "Supplier part number")
	inventoryAddCmd.Flags().StringVar(&flagItemCategory, "category", "", "Category, e.g. resistors")
	inventoryAddCmd.Flags().StringVar(&flagItemSupplier, "supplier", "", "Supplier name")
	inventoryAddCmd.Flags().IntVar(&flagItemQty, "qty", 0, "Quantity on hand")
	inventoryAddCmd.Flags().IntVar(&flagItemMin, "min", 0, "Reorder point (0 disables low-stock tracking)")
	inventoryAddCmd.Flags().StringVar(&flagItemPrice, "price", "0", "Unit price")
	inventoryAddCmd.Flags().StringVar(&flagItemCurrency, "price-currency", "", "Currency of --price (default: display currency)")
	inventoryAddCmd.Flags().StringVar(&flagItemLocation, "location", "", "Storage location, e.g. drawer A3")
	inventoryAddCmd.Flags().StringSliceVar(&flagItemTags, "tag", nil, "Tag (repeatable)")

	inventoryCmd.AddCommand(inventoryAddCmd, inventorySetQtyCmd, inventoryRmCmd)
	rootCmd.AddCommand(inventoryCmd)
}

func runInventory(_ *cobra.Command, _ []string) error {
	return withStore(func(ctx context.Context, st *store.Store) error {
		result, err := loadData(ctx, st)
		if err != nil {
			return err
		}
		if len(result.Items) == 0 {
			fmt.Println("\n  No parts yet. Add one with `partsbin inventory add`.")
			return nil
		}

		items := pipeline.FilterItems(result.Items, pipeline.ItemFilter{
			Category:     flagInvCategory,
			Supplier:     flagInvSupplier,
			Query:        flagInvSearch,
			LowStockOnly: flagInvLow,
		})
		if len(items) == 0 {
			fmt.Println("\n  No parts match.")
			return nil
		}

		f := money()
		fmt.Println()
		fmt.Println(cli.RenderTitle(fmt.Sprintf("INVENTORY  %d of %d parts", len(items), len(result.Items))))
		fmt.Println()

		rows := make([][]string, 0, len(items)+2)
		var units int
		total := decimal.Zero
		for _, it := range items {
			units += it.Quantity
			total = total.Add(it.Value())
			qty := strconv.Itoa(it.Quantity)
			if it.LowStock() {
				qty = cli.LevelStyle(model.AlertWarning).Render(qty + "!")
			}
			rows = append(rows, []string{
				shortID(it.ID),
				truncate(it.Name, 28),
				truncate(it.SKU, 16),
				truncate(it.Category, 14),
				truncate(it.Supplier, 12),
				qty,
				f.Format(it.UnitPrice),
				f.Format(it.Value()),
			})
		}
		rows = append(rows, []string{"---"})
		rows = append(rows, []string{"", "Total", "", "", "", cli.FormatNumber(int64(units)), "", f.Format(total)})

		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"ID", "Name", "SKU", "Category", "Supplier", "Qty", "Unit", "Value"},
			Rows:    rows,
			Left:    []int{1, 2, 3, 4},
		}))
		return nil
	})
}

func runInventoryAdd(_ *cobra.Command, args []string) error {
	f := money()
	price, err := f.Parse(flagItemPrice)
	if err != nil {
		return fmt.Errorf("--price: %w", err)
	}
	if price.IsNegative() || flagItemQty < 0 || flagItemMin < 0 {
		return fmt.Errorf("price and quantities must not be negative: %w", model.ErrInvalid)
	}
	cur := strings.ToUpper(flagItemCurrency)
	if cur == "" {
		cur = f.Code()
	}

	return withStore(func(ctx context.Context, st *store.Store) error {
		it := model.InventoryItem{
			Name:        strings.TrimSpace(args[0]),
			SKU:         flagItemSKU,
			Category:    flagItemCategory,
			Supplier:    flagItemSupplier,
			Quantity:    flagItemQty,
			MinQuantity: flagItemMin,
			UnitPrice:   price,
			Currency:    cur,
			Location:    flagItemLocation,
			Tags:        flagItemTags,
		}
		if it.SKU != "" && it.Supplier != "" {
			it.ID = store.ItemIDForSKU(it.Supplier, it.SKU)
		}
		saved, err := st.SaveItem(ctx, it)
		if err != nil {
			return err
		}
		fmt.Printf("  Added %s (%s)\n", saved.Name, shortID(saved.ID))
		return nil
	})
}

func runInventorySetQty(_ *cobra.Command, args []string) error {
	qty, err := strconv.Atoi(args[1])
	if err != nil || qty < 0 {
		return fmt.Errorf("quantity %q: must be a non-negative number", args[1])
	}
	return withStore(func(ctx context.Context, st *store.Store) error {
		it, err := findItem(ctx, st, args[0])
		if err != nil {
			return err
		}
		if err := st.SetQuantity(ctx, it.ID, qty); err != nil {
			return err
		}
		fmt.Printf("  %s: %d → %d\n", it.Name, it.Quantity, qty)
		return nil
	})
}

func runInventoryRm(_ *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, st *store.Store) error {
		it, err := findItem(ctx, st, args[0])
		if err != nil {
			return err
		}
		if err := st.DeleteItem(ctx, it.ID); err != nil {
			return err
		}
		fmt.Printf("  Removed %s\n", it.Name)
		return nil
	})
}

// findItem resolves ref as a full id, a unique id prefix or a SKU.
func findItem(ctx context.Context, st *store.Store, ref string) (model.InventoryItem, error) {
	items, err := st.ListItems(ctx)
	if err != nil {
		return model.InventoryItem{}, err
	}
	return matchItem(items, ref)
}

func matchItem(items []model.InventoryItem, ref string) (model.InventoryItem, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.InventoryItem{}, errors.New("empty item reference")
	}
	var matches []model.InventoryItem
	for _, it := range items {
		switch {
		case it.ID == ref:
			return it, nil
		case strings.HasPrefix(it.ID, ref), strings.EqualFold(it.SKU, ref):
			matches = append(matches, it)
		}
	}
	switch len(matches) {
	case 0:
		return model.InventoryItem{}, fmt.Errorf("item %q: %w", ref, store.ErrNotFound)
	case 1:
		return matches[0], nil
	}
	return model.InventoryItem{}, fmt.Errorf("item %q is ambiguous (%d matches)", ref, len(matches))
}

// shortID is the id prefix shown in tables; commands accept it back.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

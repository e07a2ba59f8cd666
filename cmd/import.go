package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/partsbin/internal/cli"
	"github.com/theirongolddev/partsbin/internal/pipeline"
	"github.com/theirongolddev/partsbin/internal/store"
)

var flagImportDir string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import supplier order files (CSV, JSON, YAML)",
	Long:  "Scan the orders directory for new or changed order exports, record their purchase lines and restock matching parts. Unchanged files are skipped; deleted files drop their purchases.",
	RunE:  runImport,
}

func init() {
	importCmd.Flags().StringVar(&flagImportDir, "dir", "", "Orders directory (default from config)")
	rootCmd.AddCommand(importCmd)
}

func runImport(_ *cobra.Command, _ []string) error {
	dir := flagImportDir
	if dir == "" {
		dir = appConfig.OrdersDir()
	}

	return withStore(func(ctx context.Context, st *store.Store) error {
		progressFn := func(current, total int) {
			if !flagQuiet {
				fmt.Printf("\r  Importing [%d/%d]", current, total)
			}
		}
		res, err := pipeline.ImportOrders(ctx, dir, st, progressFn)
		if err != nil {
			return err
		}
		if res.TotalFiles == 0 {
			fmt.Printf("  No order files in %s\n", dir)
			return nil
		}

		fmt.Print("\r")
		fmt.Println(cli.RenderTitle("IMPORT"))
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Metric", "Value"},
			Rows: [][]string{
				{"Directory", dir},
				{"Order files", cli.FormatNumber(int64(res.TotalFiles))},
				{"Suppliers", cli.FormatNumber(int64(res.Suppliers))},
				{"Unchanged", cli.FormatNumber(int64(res.Cached))},
				{"Imported", cli.FormatNumber(int64(res.Reparsed))},
				{"Removed", cli.FormatNumber(int64(res.Removed))},
				{"---"},
				{"Purchase lines", cli.FormatNumber(int64(res.Purchases))},
				{"Skipped lines", cli.FormatNumber(int64(res.ParseErrors))},
				{"Unreadable files", cli.FormatNumber(int64(res.FileErrors))},
			},
			Left: []int{1},
		}))
		return nil
	})
}

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/partsbin/internal/config"
	"github.com/theirongolddev/partsbin/internal/tui"
	"github.com/theirongolddev/partsbin/internal/tui/theme"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Start from the file, not the flag-adjusted appConfig, so one-off
	// overrides are not persisted.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	items := 0
	if st, err := openStore(context.Background()); err == nil {
		if list, err := st.ListItems(context.Background()); err == nil {
			items = len(list)
		}
		_ = st.Close()
	}

	theme.SetActive(cfg.Appearance.Theme)
	updated, err := tui.RunSetup(cfg, items)
	if errors.Is(err, huh.ErrUserAborted) {
		fmt.Println("  Setup cancelled, nothing saved.")
		return nil
	}
	if err != nil {
		return err
	}

	if err := config.Save(updated); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `partsbin setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

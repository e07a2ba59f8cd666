package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/partsbin/internal/tui"
	"github.com/theirongolddev/partsbin/internal/tui/theme"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	theme.SetActive(appConfig.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	st, err := openStore(context.Background())
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	opts := tui.Options{Repo: st}
	if !flagNoImport {
		opts.OrdersDir = appConfig.OrdersDir()
	}
	if c := quoteClient(); c != nil {
		opts.Quotes = c
	}

	// Zero lets the dashboard use its saved default.
	days := 0
	if cmd.Flags().Changed("days") {
		days = flagDays
	}

	p := tea.NewProgram(tui.NewApp(opts, days), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

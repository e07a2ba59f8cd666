package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/partsbin/internal/cli"
	"github.com/theirongolddev/partsbin/internal/config"
	"github.com/theirongolddev/partsbin/internal/currency"
	"github.com/theirongolddev/partsbin/internal/tui/theme"
)

// setupValues is bound to the first-run form fields.
type setupValues struct {
	currency  string
	budget    string
	ordersDir string
	theme     string
}

func newSetupValues(cfg config.Config) *setupValues {
	v := &setupValues{
		currency:  cfg.Currency.Code,
		ordersDir: cfg.General.OrdersDir,
		theme:     cfg.Appearance.Theme,
	}
	if cfg.Budget.Monthly != nil {
		v.budget = strconv.FormatFloat(*cfg.Budget.Monthly, 'f', -1, 64)
	}
	if !theme.Valid(v.theme) {
		v.theme = theme.Names()[0]
	}
	return v
}

// apply copies the form answers onto cfg. A blank budget clears it.
func (v *setupValues) apply(cfg config.Config) (config.Config, error) {
	money, err := currency.New(strings.TrimSpace(v.currency))
	if err != nil {
		return cfg, err
	}
	cfg.Currency.Code = money.Code()

	cfg.Budget.Monthly = nil
	if b := strings.TrimSpace(v.budget); b != "" {
		d, err := money.Parse(b)
		if err != nil {
			return cfg, err
		}
		if d.IsNegative() {
			return cfg, fmt.Errorf("monthly budget %s is negative", b)
		}
		f := d.InexactFloat64()
		cfg.Budget.Monthly = &f
	}

	cfg.General.OrdersDir = strings.TrimSpace(v.ordersDir)
	if theme.Valid(v.theme) {
		cfg.Appearance.Theme = v.theme
	}
	return cfg, nil
}

func validateCurrency(s string) error {
	_, err := currency.New(strings.TrimSpace(s))
	return err
}

// validateBudget parses with whatever currency the form holds at the time.
func validateBudget(vals *setupValues) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		money, err := currency.New(vals.currency)
		if err != nil {
			money = currency.MustNew(currency.DefaultCode)
		}
		d, err := money.Parse(s)
		if err != nil {
			return errors.New("enter an amount like 150 or 150.00")
		}
		if d.IsNegative() {
			return errors.New("budget can't be negative")
		}
		return nil
	}
}

func newSetupForm(vals *setupValues, items int) *huh.Form {
	themes := theme.Names()
	opts := make([]huh.Option[string], len(themes))
	for i, name := range themes {
		opts[i] = huh.NewOption(name, name)
	}

	intro := "No config file yet. A few answers and you're set; `partsbin setup` reruns this."
	if items > 0 {
		intro = fmt.Sprintf("Found %s items in your inventory. ", cli.FormatNumber(int64(items))) + intro
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to partsbin").
				Description(intro),
			huh.NewInput().
				Title("Currency").
				Description("ISO 4217 code used for every amount").
				Placeholder("USD").
				Value(&vals.currency).
				Validate(validateCurrency),
			huh.NewInput().
				Title("Monthly parts budget").
				Description("Leave empty for no budget").
				Placeholder("150").
				Value(&vals.budget).
				Validate(validateBudget(vals)),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Orders directory").
				Description("Supplier order exports (CSV or JSON) are imported from here. Empty uses the data dir.").
				Placeholder(config.DefaultConfig().OrdersDir()).
				Value(&vals.ordersDir),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(opts...).
				Value(&vals.theme),
		),
	).WithTheme(huh.ThemeCharm()).WithShowHelp(true)
}

// RunSetup runs the setup form outside the dashboard and returns cfg with
// the answers applied. It returns huh.ErrUserAborted when the user quits.
func RunSetup(cfg config.Config, items int) (config.Config, error) {
	vals := newSetupValues(cfg)
	if err := newSetupForm(vals, items).Run(); err != nil {
		return cfg, err
	}
	return vals.apply(cfg)
}

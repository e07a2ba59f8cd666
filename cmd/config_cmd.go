package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/partsbin/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appConfig

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Default days:   %d\n", cfg.General.DefaultDays)
	fmt.Printf("    Orders dir:     %s\n", cfg.OrdersDir())
	fmt.Println()

	fmt.Println("  [Store]")
	fmt.Printf("    Driver:         %s\n", cfg.Store.Driver)
	if cfg.Store.Driver == "postgres" {
		fmt.Printf("    DSN:            %s\n", maskSecret(cfg.Store.DSN))
	} else {
		fmt.Printf("    Path:           %s\n", cfg.DBPath())
	}
	fmt.Println()

	fmt.Println("  [Currency]")
	fmt.Printf("    Code:           %s\n", money().Code())
	if len(cfg.Currency.Rates) > 0 {
		codes := make([]string, 0, len(cfg.Currency.Rates))
		for c := range cfg.Currency.Rates {
			codes = append(codes, c)
		}
		sort.Strings(codes)
		rates := make([]string, len(codes))
		for i, c := range codes {
			rates[i] = fmt.Sprintf("%s=%g", c, cfg.Currency.Rates[c])
		}
		fmt.Printf("    Rates:          %s\n", strings.Join(rates, " "))
	}
	fmt.Println()

	fmt.Println("  [Budget]")
	if cfg.Budget.Monthly != nil {
		fmt.Printf("    Monthly budget: %s\n", money().Format(monthlyBudgetOf(cfg)))
	} else {
		fmt.Println("    Monthly budget: not set")
	}
	fmt.Printf("    Strategy:       %s\n", cfg.Budget.Strategy)
	th := cfg.Budget.Thresholds
	fmt.Printf("    Thresholds:     notice %.0f%%, warning %.0f%%, critical %.0f%%, exceeded %.0f%%\n",
		th.Notice*100, th.Warning*100, th.Critical*100, th.Exceeded*100)
	fmt.Println()

	fmt.Println("  [Recommendations]")
	fmt.Printf("    Limit:          %d\n", cfg.Recommend.Limit)
	fmt.Printf("    Min score:      %.2f\n", cfg.Recommend.MinScore)
	fmt.Printf("    Affinity days:  %d\n", cfg.Recommend.AffinityDays)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:        %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval:       %s\n", cfg.Daemon.Interval())
	fmt.Printf("    Alerts from:    %s\n", cfg.Notify.MinLevel)
	if cfg.Notify.AMQP.URL != "" {
		fmt.Printf("    AMQP:           %s -> %s/%s\n", maskSecret(cfg.Notify.AMQP.URL), cfg.Notify.AMQP.Exchange, cfg.Notify.AMQP.Queue)
	} else {
		fmt.Println("    AMQP:           not configured")
	}
	fmt.Println()

	fmt.Println("  [Price feed]")
	if cfg.PriceFeed.BaseURL != "" {
		fmt.Printf("    URL:            %s\n", cfg.PriceFeed.BaseURL)
		if cfg.PriceFeed.APIKey != "" {
			fmt.Printf("    API key:        %s\n", maskAPIKey(cfg.PriceFeed.APIKey))
		}
	} else {
		fmt.Println("    URL:            not configured")
	}
	fmt.Println()

	fmt.Println("  [Export]")
	if s3 := cfg.Export.S3; s3.Bucket != "" {
		fmt.Printf("    S3:             s3://%s/%s\n", s3.Bucket, s3.Prefix)
		if s3.Endpoint != "" {
			fmt.Printf("    Endpoint:       %s\n", s3.Endpoint)
		}
		if s3.AccessKeyID != "" {
			fmt.Printf("    Access key:     %s\n", maskAPIKey(s3.AccessKeyID))
		}
	} else {
		fmt.Println("    S3:             not configured")
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme:          %s\n", cfg.Appearance.Theme)
	fmt.Printf("    Auto refresh:   %v every %s\n", cfg.TUI.AutoRefresh, cfg.TUI.RefreshInterval())
	fmt.Println()

	if err := cfg.Validate(); err != nil {
		fmt.Println("  Problems:")
		for _, line := range strings.Split(err.Error(), "\n") {
			fmt.Printf("    - %s\n", line)
		}
		fmt.Println()
	}

	fmt.Println("  Run `partsbin setup` to reconfigure.")
	return nil
}

func maskAPIKey(key string) string {
	if len(key) > 16 {
		return key[:8] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}

// maskSecret hides the password in a connection URL such as a DSN or
// broker address.
func maskSecret(raw string) string {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return maskAPIKey(raw)
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return raw
	}
	if user, _, hasPass := strings.Cut(creds, ":"); hasPass {
		return scheme + "://" + user + ":****@" + host
	}
	return raw
}

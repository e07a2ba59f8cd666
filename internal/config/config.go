// Package config loads and saves partsbin settings.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all partsbin configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Store      StoreConfig      `toml:"store"`
	Currency   CurrencyConfig   `toml:"currency"`
	Budget     BudgetConfig     `toml:"budget"`
	Recommend  RecommendConfig  `toml:"recommend"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Notify     NotifyConfig     `toml:"notify"`
	PriceFeed  PriceFeedConfig  `toml:"price_feed"`
	Export     ExportConfig     `toml:"export"`
	Appearance AppearanceConfig `toml:"appearance"`
	TUI        TUIConfig        `toml:"tui"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DefaultDays int    `toml:"default_days"`
	OrdersDir   string `toml:"orders_dir,omitempty"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string `toml:"driver"`         // sqlite | postgres
	Path   string `toml:"path,omitempty"` // sqlite database file
	DSN    string `toml:"dsn,omitempty"`  // postgres connection string
}

// CurrencyConfig holds the display currency and static conversion rates.
type CurrencyConfig struct {
	Code  string             `toml:"code"`
	Rates map[string]float64 `toml:"rates,omitempty"`
}

// BudgetConfig holds budget tracking settings.
type BudgetConfig struct {
	Monthly    *float64         `toml:"monthly,omitempty"`
	Strategy   string           `toml:"strategy"`
	Thresholds ThresholdsConfig `toml:"thresholds"`
}

// ThresholdsConfig holds the used-fraction boundaries for each alert level.
type ThresholdsConfig struct {
	Notice   float64 `toml:"notice"`
	Warning  float64 `toml:"warning"`
	Critical float64 `toml:"critical"`
	Exceeded float64 `toml:"exceeded"`
}

// RecommendConfig tunes recommendation generation.
type RecommendConfig struct {
	Limit        int     `toml:"limit"`
	MinScore     float64 `toml:"min_score"`
	AffinityDays int     `toml:"affinity_days"`
}

// DaemonConfig holds background monitor settings.
type DaemonConfig struct {
	IntervalSeconds int    `toml:"interval_seconds"`
	Addr            string `toml:"addr"`
	EventsBuffer    int    `toml:"events_buffer"`
}

// Interval returns the poll interval as a duration.
func (d DaemonConfig) Interval() time.Duration {
	return time.Duration(d.IntervalSeconds) * time.Second
}

// NotifyConfig configures budget alert delivery.
type NotifyConfig struct {
	MinLevel string     `toml:"min_level"`
	AMQP     AMQPConfig `toml:"amqp"`
}

// AMQPConfig configures the RabbitMQ notifier. An empty URL disables it.
type AMQPConfig struct {
	URL        string `toml:"url,omitempty"`
	Exchange   string `toml:"exchange"`
	Queue      string `toml:"queue"`
	RoutingKey string `toml:"routing_key"`
}

// PriceFeedConfig configures the supplier quote API.
type PriceFeedConfig struct {
	BaseURL string `toml:"base_url,omitempty"`
	APIKey  string `toml:"api_key,omitempty"`
}

// ExportConfig holds export destinations.
type ExportConfig struct {
	S3 S3Config `toml:"s3"`
}

// S3Config configures the S3 export sink. Endpoint is set for MinIO and
// other S3-compatible stores.
type S3Config struct {
	Bucket          string `toml:"bucket,omitempty"`
	Prefix          string `toml:"prefix,omitempty"`
	Region          string `toml:"region,omitempty"`
	Endpoint        string `toml:"endpoint,omitempty"`
	PathStyle       bool   `toml:"path_style,omitempty"`
	AccessKeyID     string `toml:"access_key_id,omitempty"`
	SecretAccessKey string `toml:"secret_access_key,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// TUIConfig holds dashboard refresh settings.
type TUIConfig struct {
	AutoRefresh        bool `toml:"auto_refresh"`
	RefreshIntervalSec int  `toml:"refresh_interval_sec"`
}

// RefreshInterval returns the dashboard polling interval, never below
// ten seconds.
func (t TUIConfig) RefreshInterval() time.Duration {
	if t.RefreshIntervalSec < 10 {
		return 30 * time.Second
	}
	return time.Duration(t.RefreshIntervalSec) * time.Second
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DefaultDays: 30,
		},
		Store: StoreConfig{
			Driver: "sqlite",
		},
		Currency: CurrencyConfig{
			Code: "USD",
		},
		Budget: BudgetConfig{
			Strategy: "priority",
			Thresholds: ThresholdsConfig{
				Notice:   0.5,
				Warning:  0.75,
				Critical: 0.9,
				Exceeded: 1.0,
			},
		},
		Recommend: RecommendConfig{
			Limit:        10,
			AffinityDays: 90,
		},
		Daemon: DaemonConfig{
			IntervalSeconds: 60,
			Addr:            "127.0.0.1:8787",
			EventsBuffer:    200,
		},
		Notify: NotifyConfig{
			MinLevel: "warning",
			AMQP: AMQPConfig{
				Exchange:   "partsbin",
				Queue:      "budget_alerts",
				RoutingKey: "budget.alert",
			},
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		TUI: TUIConfig{
			AutoRefresh:        true,
			RefreshIntervalSec: 30,
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "partsbin")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "partsbin")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "partsbin")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "partsbin")
}

// DBPath returns the sqlite path, falling back to the data directory.
func (c Config) DBPath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(DataDir(), "partsbin.db")
}

// OrdersDir returns the directory scanned by import.
func (c Config) OrdersDir() string {
	if c.General.OrdersDir != "" {
		return c.General.OrdersDir
	}
	return filepath.Join(DataDir(), "orders")
}

// LoadDotEnv loads a .env file from the working directory if one exists.
// Variables already set in the environment win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// Load reads the config file, returning defaults if it doesn't exist.
// PARTSBIN_* environment variables override file values.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
	} else if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with PARTSBIN_* environment variables.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv("PARTSBIN_CURRENCY"); v != "" {
		cfg.Currency.Code = strings.ToUpper(v)
	}
	if v := os.Getenv("PARTSBIN_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("PARTSBIN_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("PARTSBIN_STORE_DSN"); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv("PARTSBIN_ORDERS_DIR"); v != "" {
		cfg.General.OrdersDir = v
	}
	if v := os.Getenv("PARTSBIN_AMQP_URL"); v != "" {
		cfg.Notify.AMQP.URL = v
	}
	if v := os.Getenv("PARTSBIN_PRICEFEED_KEY"); v != "" {
		cfg.PriceFeed.APIKey = v
	}
	if v := os.Getenv("PARTSBIN_PRICEFEED_URL"); v != "" {
		cfg.PriceFeed.BaseURL = v
	}
	if v := os.Getenv("PARTSBIN_S3_BUCKET"); v != "" {
		cfg.Export.S3.Bucket = v
	}
	if v := os.Getenv("PARTSBIN_MONTHLY_BUDGET"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("PARTSBIN_MONTHLY_BUDGET: %w", err)
		}
		cfg.Budget.Monthly = &f
	}
	return nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

var strategies = []string{"proportional", "priority", "equal"}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case "sqlite":
	case "postgres":
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver %q: must be sqlite or postgres", c.Store.Driver))
	}

	if c.General.DefaultDays < 1 {
		errs = append(errs, fmt.Errorf("general.default_days %d: must be at least 1", c.General.DefaultDays))
	}

	if c.Budget.Monthly != nil && *c.Budget.Monthly < 0 {
		errs = append(errs, fmt.Errorf("budget.monthly %.2f: must not be negative", *c.Budget.Monthly))
	}
	if !contains(strategies, c.Budget.Strategy) {
		errs = append(errs, fmt.Errorf("budget.strategy %q: must be one of %v", c.Budget.Strategy, strategies))
	}
	t := c.Budget.Thresholds
	if !(t.Notice > 0 && t.Notice <= t.Warning && t.Warning <= t.Critical && t.Critical <= t.Exceeded) {
		errs = append(errs, errors.New("budget.thresholds must be positive and ascending (notice <= warning <= critical <= exceeded)"))
	}

	if c.Recommend.MinScore < 0 || c.Recommend.MinScore > 1 {
		errs = append(errs, fmt.Errorf("recommend.min_score %.2f: must be between 0 and 1", c.Recommend.MinScore))
	}
	if c.Recommend.Limit < 0 {
		errs = append(errs, fmt.Errorf("recommend.limit %d: must not be negative", c.Recommend.Limit))
	}

	if c.Daemon.IntervalSeconds < 5 {
		errs = append(errs, fmt.Errorf("daemon.interval_seconds %d: must be at least 5", c.Daemon.IntervalSeconds))
	}
	if c.Daemon.EventsBuffer < 1 {
		errs = append(errs, fmt.Errorf("daemon.events_buffer %d: must be at least 1", c.Daemon.EventsBuffer))
	}

	if c.Notify.AMQP.URL != "" {
		if u, err := url.Parse(c.Notify.AMQP.URL); err != nil {
			errs = append(errs, fmt.Errorf("notify.amqp.url: %w", err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errs = append(errs, fmt.Errorf("notify.amqp.url scheme %q: must be amqp or amqps", u.Scheme))
		}
		if c.Notify.AMQP.Exchange == "" || c.Notify.AMQP.Queue == "" {
			errs = append(errs, errors.New("notify.amqp exchange and queue are required when url is set"))
		}
	}

	if c.PriceFeed.BaseURL != "" {
		if u, err := url.Parse(c.PriceFeed.BaseURL); err != nil || u.Host == "" {
			errs = append(errs, fmt.Errorf("price_feed.base_url %q: must be an absolute URL", c.PriceFeed.BaseURL))
		}
	}

	if (c.Export.S3.AccessKeyID == "") != (c.Export.S3.SecretAccessKey == "") {
		errs = append(errs, errors.New("export.s3 access_key_id and secret_access_key must be set together"))
	}

	return errors.Join(errs...)
}

// Thresholds returns the alert thresholds in ascending order.
func (c Config) Thresholds() []float64 {
	t := c.Budget.Thresholds
	return []float64{t.Notice, t.Warning, t.Critical, t.Exceeded}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

package source

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Order file formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// DiscoveredFile is an order file found during directory scanning.
type DiscoveredFile struct {
	Path     string
	Supplier string // first directory below the orders root, if any
	Format   string
}

// OrderDoc is a JSON or YAML order document.
type OrderDoc struct {
	Supplier  string      `json:"supplier" yaml:"supplier"`
	OrderedAt string      `json:"ordered_at" yaml:"ordered_at"`
	Currency  string      `json:"currency" yaml:"currency"`
	Shipping  Amount      `json:"shipping" yaml:"shipping"`
	Project   string      `json:"project" yaml:"project"`
	Lines     []OrderLine `json:"lines" yaml:"lines"`
}

// OrderLine is one line of an order document.
type OrderLine struct {
	SKU       string `json:"sku" yaml:"sku"`
	Name      string `json:"name" yaml:"name"`
	Category  string `json:"category" yaml:"category"`
	Quantity  int    `json:"quantity" yaml:"quantity"`
	UnitPrice Amount `json:"unit_price" yaml:"unit_price"`
	Project   string `json:"project,omitempty" yaml:"project,omitempty"`
}

// Amount is a money value that accepts numbers or strings like "$1.20".
type Amount struct {
	decimal.Decimal
}

// UnmarshalJSON accepts a JSON number or string.
func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		a.Decimal = decimal.Zero
		return nil
	}
	return a.set(strings.Trim(s, `"`))
}

// UnmarshalYAML accepts a YAML scalar.
func (a *Amount) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("amount: expected scalar, got kind %d", n.Kind)
	}
	return a.set(n.Value)
}

func (a *Amount) set(s string) error {
	d, err := ParseAmount(s)
	if err != nil {
		return err
	}
	a.Decimal = d
	return nil
}

// ParseAmount parses a price, ignoring common currency symbols and
// thousands commas. Empty input is zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$€£¥")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q: %w", s, err)
	}
	return d, nil
}

package currency

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Converter converts foreign amounts into a base currency with static rates.
// Rates are expressed as base units per one unit of the foreign currency.
type Converter struct {
	Base  string
	Rates map[string]decimal.Decimal
}

// NewConverter builds a converter from config-style float rates.
func NewConverter(base string, rates map[string]float64) Converter {
	c := Converter{
		Base:  normalize(base),
		Rates: make(map[string]decimal.Decimal, len(rates)),
	}
	for code, r := range rates {
		c.Rates[normalize(code)] = decimal.NewFromFloat(r)
	}
	return c
}

// Convert returns amount (in currency from) expressed in the base currency.
// An empty from is treated as the base currency.
func (c Converter) Convert(amount decimal.Decimal, from string) (decimal.Decimal, error) {
	if from == "" {
		return amount, nil
	}
	from = normalize(from)
	if from == c.Base {
		return amount, nil
	}
	rate, ok := c.Rates[from]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s -> %s", ErrNoRate, from, c.Base)
	}
	return amount.Mul(rate), nil
}

// ConvertOr converts amount, returning it unchanged when no rate is known.
func (c Converter) ConvertOr(amount decimal.Decimal, from string) decimal.Decimal {
	out, err := c.Convert(amount, from)
	if err != nil {
		return amount
	}
	return out
}

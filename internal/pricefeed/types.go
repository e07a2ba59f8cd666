package pricefeed

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/partsbin/internal/currency"
)

// quotesResponse is the raw API response from the quotes endpoint.
type quotesResponse struct {
	Quotes []rawQuote `json:"quotes"`
}

type rawQuote struct {
	SKU       string          `json:"sku"`
	Supplier  string          `json:"supplier"`
	Price     json.RawMessage `json:"price"`
	Currency  string          `json:"currency"`
	InStock   int             `json:"in_stock"`
	UpdatedAt *string         `json:"updated_at"`
}

// Quote is a normalized supplier price for one SKU.
type Quote struct {
	SKU       string
	Supplier  string
	Price     decimal.Decimal
	Currency  string // empty means the base currency
	InStock   int
	UpdatedAt time.Time
}

// QuoteSet is the result of a FetchAll call.
type QuoteSet struct {
	Quotes    map[string]Quote // keyed by SKU
	FetchedAt time.Time
	Error     error // first batch error, if any
}

// Prices returns quote prices keyed by SKU, converted to conv's base currency.
// Quotes with no known rate are skipped.
func (s *QuoteSet) Prices(conv currency.Converter) map[string]decimal.Decimal {
	if s == nil {
		return nil
	}
	out := make(map[string]decimal.Decimal, len(s.Quotes))
	for sku, q := range s.Quotes {
		price, err := conv.Convert(q.Price, q.Currency)
		if err != nil {
			continue
		}
		out[sku] = price
	}
	return out
}

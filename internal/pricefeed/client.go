// Package pricefeed provides a client for fetching supplier price quotes.
package pricefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	requestTimeout = 10 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
	batchSize      = 50
)

var (
	// ErrUnauthorized indicates the API key is missing, expired or invalid.
	ErrUnauthorized = errors.New("pricefeed: unauthorized (api key expired or invalid)")
	// ErrRateLimited indicates the API rate limit was hit.
	ErrRateLimited = errors.New("pricefeed: rate limited")
)

// Client fetches quotes from a price feed API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a client for baseURL.
// Returns nil if the base URL is empty or not absolute.
func NewClient(baseURL, apiKey string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil
	}
	if u, err := url.Parse(baseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(apiKey),
		http:    &http.Client{},
	}
}

// FetchAll fetches quotes for skus in batches.
// Quotes from successful batches are returned even if later batches fail.
func (c *Client) FetchAll(ctx context.Context, skus []string) *QuoteSet {
	result := &QuoteSet{Quotes: make(map[string]Quote), FetchedAt: time.Now()}

	skus = dedupe(skus)
	for start := 0; start < len(skus); start += batchSize {
		end := min(start+batchSize, len(skus))
		quotes, err := c.FetchQuotes(ctx, skus[start:end])
		if err != nil {
			result.Error = err
			// Auth and rate limit failures apply to every batch.
			if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrRateLimited) {
				break
			}
			continue
		}
		for _, q := range quotes {
			result.Quotes[q.SKU] = q
		}
	}
	return result
}

// FetchQuotes fetches quotes for one batch of skus.
func (c *Client) FetchQuotes(ctx context.Context, skus []string) ([]Quote, error) {
	if len(skus) == 0 {
		return nil, nil
	}
	q := url.Values{}
	q.Set("sku", strings.Join(skus, ","))

	body, err := c.get(ctx, "/v1/quotes?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var raw quotesResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("pricefeed: parsing quotes: %w", err)
	}

	quotes := make([]Quote, 0, len(raw.Quotes))
	for _, rq := range raw.Quotes {
		if quote, ok := parseQuote(rq); ok {
			quotes = append(quotes, quote)
		}
	}
	return quotes, nil
}

// get performs an authenticated GET request and returns the response body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("pricefeed: creating request: %w", err)
	}

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "github.com/theirongolddev/partsbin/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pricefeed: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("pricefeed: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("pricefeed: reading response: %w", err)
	}
	return body, nil
}

// parseQuote normalizes a raw quote. Returns false if the sku or price is unusable.
func parseQuote(rq rawQuote) (Quote, bool) {
	if strings.TrimSpace(rq.SKU) == "" {
		return Quote{}, false
	}
	price, ok := parsePrice(rq.Price)
	if !ok {
		return Quote{}, false
	}

	q := Quote{
		SKU:      strings.TrimSpace(rq.SKU),
		Supplier: rq.Supplier,
		Price:    price,
		Currency: strings.ToUpper(rq.Currency),
		InStock:  rq.InStock,
	}
	if rq.UpdatedAt != nil {
		if t, err := time.Parse(time.RFC3339, *rq.UpdatedAt); err == nil {
			q.UpdatedAt = t
		}
	}
	return q, true
}

// parsePrice parses the polymorphic price field.
// Handles numbers (2.5) and strings ("2.50", "$2.50", "1,024.00").
func parsePrice(raw json.RawMessage) (decimal.Decimal, bool) {
	if len(raw) == 0 {
		return decimal.Zero, false
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		d, err := decimal.NewFromString(n.String())
		return d, err == nil && !d.IsNegative()
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimLeft(strings.TrimSpace(s), "$€£¥")
		s = strings.ReplaceAll(s, ",", "")
		if d, err := decimal.NewFromString(s); err == nil && !d.IsNegative() {
			return d, true
		}
	}

	return decimal.Zero, false
}

func dedupe(skus []string) []string {
	seen := make(map[string]bool, len(skus))
	out := make([]string, 0, len(skus))
	for _, s := range skus {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

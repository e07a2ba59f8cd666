package pricefeed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/partsbin/internal/currency"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		base string
		ok   bool
	}{
		{"", false},
		{"   ", false},
		{"not a url", false},
		{"https://prices.example.com/", true},
		{"http://127.0.0.1:9000", true},
	}
	for _, tt := range tests {
		if got := NewClient(tt.base, "k") != nil; got != tt.ok {
			t.Errorf("NewClient(%q) != nil = %v, want %v", tt.base, got, tt.ok)
		}
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{`2.5`, "2.5", true},
		{`"2.50"`, "2.5", true},
		{`"$1,024.00"`, "1024", true},
		{`"€3"`, "3", true},
		{`-1`, "0", false},
		{`"n/a"`, "0", false},
		{`null`, "0", false},
		{``, "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := parsePrice(json.RawMessage(tt.raw))
			if ok != tt.ok {
				t.Fatalf("parsePrice(%s) ok = %v, want %v", tt.raw, ok, tt.ok)
			}
			if ok && !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Fatalf("parsePrice(%s) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFetchQuotes(t *testing.T) {
	var gotAuth, gotSKU string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/quotes" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		gotSKU = r.URL.Query().Get("sku")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"quotes":[
			{"sku":"ESP32","supplier":"digikey","price":"4.10","currency":"usd","in_stock":120,"updated_at":"2026-03-01T10:00:00Z"},
			{"sku":"R10K","price":0.02},
			{"sku":"","price":1},
			{"sku":"BAD","price":"call"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	quotes, err := c.FetchQuotes(context.Background(), []string{"ESP32", "R10K", "BAD"})
	if err != nil {
		t.Fatalf("FetchQuotes: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("Authorization = %q, want Bearer secret", gotAuth)
	}
	if gotSKU != "ESP32,R10K,BAD" {
		t.Fatalf("sku param = %q", gotSKU)
	}
	if len(quotes) != 2 {
		t.Fatalf("len(quotes) = %d, want 2", len(quotes))
	}
	if q := quotes[0]; q.Currency != "USD" || q.InStock != 120 || q.UpdatedAt.IsZero() || !q.Price.Equal(decimal.RequireFromString("4.1")) {
		t.Fatalf("quotes[0] = %+v", q)
	}
	if quotes[1].Currency != "" {
		t.Fatalf("quotes[1].Currency = %q, want empty", quotes[1].Currency)
	}
}

func TestFetchStatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusTooManyRequests, ErrRateLimited},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
		}))
		_, err := NewClient(srv.URL, "").FetchQuotes(context.Background(), []string{"X"})
		srv.Close()
		if !errors.Is(err, tt.want) {
			t.Fatalf("status %d: err = %v, want %v", tt.status, err, tt.want)
		}
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	_, err := NewClient(srv.URL, "").FetchQuotes(context.Background(), []string{"X"})
	if err == nil || !strings.Contains(err.Error(), "unexpected status 500") {
		t.Fatalf("err = %v, want unexpected status 500", err)
	}
}

func TestFetchAllBatchesAndStopsOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n > 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		skus := strings.Split(r.URL.Query().Get("sku"), ",")
		resp := quotesResponse{}
		for _, s := range skus {
			resp.Quotes = append(resp.Quotes, rawQuote{SKU: s, Price: json.RawMessage(`"1.00"`)})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	var skus []string
	for i := 0; i < batchSize*3; i++ {
		skus = append(skus, "S"+strings.Repeat("x", i%7)+string(rune('a'+i%26))+string(rune('a'+i/26)))
	}
	skus = append(skus, skus[0], "")

	set := NewClient(srv.URL, "").FetchAll(context.Background(), skus)
	if !errors.Is(set.Error, ErrRateLimited) {
		t.Fatalf("Error = %v, want %v", set.Error, ErrRateLimited)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("calls = %d, want 2", got)
	}
	if len(set.Quotes) != batchSize {
		t.Fatalf("len(Quotes) = %d, want %d", len(set.Quotes), batchSize)
	}
}

func TestQuoteSetPrices(t *testing.T) {
	set := &QuoteSet{Quotes: map[string]Quote{
		"A": {SKU: "A", Price: decimal.RequireFromString("10"), Currency: "EUR"},
		"B": {SKU: "B", Price: decimal.RequireFromString("3")},
		"C": {SKU: "C", Price: decimal.RequireFromString("1"), Currency: "GBP"},
	}}
	conv := currency.NewConverter("USD", map[string]float64{"EUR": 1.1})

	got := set.Prices(conv)
	if len(got) != 2 {
		t.Fatalf("Prices = %v, want 2 entries", got)
	}
	if !got["A"].Equal(decimal.RequireFromString("11")) {
		t.Fatalf("A = %s, want 11", got["A"])
	}
	if !got["B"].Equal(decimal.RequireFromString("3")) {
		t.Fatalf("B = %s, want 3", got["B"])
	}
}

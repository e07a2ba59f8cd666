// Package source discovers and parses supplier order files (CSV, JSON, YAML)
// into purchases.
package source

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/theirongolddev/partsbin/internal/model"
)

// purchaseNamespace seeds stable purchase ids (path + row).
var purchaseNamespace = uuid.MustParse("b5a0d1f2-9c57-4e1b-8a3e-64c2f7d0e9a4")

// ParseResult holds the output of parsing a single order file.
type ParseResult struct {
	File        DiscoveredFile
	Purchases   []model.Purchase
	ParseErrors int
	Err         error
}

// ParseFile reads one order file. Bad rows are counted in ParseErrors and
// skipped; Err is set only when the file as a whole cannot be read.
func ParseFile(df DiscoveredFile) ParseResult {
	data, err := os.ReadFile(df.Path)
	if err != nil {
		return ParseResult{File: df, Err: err}
	}

	var fallback time.Time
	if info, err := os.Stat(df.Path); err == nil {
		fallback = info.ModTime()
	}

	switch df.Format {
	case FormatCSV:
		return parseCSV(df, data, fallback)
	case FormatJSON:
		var doc OrderDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return ParseResult{File: df, Err: fmt.Errorf("decoding %s: %w", df.Path, err)}
		}
		return fromDoc(df, doc, fallback)
	case FormatYAML:
		var doc OrderDoc
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return ParseResult{File: df, Err: fmt.Errorf("decoding %s: %w", df.Path, err)}
		}
		return fromDoc(df, doc, fallback)
	default:
		return ParseResult{File: df, Err: fmt.Errorf("unsupported order format %q", df.Format)}
	}
}

// PurchaseID returns the stable id of a row in an order file.
func PurchaseID(path string, row int) string {
	return uuid.NewSHA1(purchaseNamespace, []byte(path+"#"+strconv.Itoa(row))).String()
}

func parseCSV(df DiscoveredFile, data []byte, fallback time.Time) ParseResult {
	res := ParseResult{File: df}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return res
		}
		res.Err = fmt.Errorf("reading header of %s: %w", df.Path, err)
		return res
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := col["quantity"]; !ok {
		res.Err = fmt.Errorf("%s: missing quantity column", df.Path)
		return res
	}
	if _, ok := col["unit_price"]; !ok {
		res.Err = fmt.Errorf("%s: missing unit_price column", df.Path)
		return res
	}

	get := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	row := 0
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			res.ParseErrors++
			continue
		}

		p, ok := csvPurchase(df, row, fallback, func(name string) string { return get(rec, name) })
		if !ok {
			res.ParseErrors++
			continue
		}
		res.Purchases = append(res.Purchases, p)
	}
	return res
}

func csvPurchase(df DiscoveredFile, row int, fallback time.Time, get func(string) string) (model.Purchase, bool) {
	qty, err := strconv.Atoi(get("quantity"))
	if err != nil || qty <= 0 {
		return model.Purchase{}, false
	}
	price, err := ParseAmount(get("unit_price"))
	if err != nil || price.IsNegative() {
		return model.Purchase{}, false
	}
	shipping, err := ParseAmount(get("shipping"))
	if err != nil {
		return model.Purchase{}, false
	}

	sku, name := get("sku"), get("name")
	if sku == "" && name == "" {
		return model.Purchase{}, false
	}

	at := fallback
	if s := get("date"); s != "" {
		t, err := ParseDate(s)
		if err != nil {
			return model.Purchase{}, false
		}
		at = t
	}

	supplier := get("supplier")
	if supplier == "" {
		supplier = df.Supplier
	}

	return model.Purchase{
		ID:          PurchaseID(df.Path, row),
		ProjectID:   get("project"),
		Supplier:    supplier,
		SKU:         sku,
		Name:        name,
		Category:    get("category"),
		Quantity:    qty,
		UnitPrice:   price,
		Shipping:    shipping,
		Currency:    strings.ToUpper(get("currency")),
		PurchasedAt: at,
		SourceFile:  df.Path,
	}, true
}

func fromDoc(df DiscoveredFile, doc OrderDoc, fallback time.Time) ParseResult {
	res := ParseResult{File: df}

	at := fallback
	if doc.OrderedAt != "" {
		t, err := ParseDate(doc.OrderedAt)
		if err != nil {
			res.Err = fmt.Errorf("%s: %w", df.Path, err)
			return res
		}
		at = t
	}
	supplier := doc.Supplier
	if supplier == "" {
		supplier = df.Supplier
	}

	for i, l := range doc.Lines {
		if l.Quantity <= 0 || l.UnitPrice.IsNegative() || (l.SKU == "" && l.Name == "") {
			res.ParseErrors++
			continue
		}
		project := l.Project
		if project == "" {
			project = doc.Project
		}
		res.Purchases = append(res.Purchases, model.Purchase{
			ID:          PurchaseID(df.Path, i+1),
			ProjectID:   project,
			Supplier:    supplier,
			SKU:         l.SKU,
			Name:        l.Name,
			Category:    l.Category,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice.Decimal,
			Currency:    strings.ToUpper(doc.Currency),
			PurchasedAt: at,
			SourceFile:  df.Path,
		})
	}

	SplitShipping(res.Purchases, doc.Shipping.Decimal)
	return res
}

// SplitShipping distributes an order-level shipping charge across lines in
// proportion to line value, rounded to cents. The rounding residue goes to the
// last line so shares sum to exactly total.
func SplitShipping(lines []model.Purchase, total decimal.Decimal) {
	if len(lines) == 0 || total.IsZero() {
		return
	}

	value := decimal.Zero
	for _, l := range lines {
		value = value.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	assigned := decimal.Zero
	n := decimal.NewFromInt(int64(len(lines)))
	for i := range lines {
		if i == len(lines)-1 {
			lines[i].Shipping = total.Sub(assigned)
			break
		}
		var share decimal.Decimal
		if value.IsZero() {
			share = total.Div(n)
		} else {
			lineValue := lines[i].UnitPrice.Mul(decimal.NewFromInt(int64(lines[i].Quantity)))
			share = total.Mul(lineValue).Div(value)
		}
		share = share.Round(2)
		lines[i].Shipping = share
		assigned = assigned.Add(share)
	}
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// ParseDate parses an order date. Dates without a zone are local time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

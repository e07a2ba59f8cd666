// Package export writes inventory, project and purchase data as CSV or JSON
// to a local directory or an S3-compatible bucket.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/partsbin/internal/model"
	"github.com/theirongolddev/partsbin/internal/pipeline"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Dataset names what is exported.
type Dataset string

const (
	DatasetInventory Dataset = "inventory"
	DatasetProjects  Dataset = "projects"
	DatasetPurchases Dataset = "purchases"
)

// Datasets lists every dataset.
var Datasets = []Dataset{DatasetInventory, DatasetProjects, DatasetPurchases}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("export format %q: %w", s, model.ErrInvalid)
}

// ParseDataset parses a dataset name.
func ParseDataset(s string) (Dataset, error) {
	want := Dataset(strings.ToLower(strings.TrimSpace(s)))
	for _, d := range Datasets {
		if d == want {
			return d, nil
		}
	}
	return "", fmt.Errorf("export dataset %q: %w", s, model.ErrInvalid)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv"
}

// FileName returns a timestamped file name such as inventory-20260315-120000.csv.
func FileName(ds Dataset, f Format, at time.Time) string {
	return fmt.Sprintf("%s-%s.%s", ds, at.Format("20060102-150405"), f)
}

type inventoryRow struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	SKU         string   `json:"sku,omitempty"`
	Category    string   `json:"category,omitempty"`
	Supplier    string   `json:"supplier,omitempty"`
	Quantity    int      `json:"quantity"`
	MinQuantity int      `json:"min_quantity"`
	UnitPrice   string   `json:"unit_price"`
	Currency    string   `json:"currency,omitempty"`
	Location    string   `json:"location,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type componentRow struct {
	ItemID    string `json:"item_id,omitempty"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type projectRow struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Status     string         `json:"status"`
	Priority   int            `json:"priority"`
	Budget     string         `json:"budget"`
	Deadline   string         `json:"deadline,omitempty"`
	Planned    string         `json:"planned_cost"`
	Components []componentRow `json:"components"`
}

type purchaseRow struct {
	ID          string `json:"id"`
	PurchasedAt string `json:"purchased_at"`
	Supplier    string `json:"supplier,omitempty"`
	SKU         string `json:"sku,omitempty"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	ProjectID   string `json:"project_id,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Shipping    string `json:"shipping"`
	Total       string `json:"total"`
	Currency    string `json:"currency,omitempty"`
	SourceFile  string `json:"source_file,omitempty"`
}

// Write encodes ds from data to w.
func Write(w io.Writer, ds Dataset, f Format, data *pipeline.LoadResult) error {
	var (
		header []string
		rows   [][]string
		recs   any
	)

	switch ds {
	case DatasetInventory:
		header = []string{"id", "name", "sku", "category", "supplier", "quantity", "min_quantity", "unit_price", "currency", "location", "tags"}
		out := make([]inventoryRow, 0, len(data.Items))
		for _, it := range data.Items {
			r := inventoryRow{
				ID: it.ID, Name: it.Name, SKU: it.SKU, Category: it.Category, Supplier: it.Supplier,
				Quantity: it.Quantity, MinQuantity: it.MinQuantity, UnitPrice: it.UnitPrice.String(),
				Currency: it.Currency, Location: it.Location, Tags: it.Tags,
			}
			out = append(out, r)
			rows = append(rows, []string{r.ID, r.Name, r.SKU, r.Category, r.Supplier,
				strconv.Itoa(r.Quantity), strconv.Itoa(r.MinQuantity), r.UnitPrice, r.Currency, r.Location,
				strings.Join(r.Tags, ";")})
		}
		recs = out

	case DatasetProjects:
		header = []string{"id", "name", "status", "priority", "budget", "deadline", "planned_cost", "components"}
		out := make([]projectRow, 0, len(data.Projects))
		for _, p := range data.Projects {
			r := projectRow{
				ID: p.ID, Name: p.Name, Status: string(p.Status), Priority: p.EffectivePriority(),
				Budget: p.Budget.String(), Planned: p.Cost().String(), Components: []componentRow{},
			}
			if !p.Deadline.IsZero() {
				r.Deadline = p.Deadline.Format("2006-01-02")
			}
			for _, c := range p.Components {
				r.Components = append(r.Components, componentRow{ItemID: c.ItemID, Name: c.Name, Quantity: c.Quantity, UnitPrice: c.UnitPrice.String()})
			}
			out = append(out, r)
			rows = append(rows, []string{r.ID, r.Name, r.Status, strconv.Itoa(r.Priority), r.Budget,
				r.Deadline, r.Planned, strconv.Itoa(len(r.Components))})
		}
		recs = out

	case DatasetPurchases:
		header = []string{"id", "purchased_at", "supplier", "sku", "name", "category", "project_id", "quantity", "unit_price", "shipping", "total", "currency", "source_file"}
		out := make([]purchaseRow, 0, len(data.Purchases))
		for _, p := range data.Purchases {
			r := purchaseRow{
				ID: p.ID, PurchasedAt: p.PurchasedAt.Format(time.RFC3339), Supplier: p.Supplier, SKU: p.SKU,
				Name: p.Name, Category: p.Category, ProjectID: p.ProjectID, Quantity: p.Quantity,
				UnitPrice: p.UnitPrice.String(), Shipping: p.Shipping.String(), Total: p.Total().String(),
				Currency: p.Currency, SourceFile: p.SourceFile,
			}
			out = append(out, r)
			rows = append(rows, []string{r.ID, r.PurchasedAt, r.Supplier, r.SKU, r.Name, r.Category, r.ProjectID,
				strconv.Itoa(r.Quantity), r.UnitPrice, r.Shipping, r.Total, r.Currency, r.SourceFile})
		}
		recs = out

	default:
		return fmt.Errorf("export dataset %q: %w", ds, model.ErrInvalid)
	}

	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(header); err != nil {
			return err
		}
		if err := cw.WriteAll(rows); err != nil {
			return err
		}
		return cw.Error()
	}
	return fmt.Errorf("export format %q: %w", f, model.ErrInvalid)
}

// Encode is Write into a buffer.
func Encode(ds Dataset, f Format, data *pipeline.LoadResult) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, ds, f, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

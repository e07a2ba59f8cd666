package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/partsbin/internal/model"
	"github.com/theirongolddev/partsbin/internal/pipeline"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testData() *pipeline.LoadResult {
	at := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	return &pipeline.LoadResult{
		Items: []model.InventoryItem{
			{ID: "i1", Name: "ESP32, WROOM", SKU: "ESP32", Category: "mcu", Supplier: "digikey", Quantity: 4, MinQuantity: 2, UnitPrice: dec("5.25"), Currency: "USD", Tags: []string{"wifi", "ble"}},
		},
		Projects: []model.Project{
			{ID: "p1", Name: "Clock", Status: model.StatusActive, Budget: dec("50"), Deadline: at, Components: []model.ProjectComponent{
				{ItemID: "i1", Name: "ESP32", Quantity: 2, UnitPrice: dec("5.25")},
			}},
		},
		Purchases: []model.Purchase{
			{ID: "o1", Name: "ESP32", Quantity: 4, UnitPrice: dec("5.25"), Shipping: dec("2"), PurchasedAt: at},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	tests := []struct {
		ds     Dataset
		header string
		row    []string
	}{
		{DatasetInventory, "id", []string{"i1", "ESP32, WROOM", "ESP32", "mcu", "digikey", "4", "2", "5.25", "USD", "", "wifi;ble"}},
		{DatasetProjects, "id", []string{"p1", "Clock", "active", "3", "50", "2026-02-03", "10.5", "1"}},
		{DatasetPurchases, "id", []string{"o1", "2026-02-03T10:00:00Z", "", "", "ESP32", "", "", "4", "5.25", "2", "23", "", ""}},
	}
	for _, tt := range tests {
		t.Run(string(tt.ds), func(t *testing.T) {
			body, err := Encode(tt.ds, FormatCSV, testData())
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
			if err != nil {
				t.Fatalf("read csv: %v", err)
			}
			if len(records) != 2 {
				t.Fatalf("records = %d, want 2", len(records))
			}
			if records[0][0] != tt.header || len(records[0]) != len(tt.row) {
				t.Fatalf("header = %v", records[0])
			}
			for i, want := range tt.row {
				if records[1][i] != want {
					t.Fatalf("row[%d] (%s) = %q, want %q", i, records[0][i], records[1][i], want)
				}
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	body, err := Encode(DatasetProjects, FormatJSON, testData())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var got []projectRow
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 1 || got[0].Planned != "10.5" || len(got[0].Components) != 1 || got[0].Components[0].ItemID != "i1" {
		t.Fatalf("projects = %+v", got)
	}

	body, err = Encode(DatasetInventory, FormatJSON, &pipeline.LoadResult{})
	if err != nil {
		t.Fatalf("Encode empty: %v", err)
	}
	if strings.TrimSpace(string(body)) != "[]" {
		t.Fatalf("empty inventory = %s, want []", body)
	}
}

func TestParse(t *testing.T) {
	if f, err := ParseFormat("JSON"); err != nil || f != FormatJSON {
		t.Fatalf("ParseFormat(JSON) = %q, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatal("ParseFormat(xml) succeeded")
	}
	if d, err := ParseDataset(" purchases "); err != nil || d != DatasetPurchases {
		t.Fatalf("ParseDataset = %q, %v", d, err)
	}
	if _, err := ParseDataset("sessions"); err == nil {
		t.Fatal("ParseDataset(sessions) succeeded")
	}
}

func TestFileName(t *testing.T) {
	at := time.Date(2026, 3, 15, 12, 4, 5, 0, time.UTC)
	if got := FileName(DatasetInventory, FormatCSV, at); got != "inventory-20260315-120405.csv" {
		t.Fatalf("FileName = %q", got)
	}
}

func TestFileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	loc, err := FileSink{Dir: dir}.Put(context.Background(), "../escape.csv", "text/csv", []byte("a,b\n"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if loc != filepath.Join(dir, "escape.csv") {
		t.Fatalf("location = %q", loc)
	}
	got, err := os.ReadFile(loc)
	if err != nil || string(got) != "a,b\n" {
		t.Fatalf("file = %q, %v", got, err)
	}
}

type putRecorder struct {
	mu     sync.Mutex
	method string
	path   string
	ctype  string
	body   []byte
}

func (p *putRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.method, p.path, p.ctype = req.Method, req.URL.Path, req.Header.Get("Content-Type")
	if req.Body != nil {
		p.body, _ = io.ReadAll(req.Body)
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(nil)),
		Header:     http.Header{"Etag": {"\"etag123\""}},
		Request:    req,
	}, nil
}

func TestS3SinkPut(t *testing.T) {
	rt := &putRecorder{}
	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	if err != nil {
		t.Fatalf("LoadDefaultConfig: %v", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: rt}
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String("https://mock.s3.local")
	})
	sink := &S3Sink{client: client, bucket: "exports", prefix: "partsbin"}

	loc, err := sink.Put(context.Background(), "inventory.csv", "text/csv", []byte("id\n"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if loc != "s3://exports/partsbin/inventory.csv" {
		t.Fatalf("location = %q", loc)
	}
	if rt.method != http.MethodPut || rt.path != "/exports/partsbin/inventory.csv" {
		t.Fatalf("request = %s %s", rt.method, rt.path)
	}
	if rt.ctype != "text/csv" {
		t.Fatalf("Content-Type = %q", rt.ctype)
	}
}

func TestNewS3SinkRequiresBucket(t *testing.T) {
	if _, err := NewS3Sink(context.Background(), S3Config{}); err == nil {
		t.Fatal("NewS3Sink without bucket succeeded")
	}
}

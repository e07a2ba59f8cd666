package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScanDir(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"digikey/2026-09.csv":  "sku,quantity,unit_price\n",
		"digikey/2026-10.json": "{}",
		"lcsc/big/order.yml":   "lines: []",
		"loose.yaml":           "lines: []",
		"notes.txt":            "ignore me",
		".hidden/secret.csv":   "sku,quantity,unit_price\n",
		"adafruit/.draft.csv":  "sku,quantity,unit_price\n",
	}
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	got, err := ScanDir(root)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("ScanDir() found %d files, want 4: %+v", len(got), got)
	}

	bySupplier := map[string]int{}
	for _, f := range got {
		bySupplier[f.Supplier]++
	}
	if bySupplier["digikey"] != 2 || bySupplier["lcsc"] != 1 || bySupplier[""] != 1 {
		t.Fatalf("suppliers = %v, want digikey:2 lcsc:1 none:1", bySupplier)
	}
	if CountSuppliers(got) != 3 {
		t.Fatalf("CountSuppliers() = %d, want 3", CountSuppliers(got))
	}
}

func TestScanDirMissing(t *testing.T) {
	got, err := ScanDir(filepath.Join(t.TempDir(), "nope"))
	if err != nil || got != nil {
		t.Fatalf("ScanDir(missing) = %v, %v; want nil, nil", got, err)
	}
}

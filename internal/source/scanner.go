package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanDir walks the orders directory and discovers all order files.
// Files directly under a subdirectory take that directory's name as supplier:
//
//	orders/digikey/2026-10.csv -> supplier "digikey"
func ScanDir(ordersDir string) ([]DiscoveredFile, error) {
	info, err := os.Stat(ordersDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	var files []DiscoveredFile

	err = filepath.WalkDir(ordersDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // intentionally skip unreadable entries
		}
		if d.IsDir() {
			if path != ordersDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		format := formatForExt(filepath.Ext(path))
		if format == "" {
			return nil
		}

		df := DiscoveredFile{Path: path, Format: format}
		rel, _ := filepath.Rel(ordersDir, path)
		if parts := strings.Split(rel, string(filepath.Separator)); len(parts) >= 2 {
			df.Supplier = parts[0]
		}

		files = append(files, df)
		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, err
}

func formatForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".csv":
		return FormatCSV
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}
	return ""
}

// CountSuppliers returns the number of unique suppliers in a set of discovered files.
func CountSuppliers(files []DiscoveredFile) int {
	seen := make(map[string]struct{})
	for _, f := range files {
		seen[f.Supplier] = struct{}{}
	}
	return len(seen)
}

package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/theirongolddev/partsbin/internal/logging"
	"github.com/theirongolddev/partsbin/internal/model"
	"github.com/theirongolddev/partsbin/internal/source"
	"github.com/theirongolddev/partsbin/internal/store"
)

// ProgressFunc is called during import to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// ImportRepository is the store surface used by ImportOrders.
type ImportRepository interface {
	TrackedFiles(ctx context.Context) (map[string]store.FileInfo, error)
	ApplyImport(ctx context.Context, b store.ImportBatch) error
	ForgetFile(ctx context.Context, path string) error
	ListProjects(ctx context.Context) ([]model.Project, error)
}

// ImportResult reports what an import run did.
type ImportResult struct {
	TotalFiles  int
	Cached      int // unchanged since last import
	Reparsed    int
	Removed     int // tracked files no longer on disk
	Purchases   int
	ParseErrors int
	FileErrors  int
	Suppliers   int
}

// ImportOrders discovers order files under dir, diffs them against the file
// tracker by mtime and size, parses only changed files with a bounded worker
// pool and stores the result. Inventory is restocked only on the first
// import of a file.
func ImportOrders(ctx context.Context, dir string, repo ImportRepository, progressFn ProgressFunc) (*ImportResult, error) {
	log := logging.For(logging.ComponentImport)

	// The tracker is keyed by path, so a relative dir would import the
	// same files again under a second name.
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}
	dir = abs

	files, err := source.ScanDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	tracked, err := repo.TrackedFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading file tracker: %w", err)
	}

	result := &ImportResult{
		TotalFiles: len(files),
		Suppliers:  source.CountSuppliers(files),
	}

	// Diff: partition into changed and unchanged
	type pending struct {
		file source.DiscoveredFile
		info store.FileInfo
		seen bool
	}
	var toReparse []pending
	onDisk := make(map[string]struct{}, len(files))

	for _, f := range files {
		onDisk[f.Path] = struct{}{}
		info, err := os.Stat(f.Path)
		if err != nil {
			continue
		}
		fi := store.FileInfo{MtimeNs: info.ModTime().UnixNano(), SizeBytes: info.Size()}
		cached, ok := tracked[f.Path]
		if ok && cached == fi {
			result.Cached++
			continue
		}
		toReparse = append(toReparse, pending{file: f, info: fi, seen: ok})
	}
	result.Reparsed = len(toReparse)

	// Files under dir that were imported before but are gone now.
	for path := range tracked {
		if _, ok := onDisk[path]; ok || !underDir(path, dir) {
			continue
		}
		if err := repo.ForgetFile(ctx, path); err != nil {
			return result, fmt.Errorf("forgetting %s: %w", path, err)
		}
		result.Removed++
	}

	if progressFn != nil && result.Cached > 0 {
		progressFn(result.Cached, result.TotalFiles)
	}
	if len(toReparse) == 0 {
		return result, nil
	}

	// Parallel parsing with bounded worker pool
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(toReparse) {
		numWorkers = len(toReparse)
	}

	work := make(chan int, len(toReparse))
	results := make([]source.ParseResult, len(toReparse))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range toReparse {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				if ctx.Err() != nil {
					results[idx] = source.ParseResult{File: toReparse[idx].file, Err: ctx.Err()}
					continue
				}
				results[idx] = source.ParseFile(toReparse[idx].file)
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n)+result.Cached, result.TotalFiles)
				}
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return result, err
	}

	projects, err := repo.ListProjects(ctx)
	if err != nil {
		return result, fmt.Errorf("loading projects: %w", err)
	}

	// Store results sequentially; the store serializes writes anyway.
	for i, pr := range results {
		if pr.Err != nil {
			result.FileErrors++
			log.Warn("order file skipped", logging.FieldFile, pr.File.Path, logging.FieldError, pr.Err)
			continue
		}
		result.ParseErrors += pr.ParseErrors
		ResolveProjectRefs(pr.Purchases, projects)

		batch := store.ImportBatch{
			SourceFile: pr.File.Path,
			File:       toReparse[i].info,
			Purchases:  pr.Purchases,
			Restock:    !toReparse[i].seen,
		}
		if err := repo.ApplyImport(ctx, batch); err != nil {
			return result, fmt.Errorf("storing %s: %w", pr.File.Path, err)
		}
		result.Purchases += len(pr.Purchases)
	}

	log.Info("import complete",
		"files", result.TotalFiles, "cached", result.Cached, "reparsed", result.Reparsed,
		"purchases", result.Purchases, "parse_errors", result.ParseErrors)
	return result, nil
}

func underDir(path, dir string) bool {
	dir = strings.TrimSuffix(dir, string(os.PathSeparator)) + string(os.PathSeparator)
	return strings.HasPrefix(path, dir)
}

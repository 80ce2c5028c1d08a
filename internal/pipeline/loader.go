package pipeline

import (
	"fmt"

	"github.com/theirongolddev/kirana/internal/model"
	"github.com/theirongolddev/kirana/internal/source"
)

// LoadResult holds the output of the full data loading pipeline.
type LoadResult struct {
	Sales        []model.Sale
	TotalFiles   int
	ParsedFiles  int
	ProductCount int
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// Load discovers and parses every sales file at path, one file at a time.
// The first invalid file aborts the load.
func Load(path string, schema source.Schema, progressFn ProgressFunc) (*LoadResult, error) {
	files, err := source.ScanPath(path)
	if err != nil {
		return nil, err
	}

	result := &LoadResult{TotalFiles: len(files)}
	for i, f := range files {
		pr := source.ParseFile(f, schema)
		if pr.Err != nil {
			return nil, fmt.Errorf("parsing %s: %w", f.Path, pr.Err)
		}
		result.Sales = append(result.Sales, pr.Sales...)
		result.ParsedFiles++
		report(progressFn, i+1, len(files))
	}

	result.ProductCount = source.CountProducts(result.Sales)
	return result, nil
}

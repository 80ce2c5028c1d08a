package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/theirongolddev/kirana/internal/source"
	"github.com/theirongolddev/kirana/internal/store"
)

// CachedLoadResult extends LoadResult with cache metadata.
type CachedLoadResult struct {
	LoadResult
	CacheHits int
	Reparsed  int
}

// LoadWithCache discovers files, reuses cached rows for files whose mtime,
// size and schema are unchanged, and reparses the rest.
func LoadWithCache(path string, schema source.Schema, cache *store.Cache, progressFn ProgressFunc) (*CachedLoadResult, error) {
	files, err := source.ScanPath(path)
	if err != nil {
		return nil, err
	}

	tracked, err := cache.GetTrackedFiles()
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	key := schema.Key()
	result := &CachedLoadResult{LoadResult: LoadResult{TotalFiles: len(files)}}

	for i, f := range files {
		cacheKey := f.Path
		if abs, err := filepath.Abs(f.Path); err == nil {
			cacheKey = abs
		}
		info, err := os.Stat(f.Path)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		current := store.FileInfo{MtimeNs: info.ModTime().UnixNano(), SizeBytes: info.Size(), SchemaKey: key}

		if cached, ok := tracked[cacheKey]; ok && cached.Matches(current.MtimeNs, current.SizeBytes, key) {
			sales, err := cache.LoadFileSales(cacheKey)
			if err == nil {
				result.Sales = append(result.Sales, sales...)
				result.ParsedFiles++
				result.CacheHits++
				report(progressFn, i+1, len(files))
				continue
			}
			log.Warn().Err(err).Str("file", f.Path).Msg("cached rows unreadable, reparsing")
		}

		pr := source.ParseFile(f, schema)
		if pr.Err != nil {
			_ = cache.DeleteFile(cacheKey)
			return nil, fmt.Errorf("parsing %s: %w", f.Path, pr.Err)
		}
		result.Sales = append(result.Sales, pr.Sales...)
		result.ParsedFiles++
		result.Reparsed++

		if err := cache.SaveFile(cacheKey, current, pr.Sales); err != nil {
			log.Warn().Err(err).Str("file", f.Path).Msg("caching parsed rows failed")
		}
		report(progressFn, i+1, len(files))
	}

	result.ProductCount = source.CountProducts(result.Sales)
	return result, nil
}

// LoadPreferCache loads through the on-disk cache at cachePath and falls
// back to a full parse when the cache cannot be opened or read. Problems
// with the input itself are returned as they are. After a fallback
// CacheHits is zero and every file counts as reparsed.
func LoadPreferCache(path, cachePath string, schema source.Schema, progressFn ProgressFunc) (*CachedLoadResult, error) {
	cache, err := store.Open(cachePath)
	if err != nil {
		log.Debug().Err(err).Msg("cache unavailable, doing full parse")
		return fullParse(path, schema, progressFn)
	}
	defer cache.Close()

	cr, err := LoadWithCache(path, schema, cache, progressFn)
	if err == nil {
		return cr, nil
	}
	if IsInputError(err) {
		return nil, err
	}
	log.Warn().Err(err).Msg("cache error, falling back to full parse")
	return fullParse(path, schema, progressFn)
}

func fullParse(path string, schema source.Schema, progressFn ProgressFunc) (*CachedLoadResult, error) {
	r, err := Load(path, schema, progressFn)
	if err != nil {
		return nil, err
	}
	return &CachedLoadResult{LoadResult: *r, Reparsed: r.ParsedFiles}, nil
}

// IsInputError reports problems with the sales data itself, which a full
// parse would hit again.
func IsInputError(err error) bool {
	var rowErr *source.RowError
	return errors.As(err, &rowErr) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, source.ErrMissingColumn) ||
		errors.Is(err, source.ErrNoInput)
}

func report(fn ProgressFunc, current, total int) {
	if fn != nil {
		fn(current, total)
	}
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "kirana")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "kirana")
}

// CachePath returns the full path to the cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "sales.db")
}

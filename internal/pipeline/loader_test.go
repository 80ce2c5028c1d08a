package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/kirana/internal/source"
	"github.com/theirongolddev/kirana/internal/store"
)

func writeFile(t *testing.T, path string, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
}

func salesDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "jan.csv"),
		"product_name,quantity,transaction_date",
		"Rice,2,01-01-2024",
		"Dal,1,02-01-2024",
	)
	writeFile(t, filepath.Join(dir, "feb.csv"),
		"product_name,quantity,transaction_date",
		"Rice,3,01-02-2024",
	)
	return dir
}

func TestLoad(t *testing.T) {
	var calls []int
	result, err := Load(salesDir(t), source.DefaultSchema(), func(current, total int) {
		calls = append(calls, current)
		assert.Equal(t, 2, total)
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalFiles)
	assert.Equal(t, 2, result.ParsedFiles)
	assert.Equal(t, 2, result.ProductCount)
	assert.Len(t, result.Sales, 3)
	assert.Equal(t, []int{1, 2}, calls)
}

func TestLoad_AbortsOnBadFile(t *testing.T) {
	dir := salesDir(t)
	writeFile(t, filepath.Join(dir, "mar.csv"),
		"product_name,quantity,transaction_date",
		"Rice,lots,01-03-2024",
	)

	result, err := Load(dir, source.DefaultSchema(), nil)
	assert.Nil(t, result, "no partial result")
	assert.ErrorIs(t, err, source.ErrBadQuantity)
}

func TestLoad_MissingInput(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"), source.DefaultSchema(), nil)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadWithCache(t *testing.T) {
	dir := salesDir(t)
	cache, err := store.Open(filepath.Join(t.TempDir(), "sales.db"))
	require.NoError(t, err)
	defer func() { _ = cache.Close() }()

	first, err := LoadWithCache(dir, source.DefaultSchema(), cache, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, first.CacheHits)
	assert.Equal(t, 2, first.Reparsed)
	assert.Len(t, first.Sales, 3)

	second, err := LoadWithCache(dir, source.DefaultSchema(), cache, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, second.CacheHits)
	assert.Equal(t, 0, second.Reparsed)
	assert.ElementsMatch(t, first.Sales, second.Sales)

	// Touching one file forces just that file to be reparsed.
	feb := filepath.Join(dir, "feb.csv")
	writeFile(t, feb,
		"product_name,quantity,transaction_date",
		"Rice,3,01-02-2024",
		"Oil,1,02-02-2024",
	)
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(feb, future, future))

	third, err := LoadWithCache(dir, source.DefaultSchema(), cache, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, third.CacheHits)
	assert.Equal(t, 1, third.Reparsed)
	assert.Len(t, third.Sales, 4)
	assert.Equal(t, 3, third.ProductCount)

	// A schema change invalidates everything.
	schema := source.DefaultSchema()
	schema.DayFirst = false
	fourth, err := LoadWithCache(dir, schema, cache, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, fourth.Reparsed)
}

func TestLoadPreferCache(t *testing.T) {
	dir := salesDir(t)
	cachePath := filepath.Join(t.TempDir(), "sales.db")

	first, err := LoadPreferCache(dir, cachePath, source.DefaultSchema(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Reparsed)

	second, err := LoadPreferCache(dir, cachePath, source.DefaultSchema(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, second.CacheHits)
	assert.Len(t, second.Sales, 3)

	// A cache that cannot be created falls back to a full parse.
	blocker := filepath.Join(t.TempDir(), "file")
	writeFile(t, blocker, "x")
	fallback, err := LoadPreferCache(dir, filepath.Join(blocker, "sales.db"), source.DefaultSchema(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, fallback.CacheHits)
	assert.Equal(t, 2, fallback.Reparsed)
	assert.Len(t, fallback.Sales, 3)

	// Input errors are not retried.
	_, err = LoadPreferCache(filepath.Join(dir, "nope.csv"), cachePath, source.DefaultSchema(), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func BenchmarkLoad(b *testing.B) {
	dir := b.TempDir()
	var sb strings.Builder
	sb.WriteString("product_name,quantity,transaction_date\n")
	for i := 0; i < 50000; i++ {
		fmt.Fprintf(&sb, "Product %d,%d,%02d-%02d-2024\n", i%200, i%9+1, i%28+1, i%12+1)
	}
	if err := os.WriteFile(filepath.Join(dir, "sales.csv"), []byte(sb.String()), 0o600); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Load(dir, source.DefaultSchema(), nil); err != nil {
			b.Fatal(err)
		}
	}
}

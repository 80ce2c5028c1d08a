// Package store provides a SQLite-backed cache of parsed sales rows.
//
// The cache is derived data: the CSV stays the source of truth, and a row set
// is only reused while the file's mtime, size and parse schema are unchanged.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/kirana/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

const dateLayout = "2006-01-02"

// Cache provides SQLite-backed caching of parsed CSV files.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// FileInfo holds the tracked state of a parsed file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
	SchemaKey string
}

// Matches reports whether the cached rows are still valid for a file.
func (fi FileInfo) Matches(mtimeNs, sizeBytes int64, schemaKey string) bool {
	return fi.MtimeNs == mtimeNs && fi.SizeBytes == sizeBytes && fi.SchemaKey == schemaKey
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all tracked files.
func (c *Cache) GetTrackedFiles() (map[string]FileInfo, error) {
	rows, err := c.db.Query("SELECT file_path, mtime_ns, size_bytes, schema_key FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes, &fi.SchemaKey); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// SaveFile replaces the cached rows of one file and records its tracking info.
func (c *Cache) SaveFile(path string, info FileInfo, sales []model.Sale) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM sales WHERE file_path = ?", path); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO sales (file_path, line, product, quantity, sale_date)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, s := range sales {
		if _, err := stmt.Exec(path, s.Line, s.Product, s.Quantity.String(), s.Date.Format(dateLayout)); err != nil {
			return err
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.Exec(`INSERT OR REPLACE INTO file_tracker (file_path, mtime_ns, size_bytes, schema_key, parsed_at)
		VALUES (?, ?, ?, ?, ?)`, path, info.MtimeNs, info.SizeBytes, info.SchemaKey, now)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// LoadFileSales reads the cached rows of one file in line order.
func (c *Cache) LoadFileSales(path string) ([]model.Sale, error) {
	rows, err := c.db.Query(`SELECT line, product, quantity, sale_date
		FROM sales WHERE file_path = ? ORDER BY line`, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var sales []model.Sale
	for rows.Next() {
		var s model.Sale
		var qty, date string
		if err := rows.Scan(&s.Line, &s.Product, &qty, &date); err != nil {
			return nil, err
		}
		if s.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf("cached quantity %q: %w", qty, err)
		}
		if s.Date, err = time.ParseInLocation(dateLayout, date, time.Local); err != nil {
			return nil, fmt.Errorf("cached date %q: %w", date, err)
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

// DeleteFile removes a file's cached rows and tracking entry.
func (c *Cache) DeleteFile(path string) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM sales WHERE file_path = ?", path); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM file_tracker WHERE file_path = ?", path); err != nil {
		return err
	}
	return tx.Commit()
}

// SaleCount returns the number of cached sale rows.
func (c *Cache) SaleCount() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM sales").Scan(&count)
	return count, err
}

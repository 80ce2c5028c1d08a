package config

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/kirana/internal/forecast"
)

// StockLevels resolves current stock per product, falling back to a default.
type StockLevels struct {
	Default decimal.Decimal
	Levels  map[string]decimal.Decimal // keyed by lower-cased product name
}

// StockLevels returns the configured stock levels.
func (c Config) StockLevels() StockLevels {
	sl := StockLevels{
		Default: stockDecimal(c.Stock.Default),
		Levels:  make(map[string]decimal.Decimal, len(c.Stock.Levels)),
	}
	for product, level := range c.Stock.Levels {
		sl.Levels[strings.ToLower(product)] = stockDecimal(level)
	}
	return sl
}

// stockDecimal converts a configured level. NaN and infinities, which
// Validate rejects, become zero.
func stockDecimal(f float64) decimal.Decimal {
	if !finite(f) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// For returns the stock on hand for product.
func (sl StockLevels) For(product string) decimal.Decimal {
	if level, ok := sl.Levels[strings.ToLower(product)]; ok {
		return level
	}
	return sl.Default
}

// Merge returns a copy with overrides taking precedence.
func (sl StockLevels) Merge(overrides map[string]decimal.Decimal) StockLevels {
	out := StockLevels{Default: sl.Default, Levels: make(map[string]decimal.Decimal, len(sl.Levels)+len(overrides))}
	for k, v := range sl.Levels {
		out.Levels[k] = v
	}
	for k, v := range overrides {
		out.Levels[strings.ToLower(k)] = v
	}
	return out
}

// LoadStockFile reads a product,stock CSV. The header row is required; extra
// columns are ignored.
func LoadStockFile(path string) (map[string]decimal.Decimal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading stock file: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: reading header: %w", path, err)
	}
	productIdx, stockIdx := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "product", "product_name":
			productIdx = i
		case "stock", "quantity", "on_hand":
			stockIdx = i
		}
	}
	if productIdx < 0 || stockIdx < 0 {
		return nil, fmt.Errorf("%s: %w: header needs product and stock columns", path, forecast.ErrInvalidInput)
	}

	levels := make(map[string]decimal.Decimal)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		line, _ := r.FieldPos(0)

		product := strings.TrimSpace(rec[productIdx])
		if product == "" {
			return nil, fmt.Errorf("%s:%d: %w: missing product", path, line, forecast.ErrInvalidInput)
		}
		stock, err := decimal.NewFromString(strings.TrimSpace(rec[stockIdx]))
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w: stock %q is not a number", path, line, forecast.ErrInvalidInput, rec[stockIdx])
		}
		if stock.IsNegative() {
			return nil, fmt.Errorf("%s:%d: %s: %w", path, line, product, forecast.ErrNegativeStock)
		}
		levels[product] = stock
	}
	return levels, nil
}

// Package source discovers and parses sales CSV files.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/kirana/internal/model"
)

// ParseResult holds the output of parsing a single CSV file.
type ParseResult struct {
	Sales []model.Sale
	Rows  int
	Err   error
}

// header holds resolved column indexes.
type header struct {
	names    []string
	product  int
	quantity int
	date     int
}

// ParseFile reads a sales CSV with a header row. The first invalid row aborts
// the parse; no partial result is returned alongside an error.
func ParseFile(df DiscoveredFile, schema Schema) ParseResult {
	f, err := os.Open(df.Path)
	if err != nil {
		return ParseResult{Err: err}
	}
	defer func() { _ = f.Close() }()

	sales, err := Parse(f, df.Name, schema)
	if err != nil {
		return ParseResult{Err: err}
	}
	return ParseResult{Sales: sales, Rows: len(sales)}
}

// Parse reads sales rows from r. name identifies the input in errors.
func Parse(r io.Reader, name string, schema Schema) ([]model.Sale, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	rec, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &RowError{File: name, Line: 1, Err: ErrMissingColumn}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: reading header: %w", name, err)
	}
	h, err := resolveHeader(rec, schema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	var sales []model.Sale
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				rowErr := &RowError{File: name, Line: pe.StartLine, Err: pe.Err}
				if errors.Is(pe.Err, csv.ErrFieldCount) {
					rowErr.Err = ErrFieldCount
				}
				return nil, rowErr
			}
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		line, _ := cr.FieldPos(0)
		s, rowErr := h.sale(rec, schema)
		if rowErr != nil {
			rowErr.File = name
			rowErr.Line = line
			return nil, rowErr
		}
		s.Line = line
		sales = append(sales, s)
	}
	return sales, nil
}

func resolveHeader(rec []string, schema Schema) (header, error) {
	h := header{names: make([]string, len(rec)), product: -1, quantity: -1, date: -1}
	for i, name := range rec {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		h.names[i] = name
		switch {
		case strings.EqualFold(name, schema.ProductColumn):
			h.product = i
		case strings.EqualFold(name, schema.QuantityColumn):
			h.quantity = i
		case strings.EqualFold(name, schema.DateColumn):
			h.date = i
		}
	}

	for _, c := range []struct {
		idx  int
		name string
	}{
		{h.product, schema.ProductColumn},
		{h.quantity, schema.QuantityColumn},
		{h.date, schema.DateColumn},
	} {
		if c.idx < 0 {
			return h, fmt.Errorf("%w: %q", ErrMissingColumn, c.name)
		}
	}
	return h, nil
}

func (h header) sale(rec []string, schema Schema) (model.Sale, *RowError) {
	product := strings.TrimSpace(rec[h.product])
	if product == "" {
		return model.Sale{}, &RowError{Column: h.names[h.product], Err: ErrMissingValue}
	}

	rawQty := strings.TrimSpace(rec[h.quantity])
	if rawQty == "" {
		return model.Sale{}, &RowError{Column: h.names[h.quantity], Err: ErrMissingValue}
	}
	qty, err := decimal.NewFromString(rawQty)
	if err != nil || qty.IsNegative() {
		return model.Sale{}, &RowError{Column: h.names[h.quantity], Value: rawQty, Err: ErrBadQuantity}
	}

	rawDate := strings.TrimSpace(rec[h.date])
	if rawDate == "" {
		return model.Sale{}, &RowError{Column: h.names[h.date], Err: ErrMissingValue}
	}
	date, ok := ParseDate(rawDate, schema)
	if !ok {
		return model.Sale{}, &RowError{Column: h.names[h.date], Value: rawDate, Err: ErrBadDate}
	}

	return model.Sale{Product: product, Quantity: qty, Date: date}, nil
}

// CountProducts returns the number of distinct products in sales.
func CountProducts(sales []model.Sale) int {
	seen := make(map[string]struct{})
	for _, s := range sales {
		seen[s.Product] = struct{}{}
	}
	return len(seen)
}

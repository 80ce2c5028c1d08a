package source

import (
	"errors"
	"fmt"
	"strings"
)

// Row-level validation failures. A *RowError wraps exactly one of these.
var (
	ErrMissingValue  = errors.New("missing value")
	ErrBadQuantity   = errors.New("quantity must be a non-negative number")
	ErrBadDate       = errors.New("unrecognised date")
	ErrFieldCount    = errors.New("wrong number of fields")
	ErrMissingColumn = errors.New("required column not found in header")
	ErrNoInput       = errors.New("no CSV files found")
)

// DiscoveredFile is a sales CSV found during scanning.
type DiscoveredFile struct {
	Path string
	Name string // base name, for display
}

// Schema maps CSV header names onto sale fields and controls date parsing.
type Schema struct {
	ProductColumn  string
	QuantityColumn string
	DateColumn     string
	// DateLayouts are tried before the built-in layouts.
	DateLayouts []string
	// DayFirst reads ambiguous dates such as 03-04-2024 as 3 April.
	DayFirst bool
}

// DefaultSchema matches the grocery chain export.
func DefaultSchema() Schema {
	return Schema{
		ProductColumn:  "product_name",
		QuantityColumn: "quantity",
		DateColumn:     "transaction_date",
		DayFirst:       true,
	}
}

// RowError reports the first invalid row of a file.
type RowError struct {
	File   string
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
	}
	if e.Value == "" {
		return fmt.Sprintf("%s:%d: %s: %v", e.File, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("%s:%d: %s %q: %v", e.File, e.Line, e.Column, e.Value, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Key identifies the parse settings, so cached rows parsed under a different
// schema are not reused.
func (s Schema) Key() string {
	return fmt.Sprintf("%s|%s|%s|%t|%s",
		strings.ToLower(s.ProductColumn), strings.ToLower(s.QuantityColumn), strings.ToLower(s.DateColumn),
		s.DayFirst, strings.Join(s.DateLayouts, ";"))
}

package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/kirana/internal/model"
)

// Optional columns filled in by AppendSale when the header carries them.
const (
	TransactionIDColumn = "transaction_id"
	CreatedAtColumn     = "created_at"
)

// AppendSale validates s and appends it as one row of the CSV at path,
// following the column order of the existing header. A missing file is
// created with a minimal header. It returns the generated transaction ID.
func AppendSale(path string, schema Schema, s model.Sale, now time.Time) (string, error) {
	if strings.TrimSpace(s.Product) == "" {
		return "", &RowError{File: path, Column: schema.ProductColumn, Err: ErrMissingValue}
	}
	if s.Quantity.IsNegative() {
		return "", &RowError{File: path, Column: schema.QuantityColumn, Value: s.Quantity.String(), Err: ErrBadQuantity}
	}
	if s.Date.IsZero() {
		return "", &RowError{File: path, Column: schema.DateColumn, Err: ErrMissingValue}
	}

	names, needsNewline, err := readHeader(path)
	if errors.Is(err, os.ErrNotExist) {
		names = []string{schema.ProductColumn, schema.QuantityColumn, schema.DateColumn, TransactionIDColumn, CreatedAtColumn}
		if err := writeRows(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, false, names); err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	}

	h, err := resolveHeader(names, schema)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}

	id := "TXN_" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	row := make([]string, len(names))
	for i, name := range h.names {
		switch {
		case i == h.product:
			row[i] = strings.TrimSpace(s.Product)
		case i == h.quantity:
			row[i] = s.Quantity.String()
		case i == h.date:
			row[i] = FormatDate(s.Date, schema)
		case strings.EqualFold(name, TransactionIDColumn):
			row[i] = id
		case strings.EqualFold(name, CreatedAtColumn):
			row[i] = now.Format(time.RFC3339)
		}
	}

	if err := writeRows(path, os.O_APPEND|os.O_WRONLY, needsNewline, row); err != nil {
		return "", err
	}
	return id, nil
}

// readHeader returns the first record of path and whether the file lacks a
// trailing newline.
func readHeader(path string) ([]string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	rec, err := csv.NewReader(bytes.NewReader(data)).Read()
	if errors.Is(err, io.EOF) {
		return nil, false, fmt.Errorf("%s: %w", path, ErrMissingColumn)
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: reading header: %w", path, err)
	}
	return rec, len(data) > 0 && data[len(data)-1] != '\n', nil
}

func writeRows(path string, flag int, leadingNewline bool, rows ...[]string) error {
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	if leadingNewline {
		if _, err := f.WriteString("\n"); err != nil {
			_ = f.Close()
			return err
		}
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeCSV creates a temp CSV file and returns a DiscoveredFile for it.
func writeCSV(t *testing.T, lines ...string) DiscoveredFile {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sales.csv")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return DiscoveredFile{Path: path, Name: "sales.csv"}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestParseFile_Basic(t *testing.T) {
	df := writeCSV(t,
		"transaction_id,product_name,quantity,transaction_date,store",
		"1,Basmati Rice,3,05-03-2024,Pune",
		"2,Toor Dal,1.5,06/03/2024,Pune",
		"",
		"3,Basmati Rice,2,2024-03-07,Mumbai",
	)

	result := ParseFile(df, DefaultSchema())
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Rows != 3 {
		t.Fatalf("Rows = %d, want 3", result.Rows)
	}

	first := result.Sales[0]
	if first.Product != "Basmati Rice" {
		t.Errorf("Product = %q", first.Product)
	}
	if !first.Date.Equal(day(2024, time.March, 5)) {
		t.Errorf("Date = %v, want 5 March (day-first)", first.Date)
	}
	if first.Line != 2 {
		t.Errorf("Line = %d, want 2", first.Line)
	}
	if got := result.Sales[1].Quantity.String(); got != "1.5" {
		t.Errorf("Quantity = %s, want 1.5", got)
	}
	if result.Sales[2].Line != 5 {
		t.Errorf("Line = %d, want 5 (blank line counted)", result.Sales[2].Line)
	}
}

func TestParseFile_HeaderCaseInsensitive(t *testing.T) {
	df := writeCSV(t,
		"\ufeff Product_Name , QUANTITY,Transaction_Date",
		"Sugar,4,01-02-2024",
	)
	result := ParseFile(df, DefaultSchema())
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Sales) != 1 || result.Sales[0].Product != "Sugar" {
		t.Fatalf("sales = %+v", result.Sales)
	}
}

func TestParseFile_CustomSchema(t *testing.T) {
	df := writeCSV(t,
		"item,units,sold_on",
		"Tea,2,03/04/2024",
	)
	schema := Schema{ProductColumn: "item", QuantityColumn: "units", DateColumn: "sold_on"}
	result := ParseFile(df, schema)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if !result.Sales[0].Date.Equal(day(2024, time.March, 4)) {
		t.Errorf("Date = %v, want 4 March (month-first)", result.Sales[0].Date)
	}
}

func TestParseFile_RowErrors(t *testing.T) {
	tests := []struct {
		name   string
		row    string
		want   error
		column string
	}{
		{"missing product", ",3,05-03-2024", ErrMissingValue, "product_name"},
		{"missing quantity", "Rice,,05-03-2024", ErrMissingValue, "quantity"},
		{"text quantity", "Rice,three,05-03-2024", ErrBadQuantity, "quantity"},
		{"negative quantity", "Rice,-2,05-03-2024", ErrBadQuantity, "quantity"},
		{"missing date", "Rice,3,", ErrMissingValue, "transaction_date"},
		{"bad date", "Rice,3,yesterday", ErrBadDate, "transaction_date"},
		{"impossible date", "Rice,3,31-02-2024", ErrBadDate, "transaction_date"},
		{"field count", "Rice,3", ErrFieldCount, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			df := writeCSV(t,
				"product_name,quantity,transaction_date",
				"Salt,1,04-03-2024",
				tt.row,
				"Salt,1,06-03-2024",
			)
			result := ParseFile(df, DefaultSchema())
			if !errors.Is(result.Err, tt.want) {
				t.Fatalf("err = %v, want %v", result.Err, tt.want)
			}
			if result.Sales != nil {
				t.Errorf("partial result returned: %d sales", len(result.Sales))
			}

			var rowErr *RowError
			if !errors.As(result.Err, &rowErr) {
				t.Fatalf("err %T is not a *RowError", result.Err)
			}
			if rowErr.Line != 3 {
				t.Errorf("Line = %d, want 3", rowErr.Line)
			}
			if rowErr.Column != tt.column {
				t.Errorf("Column = %q, want %q", rowErr.Column, tt.column)
			}
		})
	}
}

func TestParseFile_MissingColumn(t *testing.T) {
	df := writeCSV(t, "product_name,qty,transaction_date", "Rice,1,01-01-2024")
	result := ParseFile(df, DefaultSchema())
	if !errors.Is(result.Err, ErrMissingColumn) {
		t.Fatalf("err = %v, want ErrMissingColumn", result.Err)
	}
	if !strings.Contains(result.Err.Error(), `"quantity"`) {
		t.Errorf("error should name the column: %v", result.Err)
	}
}

func TestParseFile_Empty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	result := ParseFile(DiscoveredFile{Path: path, Name: "empty.csv"}, DefaultSchema())
	if !errors.Is(result.Err, ErrMissingColumn) {
		t.Fatalf("err = %v, want ErrMissingColumn", result.Err)
	}
}

func TestParseFile_MissingFile(t *testing.T) {
	result := ParseFile(DiscoveredFile{Path: "/nonexistent/sales.csv"}, DefaultSchema())
	if !errors.Is(result.Err, os.ErrNotExist) {
		t.Fatalf("err = %v, want os.ErrNotExist", result.Err)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in       string
		dayFirst bool
		want     time.Time
		ok       bool
	}{
		{"05-03-2024", true, day(2024, time.March, 5), true},
		{"5/3/2024", true, day(2024, time.March, 5), true},
		{"05-03-2024", false, day(2024, time.May, 3), true},
		{"2024-03-05", true, day(2024, time.March, 5), true},
		{"2024-03-05 18:30:00", false, day(2024, time.March, 5), true},
		{"2024-03-05T23:30:00+05:30", true, day(2024, time.March, 5), true},
		{"05-03-2024 09:15", true, day(2024, time.March, 5), true},
		{"13/13/2024", true, time.Time{}, false},
		{"", true, time.Time{}, false},
		{"March 5", true, time.Time{}, false},
	}

	for _, tt := range tests {
		got, ok := ParseDate(tt.in, Schema{DayFirst: tt.dayFirst})
		if ok != tt.ok {
			t.Errorf("ParseDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseDate_CustomLayout(t *testing.T) {
	got, ok := ParseDate("20240305", Schema{DateLayouts: []string{"20060102"}})
	if !ok || !got.Equal(day(2024, time.March, 5)) {
		t.Fatalf("got %v, %v", got, ok)
	}
}

func FuzzParseDate(f *testing.F) {
	f.Add("05-03-2024")
	f.Add("2024-03-05T10:00:00Z")
	f.Add("")
	f.Add("99/99/9999")

	f.Fuzz(func(t *testing.T, in string) {
		got, ok := ParseDate(in, DefaultSchema())
		if !ok {
			return
		}
		if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 {
			t.Fatalf("ParseDate(%q) = %v, not midnight", in, got)
		}
	})
}

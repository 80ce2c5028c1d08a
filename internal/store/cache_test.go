package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/kirana/internal/model"
)

func openTemp(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache", "sales.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestSaveAndLoadFile(t *testing.T) {
	c := openTemp(t)
	sales := []model.Sale{
		{Product: "Rice", Quantity: decimal.RequireFromString("2.25"), Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local), Line: 2},
		{Product: "Dal", Quantity: decimal.NewFromInt(1), Date: time.Date(2024, 3, 6, 0, 0, 0, 0, time.Local), Line: 3},
	}
	info := FileInfo{MtimeNs: 42, SizeBytes: 100, SchemaKey: "v1"}

	if err := c.SaveFile("/data/a.csv", info, sales); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	tracked, err := c.GetTrackedFiles()
	if err != nil {
		t.Fatal(err)
	}
	if !tracked["/data/a.csv"].Matches(42, 100, "v1") {
		t.Errorf("tracked = %+v", tracked["/data/a.csv"])
	}
	if tracked["/data/a.csv"].Matches(42, 100, "v2") {
		t.Error("schema change must invalidate the entry")
	}

	got, err := c.LoadFileSales("/data/a.csv")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d sales, want 2", len(got))
	}
	if !got[0].Quantity.Equal(sales[0].Quantity) || !got[0].Date.Equal(sales[0].Date) || got[0].Line != 2 {
		t.Errorf("round trip mismatch: %+v", got[0])
	}
}

func TestSaveFile_Replaces(t *testing.T) {
	c := openTemp(t)
	one := []model.Sale{{Product: "Rice", Quantity: decimal.NewFromInt(1), Date: time.Now(), Line: 2}}

	for i := 0; i < 3; i++ {
		if err := c.SaveFile("/data/a.csv", FileInfo{MtimeNs: int64(i), SchemaKey: "v1"}, one); err != nil {
			t.Fatal(err)
		}
	}
	if n, _ := c.SaleCount(); n != 1 {
		t.Errorf("SaleCount = %d, want 1", n)
	}

	if err := c.DeleteFile("/data/a.csv"); err != nil {
		t.Fatal(err)
	}
	if n, _ := c.SaleCount(); n != 0 {
		t.Errorf("SaleCount after delete = %d", n)
	}
	tracked, _ := c.GetTrackedFiles()
	if len(tracked) != 0 {
		t.Errorf("tracked after delete = %v", tracked)
	}
}

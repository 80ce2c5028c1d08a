package web

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/kirana/internal/config"
	"github.com/theirongolddev/kirana/internal/forecast"
	"github.com/theirongolddev/kirana/internal/source"
)

// writeSales writes a CSV with one row per entry of perDay for each of the
// last days days, ending today.
func writeSales(t *testing.T, path string, days int, perDay map[string]int) {
	t.Helper()
	var b strings.Builder
	b.WriteString("transaction_id,product_name,quantity,transaction_date\n")
	id := 0
	today := time.Now()
	for back := 0; back < days; back++ {
		date := today.AddDate(0, 0, -back).Format(dateLayout)
		for product, qty := range perDay {
			id++
			fmt.Fprintf(&b, "%d,%s,%d,%s\n", id, product, qty, date)
		}
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
}

func testService(t *testing.T, path string) *Service {
	t.Helper()
	return New(Config{
		DataFile:   path,
		Schema:     source.DefaultSchema(),
		Days:       7,
		Stock:      config.StockLevels{Default: decimal.NewFromInt(35)},
		Thresholds: forecast.DefaultThresholds(),
		MinRecords: forecast.DefaultMinRecords,
	})
}

func TestNewDefaults(t *testing.T) {
	s := New(Config{})
	assert.Equal(t, 10*time.Second, s.cfg.Interval)
	assert.Equal(t, 200, s.cfg.EventsBuffer)
	assert.Equal(t, "127.0.0.1:8501", s.cfg.Addr)
	assert.Equal(t, forecast.DefaultHorizon, s.cfg.Horizon)
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{Sales: 10, Products: 3, Units: decimal.RequireFromString("100.5")}
	curr := Snapshot{Sales: 12, Products: 3, Units: decimal.RequireFromString("104")}

	delta := diffSnapshots(prev, curr)
	assert.Equal(t, 2, delta.Sales)
	assert.Equal(t, 0, delta.Products)
	assert.True(t, delta.Units.Equal(decimal.RequireFromString("3.5")), "units delta %s", delta.Units)
	assert.False(t, delta.isZero())
	assert.True(t, diffSnapshots(curr, curr).isZero())
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{EventsBuffer: 2})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	events := s.eventsCopy()
	require.Len(t, events, 2)
	assert.Equal(t, int64(2), events[0].ID)
	assert.Equal(t, int64(3), events[1].ID)
}

func TestPublishEventReachesSubscribers(t *testing.T) {
	s := New(Config{})
	ch := make(chan Event, 1)
	id := s.addSubscriber(ch)

	s.publishEvent(Event{ID: 7, Type: "sales_delta"})
	assert.Equal(t, int64(7), (<-ch).ID)

	s.removeSubscriber(id)
	assert.Equal(t, 0, s.status().SubscriberCount)
}

func TestPollOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.csv")
	writeSales(t, path, 10, map[string]int{"Rice": 10, "Dal": 1})
	s := testService(t, path)

	s.pollOnce()
	st := s.status()
	require.Empty(t, st.LastError)
	assert.Equal(t, 20, st.Summary.Sales)
	assert.Equal(t, 2, st.Summary.Products)
	assert.True(t, st.Summary.Units.Equal(decimal.NewFromInt(110)))
	// Rice: 35 units at 10/day is 3.5 days, low.
	assert.Equal(t, 1, st.Summary.Low)
	assert.Equal(t, 0, st.Summary.OrderNow)

	events := s.eventsCopy()
	require.Len(t, events, 1)
	assert.Equal(t, "snapshot", events[0].Type)

	// Unchanged file: no new event.
	s.pollOnce()
	assert.Len(t, s.eventsCopy(), 1)

	writeSales(t, path, 10, map[string]int{"Rice": 10, "Dal": 1, "Oil": 2})
	s.pollOnce()
	events = s.eventsCopy()
	require.Len(t, events, 2)
	assert.Equal(t, "sales_delta", events[1].Type)
	assert.Equal(t, 10, events[1].Delta.Sales)
	assert.Equal(t, 1, events[1].Delta.Products)
}

func TestPollOnceKeepsSalesOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.csv")
	writeSales(t, path, 3, map[string]int{"Rice": 1})
	s := testService(t, path)
	s.pollOnce()

	require.NoError(t, os.WriteFile(path, []byte("transaction_id,product_name,quantity,transaction_date\n1,Rice,lots,2024-01-01\n"), 0o600))
	s.pollOnce()

	sales, err := s.currentSales()
	require.NoError(t, err)
	assert.Len(t, sales, 3)
	assert.Contains(t, s.status().LastError, "quantity")
}

func TestCurrentSalesBeforeLoad(t *testing.T) {
	s := testService(t, filepath.Join(t.TempDir(), "missing.csv"))
	_, err := s.currentSales()
	assert.ErrorIs(t, err, errNotLoaded)

	s.pollOnce()
	_, err = s.currentSales()
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist) || errors.Is(err, source.ErrNoInput), "got %v", err)
}

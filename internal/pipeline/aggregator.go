// Package pipeline orchestrates sales loading, caching, and aggregation.
package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/kirana/internal/forecast"
	"github.com/theirongolddev/kirana/internal/model"
)

const dayKey = "2006-01-02"

// StartOfDay truncates t to local midnight of its calendar day.
func StartOfDay(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// WindowBounds returns the first and last day of a trailing window of days
// calendar days ending on asOf, both inclusive.
func WindowBounds(asOf time.Time, days int) (since, until time.Time, err error) {
	if days <= 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w (got %d)", forecast.ErrInvalidWindow, days)
	}
	until = StartOfDay(asOf)
	return until.AddDate(0, 0, -(days - 1)), until, nil
}

// AggregateWindow totals each product's sales inside the trailing window.
// Every product present in sales is reported; products without sales in the
// window carry a zero total.
func AggregateWindow(sales []model.Sale, asOf time.Time, days int) (map[string]model.ProductSales, error) {
	since, until, err := WindowBounds(asOf, days)
	if err != nil {
		return nil, err
	}

	out := make(map[string]model.ProductSales)
	saleDays := make(map[string]map[string]struct{})
	for _, s := range sales {
		ps, ok := out[s.Product]
		if !ok {
			ps = model.ProductSales{Product: s.Product, WindowDays: days, Since: since, Until: until}
			saleDays[s.Product] = make(map[string]struct{})
		}
		if inRange(s.Date, since, until) {
			if s.Quantity.IsNegative() {
				return nil, fmt.Errorf("%s line %d: %w", s.Product, s.Line, forecast.ErrNegativeQuantity)
			}
			ps.Total = ps.Total.Add(s.Quantity)
			saleDays[s.Product][s.Date.Format(dayKey)] = struct{}{}
		}
		out[s.Product] = ps
	}
	for name, ps := range out {
		ps.SaleDays = len(saleDays[name])
		out[name] = ps
	}
	return out, nil
}

// Aggregate computes summary statistics for sales within [since, until].
func Aggregate(sales []model.Sale, since, until time.Time) model.SummaryStats {
	filtered := FilterByTime(sales, since, until)

	var stats model.SummaryStats
	products := make(map[string]struct{})
	activeDays := make(map[string]struct{})

	for _, s := range filtered {
		stats.Transactions++
		stats.TotalQuantity = stats.TotalQuantity.Add(s.Quantity)
		products[s.Product] = struct{}{}
		activeDays[s.Date.Format(dayKey)] = struct{}{}

		if stats.FirstSale.IsZero() || s.Date.Before(stats.FirstSale) {
			stats.FirstSale = s.Date
		}
		if s.Date.After(stats.LastSale) {
			stats.LastSale = s.Date
		}
	}

	stats.Products = len(products)
	stats.ActiveDays = len(activeDays)
	if stats.ActiveDays > 0 {
		days := decimal.NewFromInt(int64(stats.ActiveDays))
		stats.QuantityPerDay = stats.TotalQuantity.Div(days)
		stats.TransactionsPerDay = float64(stats.Transactions) / float64(stats.ActiveDays)
	}
	return stats
}

// TopProducts ranks products by quantity sold within [since, until],
// highest first with ties broken by name. n <= 0 returns every product.
func TopProducts(sales []model.Sale, since, until time.Time, n int) []model.ProductTotal {
	filtered := FilterByTime(sales, since, until)

	byProduct := make(map[string]*model.ProductTotal)
	total := decimal.Zero
	for _, s := range filtered {
		pt, ok := byProduct[s.Product]
		if !ok {
			pt = &model.ProductTotal{Product: s.Product}
			byProduct[s.Product] = pt
		}
		pt.Quantity = pt.Quantity.Add(s.Quantity)
		pt.Transactions++
		total = total.Add(s.Quantity)
	}

	out := make([]model.ProductTotal, 0, len(byProduct))
	for _, pt := range byProduct {
		if total.IsPositive() {
			pt.SharePercent = pt.Quantity.Div(total).InexactFloat64() * 100
		}
		out = append(out, *pt)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Quantity.Cmp(out[j].Quantity); c != 0 {
			return c > 0
		}
		return out[i].Product < out[j].Product
	})

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// AggregateDays computes per-day totals. Every day in the range is present so
// charts show gaps as zeros. Zero bounds fall back to the data's own range.
func AggregateDays(sales []model.Sale, since, until time.Time) []model.DailySales {
	filtered := FilterByTime(sales, since, until)
	since, until = resolveBounds(filtered, since, until)
	if since.IsZero() {
		return nil
	}

	dayMap := make(map[string]*model.DailySales)
	for _, s := range filtered {
		k := s.Date.Format(dayKey)
		ds, ok := dayMap[k]
		if !ok {
			ds = &model.DailySales{Date: s.Date}
			dayMap[k] = ds
		}
		ds.Quantity = ds.Quantity.Add(s.Quantity)
		ds.Transactions++
	}

	for day := since; !day.After(until); day = day.AddDate(0, 0, 1) {
		k := day.Format(dayKey)
		if _, ok := dayMap[k]; !ok {
			dayMap[k] = &model.DailySales{Date: day}
		}
	}

	// Most recent first
	days := make([]model.DailySales, 0, len(dayMap))
	for _, ds := range dayMap {
		days = append(days, *ds)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.After(days[j].Date)
	})
	return days
}

// AggregateWeeks groups sales into weeks ending on Sunday, oldest first.
// Weeks without sales inside the range are reported with zero totals.
func AggregateWeeks(sales []model.Sale, since, until time.Time) []model.WeeklySales {
	filtered := FilterByTime(sales, since, until)
	since, until = resolveBounds(filtered, since, until)
	if since.IsZero() {
		return nil
	}

	weekMap := make(map[string]*model.WeeklySales)
	for _, s := range filtered {
		end := WeekEnd(s.Date)
		k := end.Format(dayKey)
		ws, ok := weekMap[k]
		if !ok {
			ws = &model.WeeklySales{WeekStart: end.AddDate(0, 0, -6), WeekEnd: end}
			weekMap[k] = ws
		}
		ws.Quantity = ws.Quantity.Add(s.Quantity)
		ws.Transactions++
	}

	for end := WeekEnd(since); !end.After(WeekEnd(until)); end = end.AddDate(0, 0, 7) {
		k := end.Format(dayKey)
		if _, ok := weekMap[k]; !ok {
			weekMap[k] = &model.WeeklySales{WeekStart: end.AddDate(0, 0, -6), WeekEnd: end}
		}
	}

	weeks := make([]model.WeeklySales, 0, len(weekMap))
	for _, ws := range weekMap {
		weeks = append(weeks, *ws)
	}
	sort.Slice(weeks, func(i, j int) bool {
		return weeks[i].WeekEnd.Before(weeks[j].WeekEnd)
	})
	return weeks
}

// WeekEnd returns the Sunday that closes the week containing t.
func WeekEnd(t time.Time) time.Time {
	d := StartOfDay(t)
	return d.AddDate(0, 0, (7-int(d.Weekday()))%7)
}

// Products returns the sorted distinct product names.
func Products(sales []model.Sale) []string {
	seen := make(map[string]struct{})
	for _, s := range sales {
		seen[s.Product] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FindProduct resolves a product name case-insensitively.
func FindProduct(sales []model.Sale, name string) (string, bool) {
	for _, s := range sales {
		if strings.EqualFold(s.Product, name) {
			return s.Product, true
		}
	}
	return "", false
}

// LatestDate returns the most recent sale date, or zero when sales is empty.
func LatestDate(sales []model.Sale) time.Time {
	var latest time.Time
	for _, s := range sales {
		if s.Date.After(latest) {
			latest = s.Date
		}
	}
	return latest
}

// ResolveAsOf turns an as-of setting into the last day of the analysis
// window. Empty and "today" mean the current day; "latest" means the most
// recent sale date, or today when there are no sales.
func ResolveAsOf(value string, sales []model.Sale, now time.Time) (time.Time, error) {
	switch v := strings.ToLower(strings.TrimSpace(value)); v {
	case "", "today":
		return StartOfDay(now), nil
	case "latest":
		if latest := LatestDate(sales); !latest.IsZero() {
			return latest, nil
		}
		return StartOfDay(now), nil
	default:
		t, err := time.ParseInLocation(dayKey, v, time.Local)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: as-of %q must be YYYY-MM-DD, today or latest", forecast.ErrConfig, value)
		}
		return t, nil
	}
}

// FilterByTime returns sales whose day falls within [since, until].
// A zero bound leaves that side open.
func FilterByTime(sales []model.Sale, since, until time.Time) []model.Sale {
	if since.IsZero() && until.IsZero() {
		return sales
	}
	if !since.IsZero() {
		since = StartOfDay(since)
	}
	if !until.IsZero() {
		until = StartOfDay(until)
	}

	var result []model.Sale
	for _, s := range sales {
		if inRange(s.Date, since, until) {
			result = append(result, s)
		}
	}
	return result
}

// FilterByProduct returns sales whose product contains the substring.
func FilterByProduct(sales []model.Sale, product string) []model.Sale {
	if product == "" {
		return sales
	}
	var result []model.Sale
	for _, s := range sales {
		if containsIgnoreCase(s.Product, product) {
			result = append(result, s)
		}
	}
	return result
}

// FilterExact returns the sales of one product, matched exactly.
func FilterExact(sales []model.Sale, product string) []model.Sale {
	var result []model.Sale
	for _, s := range sales {
		if s.Product == product {
			result = append(result, s)
		}
	}
	return result
}

func inRange(day, since, until time.Time) bool {
	if !since.IsZero() && day.Before(since) {
		return false
	}
	if !until.IsZero() && day.After(until) {
		return false
	}
	return true
}

func resolveBounds(sales []model.Sale, since, until time.Time) (time.Time, time.Time) {
	if !since.IsZero() {
		since = StartOfDay(since)
	}
	if !until.IsZero() {
		until = StartOfDay(until)
	}
	for _, s := range sales {
		if since.IsZero() || s.Date.Before(since) {
			since = s.Date
		}
		if until.IsZero() || s.Date.After(until) {
			until = s.Date
		}
	}
	return since, until
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

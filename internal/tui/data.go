package tui

import (
	"time"

	"github.com/theirongolddev/kirana/internal/forecast"
	"github.com/theirongolddev/kirana/internal/model"
	"github.com/theirongolddev/kirana/internal/pipeline"
)

// trendWeeks is how many weeks the Trends tab covers.
const trendWeeks = 12

// dashboardData holds everything the tabs render for the current window
// and search. It is rebuilt by recompute, never by the render functions.
type dashboardData struct {
	filtered    []model.Sale
	since       time.Time
	until       time.Time
	today       time.Time
	stats       model.SummaryStats
	prevStats   model.SummaryStats
	daily       []model.DailySales
	weekly      []model.WeeklySales
	top         []model.ProductTotal
	summaries   map[string]model.ProductSales
	projections []model.StockProjection
	focus       string // product shown on the Forecast tab
	err         error
}

func (a *App) recompute() {
	focus := a.view.focus
	a.view = buildDashboard(a.sales, a.opts, a.query, time.Now())
	if focus != "" {
		if name, ok := pipeline.FindProduct(a.view.filtered, focus); ok {
			a.view.focus = name
		}
	}
	if a.view.focus == "" && len(a.view.top) > 0 {
		a.view.focus = a.view.top[0].Product
	}
	a.cursor = max(0, min(a.cursor, a.listLen()-1))
}

// buildDashboard aggregates sales for the configured window ending on the
// as-of day. A bad window or as-of value is reported in err.
func buildDashboard(sales []model.Sale, opts Options, query string, now time.Time) dashboardData {
	d := dashboardData{
		filtered: pipeline.FilterByProduct(sales, query),
		today:    pipeline.StartOfDay(now),
	}

	asOf, err := pipeline.ResolveAsOf(opts.AsOf, sales, now)
	if err != nil {
		d.err = err
		return d
	}
	d.since, d.until, err = pipeline.WindowBounds(asOf, opts.Days)
	if err != nil {
		d.err = err
		return d
	}

	d.stats = pipeline.Aggregate(d.filtered, d.since, d.until)
	prevUntil := d.since.AddDate(0, 0, -1)
	d.prevStats = pipeline.Aggregate(d.filtered, prevUntil.AddDate(0, 0, -(opts.Days-1)), prevUntil)
	d.daily = pipeline.AggregateDays(d.filtered, d.since, d.until)
	d.weekly = pipeline.AggregateWeeks(d.filtered, d.until.AddDate(0, 0, -(trendWeeks*7-1)), d.until)
	d.top = pipeline.TopProducts(d.filtered, d.since, d.until, 0)

	d.summaries, err = pipeline.AggregateWindow(d.filtered, d.until, opts.Days)
	if err != nil {
		d.err = err
		return d
	}
	d.projections, err = forecast.ProjectAll(d.summaries, opts.Stock.For, d.today, opts.Thresholds)
	if err != nil {
		d.err = err
	}
	return d
}

// statusCounts tallies projections per alert level.
func statusCounts(projections []model.StockProjection) map[model.StockStatus]int {
	counts := make(map[model.StockStatus]int, 4)
	for _, p := range projections {
		counts[p.Status]++
	}
	return counts
}

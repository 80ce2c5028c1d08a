package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/kirana/internal/forecast"
	"github.com/theirongolddev/kirana/internal/model"
	"github.com/theirongolddev/kirana/internal/tui/components"
	"github.com/theirongolddev/kirana/internal/tui/theme"
)

// renderForecastTab projects demand for the focused product with a linear
// trend over its full sales history.
func (a App) renderForecastTab(cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	product := a.view.focus
	if product == "" {
		return components.ContentCard("Forecast", muted.Render("No products to forecast"), cw)
	}

	fc, err := forecast.LinearForecast(a.view.filtered, product, a.opts.Horizon, a.opts.MinRecords)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, forecast.ErrInsufficientHistory) {
			msg = fmt.Sprintf("Not enough history to forecast %s: %s.", product, err)
		}
		return components.ContentCard("Forecast: "+product, muted.Render(msg)+"\n\n"+
			muted.Render("Pick another product on Top Sellers or Restock and press enter."), cw)
	}

	values := make([]float64, len(fc.Points))
	dates := make([]time.Time, len(fc.Points))
	for i, p := range fc.Points {
		values[i] = p.Predicted
		dates[i] = p.Date
	}
	labels := chartDateLabels(dates)

	metrics := []components.Metric{
		{Label: fmt.Sprintf("Needed next %dd", len(fc.Points)), Value: fmt.Sprintf("%.1f", fc.TotalNeeded)},
		{Label: "Trend", Value: fmt.Sprintf("%+.2f/day", fc.Slope), Color: trendColor(fc.Slope)},
		{Label: "Fit (R²)", Value: fmt.Sprintf("%.2f", fc.R2), Note: fmt.Sprintf("%d sale records", fc.Records)},
		a.coverageMetric(product, fc),
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow(metrics, cw))
	b.WriteString("\n")

	chartCard := func(w int) string {
		return components.ContentCard("Predicted units per day: "+product,
			components.BarChart(values, labels, t.Magenta, components.CardInnerWidth(w), 8), w)
	}
	if a.isCompactLayout() {
		b.WriteString(chartCard(cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Daily forecast", forecastTable(fc), cw))
	} else {
		halves := components.LayoutRow(cw, 2)
		b.WriteString(components.CardRow([]string{
			chartCard(halves[0]),
			components.ContentCard("Daily forecast", forecastTable(fc), halves[1]),
		}))
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Background).Render(
		" Least-squares line over daily totals. Negative predictions are clamped to 0."))
	return b.String()
}

// coverageMetric compares stock on hand with the forecast demand.
func (a App) coverageMetric(product string, fc model.Forecast) components.Metric {
	t := theme.Active
	stock := a.opts.Stock.For(product).InexactFloat64()
	m := components.Metric{Label: "Stock on hand", Value: fmt.Sprintf("%.1f", stock)}
	switch {
	case fc.TotalNeeded <= 0:
		m.Note = "no demand forecast"
	case stock >= fc.TotalNeeded:
		m.Note = "covers the forecast"
		m.Color = t.Green
	default:
		m.Note = fmt.Sprintf("short by %.1f", fc.TotalNeeded-stock)
		m.Color = t.Red
	}
	return m
}

func forecastTable(fc model.Forecast) string {
	t := theme.Active
	header := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	row := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	b.WriteString(header.Render(fmt.Sprintf("%-16s %10s", "Date", "Units")))
	for _, p := range fc.Points {
		b.WriteString("\n")
		b.WriteString(row.Render(fmt.Sprintf("%-16s %10.1f", p.Date.Format("Mon 02 Jan"), p.Predicted)))
	}
	b.WriteString("\n")
	b.WriteString(header.Render(fmt.Sprintf("%-16s %10.1f", "Total", fc.TotalNeeded)))
	return b.String()
}

func trendColor(slope float64) lipgloss.Color {
	t := theme.Active
	switch {
	case slope > 0:
		return t.Green
	case slope < 0:
		return t.Red
	default:
		return t.TextPrimary
	}
}

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/kirana/internal/cli"
	"github.com/theirongolddev/kirana/internal/model"
	"github.com/theirongolddev/kirana/internal/tui/components"
	"github.com/theirongolddev/kirana/internal/tui/theme"
)

const overviewTopN = 5

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	v := a.view
	var b strings.Builder

	counts := statusCounts(v.projections)
	alertColor := t.Green
	switch {
	case counts[model.StatusOrderNow] > 0:
		alertColor = t.Red
	case counts[model.StatusLow] > 0:
		alertColor = t.Yellow
	}

	metrics := []components.Metric{
		{Label: "Units sold", Value: cli.FormatQuantity(v.stats.TotalQuantity),
			Note: v.stats.QuantityPerDay.StringFixed(1) + "/day " + deltaNote(v.stats.TotalQuantity, v.prevStats.TotalQuantity)},
		{Label: "Transactions", Value: cli.FormatNumber(int64(v.stats.Transactions)),
			Note: fmt.Sprintf("%.1f/day", v.stats.TransactionsPerDay)},
		{Label: "Products", Value: cli.FormatNumber(int64(v.stats.Products)),
			Note: fmt.Sprintf("%d active days", v.stats.ActiveDays)},
		{Label: "Reorder", Value: fmt.Sprintf("%d", counts[model.StatusOrderNow]+counts[model.StatusLow]),
			Note: fmt.Sprintf("%d order now, %d low", counts[model.StatusOrderNow], counts[model.StatusLow]), Color: alertColor},
	}
	b.WriteString(components.MetricCardRow(metrics, cw))
	b.WriteString("\n")

	if len(v.daily) > 0 {
		values, dates := dailySeries(v.daily)
		b.WriteString(components.ContentCard(
			fmt.Sprintf("Units Sold per Day (%dd)", a.opts.Days),
			components.BarChart(values, chartDateLabels(dates), t.Blue, components.CardInnerWidth(cw), 10),
			cw,
		))
		b.WriteString("\n")
	}

	topCard := a.overviewTopCard(cw)
	alertCard := a.overviewAlertCard(cw)
	if a.isCompactLayout() {
		b.WriteString(components.ContentCard("Top Sellers", topCard, cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Restock Alerts", alertCard, cw))
	} else {
		halves := components.LayoutRow(cw, 2)
		b.WriteString(components.CardRow([]string{
			components.ContentCard("Top Sellers", topCard, halves[0]),
			components.ContentCard("Restock Alerts", alertCard, halves[1]),
		}))
	}
	return b.String()
}

func (a App) overviewTopCard(cw int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(cw / 2)
	if a.isCompactLayout() {
		innerW = components.CardInnerWidth(cw)
	}
	top := a.view.top
	if len(top) > overviewTopN {
		top = top[:overviewTopN]
	}
	if len(top) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render("No sales in this window")
	}

	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	numStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	nameW := max(10, innerW/3)
	barW := max(1, innerW-nameW-12)
	peak := top[0].Quantity.InexactFloat64()

	var body strings.Builder
	for i, pt := range top {
		if i > 0 {
			body.WriteString("\n")
		}
		body.WriteString(nameStyle.Render(fmt.Sprintf("%-*s", nameW, truncStr(pt.Product, nameW))))
		body.WriteString(numStyle.Render(fmt.Sprintf(" %9s ", cli.FormatQuantity(pt.Quantity))))
		body.WriteString(components.HBar(pt.Quantity.InexactFloat64(), peak, barW, t.Accent))
	}
	return body.String()
}

func (a App) overviewAlertCard(cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	name := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var urgent []model.StockProjection
	for _, p := range a.view.projections {
		if p.Status == model.StatusOrderNow || p.Status == model.StatusLow {
			urgent = append(urgent, p)
		}
	}
	if len(urgent) == 0 {
		return lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface).Render(fmt.Sprintf("Every product has at least %d days of stock", a.opts.Thresholds.LowDays))
	}
	if len(urgent) > overviewTopN {
		urgent = urgent[:overviewTopN]
	}

	nameW := max(10, components.CardInnerWidth(cw/2)/3)
	var body strings.Builder
	for i, p := range urgent {
		if i > 0 {
			body.WriteString("\n")
		}
		status := lipgloss.NewStyle().Foreground(t.StatusColor(p.Status)).Background(t.Surface).Bold(true)
		body.WriteString(name.Render(fmt.Sprintf("%-*s", nameW, truncStr(p.Product, nameW))))
		body.WriteString(status.Render(fmt.Sprintf(" %-9s", cli.FormatStatus(p.Status))))
		body.WriteString(muted.Render(" " + cli.FormatDaysLeft(p) + " left"))
	}
	return body.String()
}

// dailySeries converts newest-first daily totals into oldest-first chart data.
func dailySeries(days []model.DailySales) ([]float64, []time.Time) {
	n := len(days)
	values := make([]float64, n)
	dates := make([]time.Time, n)
	for i, d := range days {
		values[n-1-i] = d.Quantity.InexactFloat64()
		dates[n-1-i] = d.Date
	}
	return values, dates
}

// deltaNote compares the window with the one before it.
func deltaNote(cur, prev decimal.Decimal) string {
	if !prev.IsPositive() {
		return ""
	}
	pct := cur.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).InexactFloat64()
	return fmt.Sprintf("(%+.0f%%)", pct)
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/kirana/internal/cli"
	"github.com/theirongolddev/kirana/internal/tui/components"
	"github.com/theirongolddev/kirana/internal/tui/theme"
)

func (a App) renderTrendsTab(cw int) string {
	t := theme.Active
	weeks := a.view.weekly
	if len(weeks) == 0 {
		return components.ContentCard("Weekly Trend",
			lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render("No sales in the last 12 weeks"), cw)
	}

	values := make([]float64, len(weeks))
	labels := make([]string, len(weeks))
	for i, w := range weeks {
		values[i] = w.Quantity.InexactFloat64()
		labels[i] = w.WeekEnd.Format("02 Jan")
	}

	var b strings.Builder
	b.WriteString(components.ContentCard(
		fmt.Sprintf("Units Sold per Week (weeks ending Sunday, to %s)", cli.FormatDate(a.view.until)),
		components.BarChart(values, labels, t.Accent, components.CardInnerWidth(cw), 10),
		cw,
	))
	b.WriteString("\n")

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	upStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)
	downStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var table strings.Builder
	table.WriteString(mutedStyle.Render("Trend ") + components.Sparkline(values, t.Accent))
	table.WriteString("\n\n")
	table.WriteString(headerStyle.Render(fmt.Sprintf("%-12s %-12s %10s %8s %8s", "Week start", "Week end", "Units", "Sales", "Change")))
	// Newest week first, as in the daily table.
	for i := len(weeks) - 1; i >= 0; i-- {
		w := weeks[i]
		table.WriteString("\n")
		table.WriteString(rowStyle.Render(fmt.Sprintf("%-12s %-12s %10s %8d ",
			w.WeekStart.Format("02 Jan 2006"), w.WeekEnd.Format("02 Jan 2006"),
			cli.FormatQuantity(w.Quantity), w.Transactions)))
		if i == 0 || !weeks[i-1].Quantity.IsPositive() {
			table.WriteString(mutedStyle.Render(fmt.Sprintf("%8s", "-")))
			continue
		}
		prev := weeks[i-1].Quantity
		pct := w.Quantity.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).InexactFloat64()
		style := upStyle
		if pct < 0 {
			style = downStyle
		}
		table.WriteString(style.Render(fmt.Sprintf("%+7.0f%%", pct)))
	}
	b.WriteString(components.ContentCard("Weekly Totals", table.String(), cw))
	return b.String()
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/kirana/internal/cli"
	"github.com/theirongolddev/kirana/internal/model"
	"github.com/theirongolddev/kirana/internal/tui/components"
	"github.com/theirongolddev/kirana/internal/tui/theme"
)

func (a App) renderRestockTab(cw, h int) string {
	t := theme.Active
	projections := a.view.projections
	if len(projections) == 0 {
		return components.ContentCard("Restock",
			lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render("No products found"), cw)
	}

	counts := statusCounts(projections)
	metrics := []components.Metric{
		{Label: "Order now", Value: cli.FormatNumber(int64(counts[model.StatusOrderNow])),
			Note: fmt.Sprintf("under %d days", a.opts.Thresholds.OrderNowDays), Color: t.Red},
		{Label: "Low", Value: cli.FormatNumber(int64(counts[model.StatusLow])),
			Note: fmt.Sprintf("under %d days", a.opts.Thresholds.LowDays), Color: t.Yellow},
		{Label: "Healthy", Value: cli.FormatNumber(int64(counts[model.StatusHealthy])), Color: t.Green},
		{Label: "No sales", Value: cli.FormatNumber(int64(counts[model.StatusNoDepletion])),
			Note: "no depletion predicted"},
	}

	innerW := components.CardInnerWidth(cw)
	compact := a.isCompactLayout()
	coverW := 12
	nameW := max(10, innerW-97)
	if compact {
		nameW = max(10, innerW-54)
	}

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)
	space := lipgloss.NewStyle().Background(t.Surface)

	var body strings.Builder
	header := fmt.Sprintf("%-*s %9s %11s %9s %10s", nameW, "Product", "Sold", "Rate", "Stock", "Days left")
	if compact {
		header += " Status"
	} else {
		header += fmt.Sprintf("  %-*s  %-28s %s", coverW, "Coverage", "Runs out", "Status")
	}
	body.WriteString(headerStyle.Render(header))

	metricRow := components.MetricCardRow(metrics, cw)
	visible := max(3, h-lipgloss.Height(metricRow)-5) // border, title, header, note
	offset := 0
	if a.cursor >= visible {
		offset = a.cursor - visible + 1
	}
	end := min(len(projections), offset+visible)
	horizon := float64(max(1, a.opts.Thresholds.LowDays*2))

	for i := offset; i < end; i++ {
		p := projections[i]
		style := rowStyle
		if i == a.cursor {
			style = selStyle
		}
		statusStyle := lipgloss.NewStyle().Foreground(t.StatusColor(p.Status)).Background(t.Surface).Bold(true)

		cover := 1.0
		if p.Depletes {
			cover = p.DaysLeftExact.InexactFloat64() / horizon
		}

		body.WriteString("\n")
		body.WriteString(style.Render(fmt.Sprintf("%-*s %9s %11s %9s %10s",
			nameW, truncStr(p.Product, nameW),
			cli.FormatQuantity(a.view.summaries[p.Product].Total),
			cli.FormatRate(p.Rate),
			cli.FormatQuantity(p.Stock),
			cli.FormatDaysLeft(p))))
		if compact {
			body.WriteString(space.Render(" "))
		} else {
			body.WriteString(space.Render("  "))
			body.WriteString(components.CoverageBar(cover, p.Status, coverW))
			body.WriteString(style.Render(fmt.Sprintf("  %-28s ", truncStr(cli.FormatDepletion(p, a.view.today), 28))))
		}
		body.WriteString(statusStyle.Render(cli.FormatStatus(p.Status)))
	}

	note := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render(
		fmt.Sprintf("Days left = floor(stock / average daily sales over %d days). Counted from today.", a.opts.Days))

	return metricRow + "\n" +
		components.ContentCard(fmt.Sprintf("Stock Depletion (%dd window)", a.opts.Days), body.String()+"\n"+note, cw)
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/kirana/internal/cli"
	"github.com/theirongolddev/kirana/internal/forecast"
	"github.com/theirongolddev/kirana/internal/pipeline"
	"github.com/theirongolddev/kirana/internal/tui/components"
	"github.com/theirongolddev/kirana/internal/tui/theme"
)

// renderTopTab shows the ranked product list with the selected product's
// daily history beside it.
func (a App) renderTopTab(cw, h int) string {
	t := theme.Active
	top := a.view.top
	if len(top) == 0 {
		return components.ContentCard("Top Sellers",
			lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render("No sales in this window"), cw)
	}

	leftW := max(40, cw/2)
	if a.isCompactLayout() {
		leftW = cw
	}
	innerW := components.CardInnerWidth(leftW)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	nameW := max(10, innerW-30)
	var body strings.Builder
	body.WriteString(headerStyle.Render(fmt.Sprintf("%3s %-*s %10s %6s %7s", "#", nameW, "Product", "Units", "Sales", "Share")))

	visible := max(3, h-5) // border, title, header, hint
	offset := 0
	if a.cursor >= visible {
		offset = a.cursor - visible + 1
	}
	end := min(len(top), offset+visible)
	for i := offset; i < end; i++ {
		pt := top[i]
		style := rowStyle
		if i == a.cursor {
			style = selStyle
		}
		body.WriteString("\n")
		body.WriteString(style.Render(fmt.Sprintf("%3d %-*s %10s %6d %7s",
			i+1, nameW, truncStr(pt.Product, nameW), cli.FormatQuantity(pt.Quantity),
			pt.Transactions, cli.FormatPercent(pt.SharePercent))))
	}
	body.WriteString("\n")
	body.WriteString(mutedStyle.Render(fmt.Sprintf("%d of %d  ·  enter: forecast", a.cursor+1, len(top))))

	list := components.ContentCard(fmt.Sprintf("Top Sellers (%dd)", a.opts.Days), body.String(), leftW)
	if a.isCompactLayout() {
		return list
	}
	return components.CardRow([]string{list, a.productDetailCard(cw - leftW)})
}

// productDetailCard summarises the product under the cursor.
func (a App) productDetailCard(w int) string {
	t := theme.Active
	product := a.selectedProduct()
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)

	days := pipeline.AggregateDays(pipeline.FilterExact(a.view.filtered, product), a.view.since, a.view.until)
	values, _ := dailySeries(days)

	line := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-14s", label)) + valueStyle.Render(value) + "\n"
	}

	var b strings.Builder
	ps := a.view.summaries[product]
	b.WriteString(line("Sold", cli.FormatQuantity(ps.Total)))
	b.WriteString(line("Days with sales", fmt.Sprintf("%d of %d", ps.SaleDays, ps.WindowDays)))
	if rate, err := forecast.Rate(ps); err == nil {
		b.WriteString(line("Burn rate", cli.FormatRate(rate)))
	}
	for _, p := range a.view.projections {
		if p.Product == product {
			b.WriteString(line("Stock", cli.FormatQuantity(p.Stock)))
			b.WriteString(line("Runs out", cli.FormatDepletion(p, a.view.today)))
			break
		}
	}
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Daily units"))
	b.WriteString("\n")
	b.WriteString(components.BarChart(values, nil, t.Accent, components.CardInnerWidth(w), 6))

	return components.ContentCard(product, b.String(), w)
}

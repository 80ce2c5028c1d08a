// Package components provides the widgets the kirana dashboard is built from.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/kirana/internal/tui/theme"
)

// Metric is one headline number shown in a MetricCard.
type Metric struct {
	Label string
	Value string
	Note  string         // optional second line, e.g. a per-day rate
	Color lipgloss.Color // value colour; empty means TextPrimary
}

// LayoutRow distributes totalWidth into n widths that sum to exactly totalWidth.
// First items absorb the remainder from integer division.
func LayoutRow(totalWidth, n int) []int {
	if n <= 0 {
		return nil
	}
	base := totalWidth / n
	remainder := totalWidth % n
	widths := make([]int, n)
	for i := range widths {
		widths[i] = base
		if i < remainder {
			widths[i]++
		}
	}
	return widths
}

func cardStyle(outerWidth int) lipgloss.Style {
	t := theme.Active
	contentWidth := outerWidth - 2 // border
	if contentWidth < 10 {
		contentWidth = 10
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		BorderBackground(t.Background).
		Background(t.Surface).
		Width(contentWidth).
		Padding(0, 1)
}

// MetricCard renders one metric. outerWidth includes the border.
func MetricCard(m Metric, outerWidth int) string {
	t := theme.Active

	valueColor := m.Color
	if valueColor == "" {
		valueColor = t.TextPrimary
	}
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(valueColor).Background(t.Surface).Bold(true)
	noteStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	content := labelStyle.Render(m.Label) + "\n" + valueStyle.Render(m.Value)
	if m.Note != "" {
		content += "\n" + noteStyle.Render(m.Note)
	}
	return cardStyle(outerWidth).Render(content)
}

// MetricCardRow renders metrics side by side across totalWidth.
func MetricCardRow(metrics []Metric, totalWidth int) string {
	if len(metrics) == 0 {
		return ""
	}
	widths := LayoutRow(totalWidth, len(metrics))
	cards := make([]string, len(metrics))
	for i, m := range metrics {
		cards[i] = MetricCard(m, widths[i])
	}
	return CardRow(cards)
}

// ContentCard renders a bordered card with an optional title.
// outerWidth controls the total rendered width including border.
func ContentCard(title, body string, outerWidth int) string {
	t := theme.Active
	titleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Bold(true)

	content := body
	if title != "" {
		content = titleStyle.Render(title) + "\n" + body
	}
	return cardStyle(outerWidth).Render(content)
}

// CardRow joins cards horizontally. Shorter cards are padded with
// background-coloured lines so the row has no unstyled gaps.
func CardRow(cards []string) string {
	var nonEmpty []string
	for _, c := range cards {
		if c != "" {
			nonEmpty = append(nonEmpty, c)
		}
	}
	if len(nonEmpty) == 0 {
		return ""
	}

	tallest := 0
	for _, c := range nonEmpty {
		if h := lipgloss.Height(c); h > tallest {
			tallest = h
		}
	}

	fill := lipgloss.NewStyle().Background(theme.Active.Background)
	for i, c := range nonEmpty {
		h := lipgloss.Height(c)
		if h == tallest {
			continue
		}
		blank := fill.Render(strings.Repeat(" ", lipgloss.Width(c)))
		nonEmpty[i] = c + strings.Repeat("\n"+blank, tallest-h)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, nonEmpty...)
}

// CardInnerWidth returns the usable text width inside a ContentCard
// given its outer width (subtracts border + padding).
func CardInnerWidth(outerWidth int) int {
	w := outerWidth - 4 // 2 border + 2 padding
	if w < 10 {
		w = 10
	}
	return w
}

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/kirana/internal/model"
	"github.com/theirongolddev/kirana/internal/tui/theme"
)

// ProgressBar renders a block progress bar followed by its percentage.
func ProgressBar(pct float64, width int) string {
	t := theme.Active
	pct = clamp01(pct)
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}

	barColor := t.Cyan
	switch {
	case pct >= 0.8:
		barColor = t.AccentBright
	case pct >= 0.5:
		barColor = t.Accent
	}

	filledStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface)
	emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface).Bold(true)

	return filledStyle.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("░", width-filled)) +
		lipgloss.NewStyle().Background(t.Surface).Render(" ") +
		pctStyle.Render(fmt.Sprintf("%.0f%%", pct*100))
}

// CoverageBar shows how much of the horizon the current stock covers,
// coloured by the restock alert level.
func CoverageBar(pct float64, status model.StockStatus, width int) string {
	t := theme.Active
	if width < 4 {
		width = 4
	}

	bar := progress.New(
		progress.WithSolidFill(string(t.StatusColor(status))),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)
	return bar.ViewAs(clamp01(pct))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/kirana/internal/tui/theme"
)

var (
	sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	partBlocks  = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
)

// Sparkline renders values as one row of block characters.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	peak := maxOf(values)
	if peak == 0 {
		peak = 1
	}

	var buf strings.Builder
	for _, v := range values {
		idx := int(v / peak * float64(len(sparkBlocks)-1))
		idx = max(0, min(idx, len(sparkBlocks)-1))
		buf.WriteRune(sparkBlocks[idx])
	}
	return lipgloss.NewStyle().Foreground(color).Background(theme.Active.Surface).Render(buf.String())
}

// HBar renders a horizontal bar scaled against peak.
func HBar(value, peak float64, width int, color lipgloss.Color) string {
	n := 0
	if peak > 0 && value > 0 {
		n = int(math.Round(value / peak * float64(width)))
		n = max(1, min(n, width))
	}
	return lipgloss.NewStyle().Foreground(color).Background(theme.Active.Surface).Render(strings.Repeat("█", n))
}

// BarChart renders a vertical bar chart with a labelled Y axis. Labels, when
// given, must match values one to one and are spread along the X axis.
func BarChart(values []float64, labels []string, color lipgloss.Color, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	if width < 15 || height < 3 {
		return Sparkline(values, color)
	}

	t := theme.Active
	surface := lipgloss.NewStyle().Background(t.Surface)
	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)

	peak := maxOf(values)
	if peak == 0 {
		peak = 1
	}
	step := niceStep(peak, max(2, height/2))
	ceiling := math.Ceil(peak/step) * step
	ticks := max(1, int(math.Round(ceiling/step)))
	rowsPerTick := max(2, height/ticks)
	chartH := rowsPerTick * ticks

	yLabelW := max(4, len(shortNumber(ceiling))+1)
	chartW := max(5, width-yLabelW-1)

	if len(labels) != len(values) {
		labels = nil
	}
	values, labels = downsample(values, labels, (chartW+1)/3)
	n := len(values)
	var barW int
	if n == 1 {
		barW = chartW
	} else {
		barW = max(2, (chartW-(n-1))/n)
	}
	barW = min(barW, 6)
	axisLen := n*barW + max(0, n-1)

	var b strings.Builder
	for row := chartH; row >= 1; row-- {
		top := ceiling * float64(row) / float64(chartH)
		bottom := ceiling * float64(row-1) / float64(chartH)

		label := ""
		if row%rowsPerTick == 0 {
			label = shortNumber(step * float64(row/rowsPerTick))
		}
		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s│", yLabelW, label)))

		for i, v := range values {
			if i > 0 {
				b.WriteString(surface.Render(" "))
			}
			switch {
			case v >= top:
				b.WriteString(barStyle.Render(strings.Repeat("█", barW)))
			case v > bottom:
				idx := max(1, min(8, int((v-bottom)/(top-bottom)*8)))
				b.WriteString(barStyle.Render(strings.Repeat(string(partBlocks[idx]), barW)))
			default:
				b.WriteString(surface.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}
	b.WriteString(axisStyle.Render(fmt.Sprintf("%*s└%s", yLabelW, "0", strings.Repeat("─", axisLen))))

	if labels != nil {
		b.WriteString("\n")
		b.WriteString(surface.Render(strings.Repeat(" ", yLabelW+1)))
		b.WriteString(axisStyle.Render(xAxisLabels(labels, barW, axisLen)))
	}
	return b.String()
}

// xAxisLabels places labels under their bars, skipping any that would
// overlap the previous one. The last label is always attempted.
func xAxisLabels(labels []string, barW, axisLen int) string {
	buf := []rune(strings.Repeat(" ", axisLen))
	lastEnd := -1
	place := func(i int) {
		lbl := []rune(labels[i])
		pos := i * (barW + 1)
		if pos+len(lbl) > axisLen {
			pos = axisLen - len(lbl)
		}
		if pos <= lastEnd || pos < 0 {
			return
		}
		copy(buf[pos:], lbl)
		lastEnd = pos + len(lbl)
	}
	for i := 0; i < len(labels)-1; i++ {
		place(i)
	}
	place(len(labels) - 1)
	return strings.TrimRight(string(buf), " ")
}

// downsample picks at most limit evenly spaced points.
func downsample(values []float64, labels []string, limit int) ([]float64, []string) {
	n := len(values)
	if limit < 2 || n <= limit {
		return values, labels
	}
	outV := make([]float64, limit)
	var outL []string
	if labels != nil {
		outL = make([]string, limit)
	}
	for i := range outV {
		src := i * (n - 1) / (limit - 1)
		outV[i] = values[src]
		if outL != nil {
			outL[i] = labels[src]
		}
	}
	return outV, outL
}

// niceStep returns a 1/2/5 multiple of a power of ten so that peak spans at
// most maxTicks intervals.
func niceStep(peak float64, maxTicks int) float64 {
	rough := peak / 5
	base := math.Pow(10, math.Floor(math.Log10(rough)))
	var step float64
	switch frac := rough / base; {
	case frac < 1.5:
		step = base
	case frac < 3.5:
		step = 2 * base
	default:
		step = 5 * base
	}
	for math.Ceil(peak/step) > float64(maxTicks) {
		step *= 2
	}
	return step
}

func shortNumber(v float64) string {
	trim := func(f float64, suffix string) string {
		if f == math.Trunc(f) {
			return fmt.Sprintf("%.0f%s", f, suffix)
		}
		return fmt.Sprintf("%.1f%s", f, suffix)
	}
	switch {
	case v >= 1e6:
		return trim(v/1e6, "M")
	case v >= 1e3:
		return trim(v/1e3, "k")
	case v >= 1:
		return trim(v, "")
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

func maxOf(values []float64) float64 {
	peak := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
	}
	return peak
}

package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/kirana/internal/tui/theme"
)

func TestSparkline(t *testing.T) {
	got := Sparkline([]float64{0, 5, 10}, theme.Active.Accent)
	if !strings.Contains(got, "▁") || !strings.Contains(got, "█") {
		t.Errorf("Sparkline missing low/high blocks: %q", got)
	}
	if Sparkline(nil, theme.Active.Accent) != "" {
		t.Error("empty Sparkline should render nothing")
	}
}

func TestBarChartHeight(t *testing.T) {
	values := []float64{3, 8, 1, 12, 0, 7, 4}
	labels := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	out := BarChart(values, labels, theme.Active.Blue, 60, 8)

	lines := strings.Split(out, "\n")
	if len(lines) < 8 {
		t.Fatalf("chart has %d lines, want at least 8", len(lines))
	}
	last := lines[len(lines)-1]
	if !strings.Contains(last, "Mon") || !strings.Contains(last, "Sun") {
		t.Errorf("x axis labels = %q", last)
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w > 60 {
			t.Errorf("line %d is %d wide, exceeds 60", i, w)
		}
	}
}

func TestNiceStep(t *testing.T) {
	tests := []struct {
		peak     float64
		maxTicks int
		want     float64
	}{
		{10, 5, 2},
		{100, 5, 20},
		{7, 5, 2},
		{1000, 2, 800},
	}
	for _, tt := range tests {
		if got := niceStep(tt.peak, tt.maxTicks); got != tt.want {
			t.Errorf("niceStep(%v, %d) = %v, want %v", tt.peak, tt.maxTicks, got, tt.want)
		}
	}
}

func TestDownsample(t *testing.T) {
	values := make([]float64, 100)
	labels := make([]string, 100)
	for i := range values {
		values[i] = float64(i)
		labels[i] = "x"
	}
	v, l := downsample(values, labels, 10)
	if len(v) != 10 || len(l) != 10 {
		t.Fatalf("downsample lengths = %d, %d", len(v), len(l))
	}
	if v[0] != 0 || v[9] != 99 {
		t.Errorf("downsample endpoints = %v, %v", v[0], v[9])
	}
}

func TestShortNumber(t *testing.T) {
	cases := map[float64]string{
		0.5:     "0.50",
		12:      "12",
		1500:    "1.5k",
		2000:    "2k",
		3400000: "3.4M",
	}
	for in, want := range cases {
		if got := shortNumber(in); got != want {
			t.Errorf("shortNumber(%v) = %q, want %q", in, got, want)
		}
	}
}

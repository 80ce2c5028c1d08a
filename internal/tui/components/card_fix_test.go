package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/kirana/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestCardRowBackgroundFill(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)

	shortLines := lipgloss.Height(shortCard)
	tallLines := lipgloss.Height(tallCard)
	if shortLines >= tallLines {
		t.Fatal("test setup: short card should be shorter than tall card")
	}

	lines := strings.Split(CardRow([]string{tallCard, shortCard}), "\n")
	if len(lines) != tallLines {
		t.Fatalf("joined height = %d, want %d", len(lines), tallLines)
	}
	for i := shortLines; i < len(lines); i++ {
		if !strings.Contains(lines[i], "\x1b[") {
			t.Errorf("line %d has no styling, padding would show the terminal background", i)
		}
	}
}

func TestCardRowWidthConsistency(t *testing.T) {
	theme.SetActive("flexoki-dark")

	joined := CardRow([]string{
		ContentCard("Tall", "A\nB\nC\nD\nE\nF", 20),
		ContentCard("Short", "A", 30),
	})
	lines := strings.Split(joined, "\n")
	want := lipgloss.Width(lines[0])
	for i, line := range lines {
		if w := lipgloss.Width(line); w != want {
			t.Errorf("line %d width = %d, want %d", i, w, want)
		}
	}
}

func TestCardRowSkipsEmpty(t *testing.T) {
	card := ContentCard("Only", "x", 20)
	if got := CardRow([]string{"", card, ""}); got != card {
		t.Errorf("CardRow with empty cards changed the single card")
	}
	if got := CardRow(nil); got != "" {
		t.Errorf("CardRow(nil) = %q", got)
	}
}

func TestLayoutRow(t *testing.T) {
	widths := LayoutRow(100, 3)
	sum := 0
	for _, w := range widths {
		sum += w
	}
	if sum != 100 || widths[0] != 34 || widths[2] != 33 {
		t.Errorf("LayoutRow(100, 3) = %v", widths)
	}
	if LayoutRow(10, 0) != nil {
		t.Error("LayoutRow with n=0 should be nil")
	}
}

func TestMetricCardRowWidth(t *testing.T) {
	row := MetricCardRow([]Metric{
		{Label: "Products", Value: "42"},
		{Label: "Sold", Value: "1,204", Note: "40.1/day"},
	}, 60)
	for i, line := range strings.Split(row, "\n") {
		if w := lipgloss.Width(line); w != 60 {
			t.Errorf("line %d width = %d, want 60", i, w)
		}
	}
}

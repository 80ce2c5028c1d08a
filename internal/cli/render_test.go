package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestRenderTable_AlignsColumns(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Product", "Qty"},
		Rows: [][]string{
			{"Basmati Rice", "20"},
			{"---"},
			{"Dal", "1,234"},
		},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("got %d lines, want 7:\n%s", len(lines), out)
	}
	want := lipgloss.Width(lines[0])
	for i, l := range lines {
		if w := lipgloss.Width(l); w != want {
			t.Errorf("line %d width %d, want %d: %q", i, w, want, l)
		}
	}
}

func TestRenderTable_Empty(t *testing.T) {
	if got := RenderTable(Table{}); got != "" {
		t.Errorf("RenderTable(empty) = %q", got)
	}
}

func TestRenderSparkline(t *testing.T) {
	got := []rune(RenderSparkline([]float64{0, 5, 10}))
	if len(got) != 3 || got[0] != '▁' || got[2] != '█' {
		t.Errorf("sparkline = %q", string(got))
	}
	if RenderSparkline(nil) != "" {
		t.Error("empty input should render nothing")
	}
}

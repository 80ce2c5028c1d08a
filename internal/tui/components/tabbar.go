package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/kirana/internal/tui/theme"
)

// Tab is one entry of the tab bar.
type Tab struct {
	Name   string
	Key    rune
	KeyPos int // index of the shortcut letter in Name, -1 if it is not in Name
}

// Tabs are the dashboard tabs in display order.
var Tabs = []Tab{
	{Name: "Overview", Key: 'o', KeyPos: 0},
	{Name: "Top Sellers", Key: 't', KeyPos: 0},
	{Name: "Trends", Key: 'w', KeyPos: -1},
	{Name: "Restock", Key: 's', KeyPos: 2},
	{Name: "Forecast", Key: 'f', KeyPos: 0},
}

const tabSeparator = "│"

// TabVisualWidth returns the rendered width of a tab, used for mouse hit
// testing. It must agree with RenderTabBar.
func TabVisualWidth(tab Tab, active bool) int {
	w := lipgloss.Width(tab.Name) + 2 // horizontal padding
	if !active && tab.KeyPos < 0 {
		w += 3 // "[k]"
	}
	return w
}

// RenderTabBar renders a single-row tab bar padded to width.
func RenderTabBar(activeIdx int, width int) string {
	return lipgloss.NewStyle().Background(theme.Active.Surface).Width(width).Render(renderTabs(activeIdx))
}

func renderTabs(activeIdx int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.SurfaceHover).
		Bold(true)
	inactiveStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	parts := make([]string, 0, len(Tabs))
	for i, tab := range Tabs {
		if i == activeIdx {
			parts = append(parts, activeStyle.Render(" "+tab.Name+" "))
			continue
		}
		var b strings.Builder
		b.WriteString(inactiveStyle.Render(" "))
		if tab.KeyPos >= 0 && tab.KeyPos < len(tab.Name) {
			b.WriteString(inactiveStyle.Render(tab.Name[:tab.KeyPos]))
			b.WriteString(keyStyle.Render(tab.Name[tab.KeyPos : tab.KeyPos+1]))
			b.WriteString(inactiveStyle.Render(tab.Name[tab.KeyPos+1:]))
		} else {
			b.WriteString(inactiveStyle.Render(tab.Name))
			b.WriteString(dimStyle.Render("["))
			b.WriteString(keyStyle.Render(string(tab.Key)))
			b.WriteString(dimStyle.Render("]"))
		}
		b.WriteString(inactiveStyle.Render(" "))
		parts = append(parts, b.String())
	}

	return strings.Join(parts, dimStyle.Render(tabSeparator))
}

// TabIdxByKey returns the tab index for a shortcut key, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}

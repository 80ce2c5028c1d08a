package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/theirongolddev/kirana/internal/tui/theme"
)

// StatusInfo is what the bottom bar reports about the loaded data.
type StatusInfo struct {
	DataFile    string
	Sales       int
	LoadTime    string
	Refreshing  bool
	AutoRefresh bool
	Message     string // transient notice, e.g. a reload error
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	left := base.Render(" ") +
		keyStyle.Render("?") + base.Render(" help  ") +
		keyStyle.Render("/") + base.Render(" search  ") +
		keyStyle.Render("r") + base.Render(" reload  ") +
		keyStyle.Render("q") + base.Render(" quit")

	var right []string
	switch {
	case info.Message != "":
		right = append(right, warnStyle.Render(info.Message))
	case info.Refreshing:
		right = append(right, keyStyle.Render("reloading…"))
	}
	if info.AutoRefresh {
		right = append(right, base.Render("auto"))
	}
	if info.DataFile != "" {
		right = append(right, base.Render(info.DataFile))
	}
	if info.Sales > 0 {
		right = append(right, base.Render(humanize.Comma(int64(info.Sales))+" sales"))
	}
	if info.LoadTime != "" {
		right = append(right, base.Render(info.LoadTime))
	}
	rightStr := strings.Join(right, base.Render(" · ")) + base.Render(" ")

	gap := width - lipgloss.Width(left) - lipgloss.Width(rightStr)
	if gap < 1 {
		// Drop the right side before overflowing the terminal.
		rightStr = ""
		gap = width - lipgloss.Width(left)
		if gap < 0 {
			gap = 0
		}
	}
	return left + base.Render(strings.Repeat(" ", gap)) + rightStr
}

package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/theirongolddev/kirana/internal/tui/components"
)

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := range components.Tabs {
		a := App{activeTab: active}
		pos := 0

		for i, tab := range components.Tabs {
			w := components.TabVisualWidth(tab, i == active)
			x := pos + w/2 // midpoint inside this tab
			if got := a.tabAtX(x); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, x, got, i)
			}
			pos += w + 1 // separator
		}
		if got := a.tabAtX(pos + 5); got != -1 {
			t.Errorf("x past the last tab = %d, want -1", got)
		}
	}
}

func TestMouseClickSwitchesTab(t *testing.T) {
	a := loadedApp(t)
	x := components.TabVisualWidth(components.Tabs[0], true) + 1 + 2 // inside the second tab

	model, _ := a.Update(tea.MouseMsg{X: x, Y: 0, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	if got := model.(App).activeTab; got != tabTop {
		t.Errorf("activeTab = %d, want %d", got, tabTop)
	}
}

func TestMouseWheelMovesCursor(t *testing.T) {
	a := loadedApp(t)
	a.activeTab = tabTop

	model, _ := a.Update(tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})
	if got := model.(App).cursor; got != 1 {
		t.Errorf("cursor after wheel down = %d, want 1", got)
	}
}

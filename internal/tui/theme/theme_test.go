package theme

import (
	"testing"

	"github.com/theirongolddev/kirana/internal/model"
)

func TestByName(t *testing.T) {
	if got := ByName("Tokyo-Night"); got.Name != "tokyo-night" {
		t.Errorf("ByName(Tokyo-Night) = %s", got.Name)
	}
	if got := ByName("solarized"); got.Name != FlexokiDark.Name {
		t.Errorf("unknown theme = %s, want fallback %s", got.Name, FlexokiDark.Name)
	}
}

func TestStatusColor(t *testing.T) {
	th := FlexokiDark
	cases := map[model.StockStatus]string{
		model.StatusOrderNow:    string(th.Red),
		model.StatusLow:         string(th.Yellow),
		model.StatusHealthy:     string(th.Green),
		model.StatusNoDepletion: string(th.TextMuted),
	}
	for status, want := range cases {
		if got := string(th.StatusColor(status)); got != want {
			t.Errorf("StatusColor(%v) = %s, want %s", status, got, want)
		}
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != len(All) || names[0] != "flexoki-dark" {
		t.Errorf("Names() = %v", names)
	}
}

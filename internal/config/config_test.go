package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/kirana/internal/forecast"
)

func useTempConfigDir(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{"KIRANA_DATA_FILE", "KIRANA_WINDOW_DAYS", "KIRANA_DEFAULT_STOCK", "KIRANA_ADDR", "KIRANA_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	useTempConfigDir(t)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.General.WindowDays != 30 || cfg.General.TopN != 5 {
		t.Errorf("defaults not applied: %+v", cfg.General)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	useTempConfigDir(t)

	cfg := DefaultConfig()
	cfg.General.DataFile = "/srv/sales"
	cfg.Stock.Levels = map[string]float64{"Basmati Rice": 120}
	cfg.Columns.DateFormats = []string{"20060102"}
	if err := Save(cfg); err != nil {
		t.Fatal(err)
	}
	if !Exists() {
		t.Fatal("Exists() = false after Save")
	}

	info, err := os.Stat(ConfigPath())
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config mode = %o, want 600", perm)
	}

	got, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if got.General.DataFile != "/srv/sales" || got.Stock.Levels["Basmati Rice"] != 120 {
		t.Errorf("round trip lost values: %+v", got)
	}
	if s := got.Schema(); len(s.DateLayouts) != 1 || !s.DayFirst {
		t.Errorf("Schema() = %+v", s)
	}
}

func TestLoad_BadTOML(t *testing.T) {
	useTempConfigDir(t)
	if err := os.MkdirAll(ConfigDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ConfigPath(), []byte("[general\nwindow_days = "), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	useTempConfigDir(t)
	t.Setenv("KIRANA_DATA_FILE", "sales.csv")
	t.Setenv("KIRANA_WINDOW_DAYS", "14")
	t.Setenv("KIRANA_DEFAULT_STOCK", "80.5")
	t.Setenv("KIRANA_ADDR", ":9000")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.General.DataFile != "sales.csv" || cfg.General.WindowDays != 14 || cfg.Stock.Default != 80.5 || cfg.Server.Addr != ":9000" {
		t.Errorf("env not applied: %+v", cfg)
	}

	t.Setenv("KIRANA_WINDOW_DAYS", "two weeks")
	if _, err := Load(); !errors.Is(err, forecast.ErrConfig) {
		t.Errorf("err = %v, want ErrConfig", err)
	}
}

func TestNonFiniteStockIsRejected(t *testing.T) {
	useTempConfigDir(t)
	for _, v := range []string{"NaN", "Inf", "-Inf"} {
		t.Setenv("KIRANA_DEFAULT_STOCK", v)
		if _, err := Load(); !errors.Is(err, forecast.ErrConfig) {
			t.Errorf("KIRANA_DEFAULT_STOCK=%s: err = %v, want ErrConfig", v, err)
		}
	}
	t.Setenv("KIRANA_DEFAULT_STOCK", "")

	if err := os.MkdirAll(ConfigDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	data := "[stock]\ndefault = nan\n[stock.levels]\nRice = inf\n"
	if err := os.WriteFile(ConfigPath(), []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); !errors.Is(err, forecast.ErrConfig) {
		t.Errorf("Validate err = %v, want ErrConfig", err)
	}

	sl := cfg.StockLevels()
	if !sl.Default.IsZero() || !sl.For("rice").IsZero() {
		t.Errorf("non-finite levels should convert to zero, got %s and %s", sl.Default, sl.For("rice"))
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if err := LoadDotEnv(); err != nil {
		t.Fatalf("missing .env should be fine: %v", err)
	}

	t.Setenv("KIRANA_ADDR", "")
	_ = os.Unsetenv("KIRANA_ADDR")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("KIRANA_ADDR=:7000\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := LoadDotEnv(); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("KIRANA_ADDR"); got != ":7000" {
		t.Errorf("KIRANA_ADDR = %q", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero window", func(c *Config) { c.General.WindowDays = 0 }},
		{"negative stock", func(c *Config) { c.Stock.Default = -1 }},
		{"negative level", func(c *Config) { c.Stock.Levels = map[string]float64{"Rice": -2} }},
		{"NaN stock", func(c *Config) { c.Stock.Default = math.NaN() }},
		{"infinite level", func(c *Config) { c.Stock.Levels = map[string]float64{"Rice": math.Inf(1)} }},
		{"inverted alerts", func(c *Config) { c.Alerts.LowDays = 1 }},
		{"empty column", func(c *Config) { c.Columns.Date = " " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, forecast.ErrConfig) {
				t.Errorf("err = %v, want ErrConfig", err)
			}
		})
	}
}

func TestStockLevels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Stock.Levels = map[string]float64{"Basmati Rice": 120}
	sl := cfg.StockLevels()

	if got := sl.For("basmati rice"); !got.Equal(decimal.NewFromInt(120)) {
		t.Errorf("For(rice) = %s", got)
	}
	if got := sl.For("Sugar"); !got.Equal(decimal.NewFromInt(50)) {
		t.Errorf("For(sugar) = %s, want default 50", got)
	}

	merged := sl.Merge(map[string]decimal.Decimal{"SUGAR": decimal.NewFromInt(7)})
	if got := merged.For("sugar"); !got.Equal(decimal.NewFromInt(7)) {
		t.Errorf("merged For(sugar) = %s", got)
	}
	if _, ok := sl.Levels["sugar"]; ok {
		t.Error("Merge must not modify the receiver")
	}
}

func TestLoadStockFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "stock.csv")
	if err := os.WriteFile(good, []byte("Product,Stock\nRice,35\nDal,12.5\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	levels, err := LoadStockFile(good)
	if err != nil {
		t.Fatal(err)
	}
	if len(levels) != 2 || !levels["Dal"].Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("levels = %v", levels)
	}

	bad := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(bad, []byte("product,stock\nRice,-1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadStockFile(bad); !errors.Is(err, forecast.ErrNegativeStock) {
		t.Errorf("err = %v, want ErrNegativeStock", err)
	}
}

package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/theirongolddev/kirana/internal/forecast"
	"github.com/theirongolddev/kirana/internal/source"
)

// Config holds all kirana configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Columns    ColumnsConfig    `toml:"columns"`
	Stock      StockConfig      `toml:"stock"`
	Alerts     AlertsConfig     `toml:"alerts"`
	Forecast   ForecastConfig   `toml:"forecast"`
	Appearance AppearanceConfig `toml:"appearance"`
	Server     ServerConfig     `toml:"server"`
	Log        LogConfig        `toml:"log"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DataFile   string `toml:"data_file"`
	WindowDays int    `toml:"window_days"`
	TopN       int    `toml:"top_n"`
	AsOf       string `toml:"as_of,omitempty"` // "", "today", "latest" or YYYY-MM-DD
}

// ColumnsConfig maps CSV header names onto sale fields.
type ColumnsConfig struct {
	Product     string   `toml:"product"`
	Quantity    string   `toml:"quantity"`
	Date        string   `toml:"date"`
	DayFirst    bool     `toml:"day_first"`
	DateFormats []string `toml:"date_formats,omitempty"`
}

// StockConfig holds current stock on hand.
type StockConfig struct {
	Default float64            `toml:"default"`
	Levels  map[string]float64 `toml:"levels,omitempty"`
}

// AlertsConfig holds restock alert thresholds in days.
type AlertsConfig struct {
	OrderNowDays int `toml:"order_now_days"`
	LowDays      int `toml:"low_days"`
}

// ForecastConfig holds regression forecast settings.
type ForecastConfig struct {
	HorizonDays int `toml:"horizon_days"`
	MinRecords  int `toml:"min_records"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// ServerConfig holds browser dashboard settings.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // console or json
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	th := forecast.DefaultThresholds()
	return Config{
		General: GeneralConfig{
			DataFile:   filepath.Join("data", "grocery_chain_data.csv"),
			WindowDays: 30,
			TopN:       5,
		},
		Columns: ColumnsConfig{
			Product:  "product_name",
			Quantity: "quantity",
			Date:     "transaction_date",
			DayFirst: true,
		},
		Stock: StockConfig{Default: 50},
		Alerts: AlertsConfig{
			OrderNowDays: th.OrderNowDays,
			LowDays:      th.LowDays,
		},
		Forecast: ForecastConfig{
			HorizonDays: forecast.DefaultHorizon,
			MinRecords:  forecast.DefaultMinRecords,
		},
		Appearance: AppearanceConfig{Theme: "flexoki-dark"},
		Server:     ServerConfig{Addr: "127.0.0.1:8501"},
		Log:        LogConfig{Level: "info", Format: "console"},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "kirana")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "kirana")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment overrides are applied on top.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadDotEnv loads a .env file from the working directory into the process
// environment. Variables already set are left alone. A missing file is fine.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading .env: %w", err)
	}
	return nil
}

// ApplyEnv overrides config values from KIRANA_* environment variables.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv("KIRANA_DATA_FILE"); v != "" {
		cfg.General.DataFile = v
	}
	if v := os.Getenv("KIRANA_WINDOW_DAYS"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: KIRANA_WINDOW_DAYS=%q is not a whole number", forecast.ErrConfig, v)
		}
		cfg.General.WindowDays = n
	}
	if v := os.Getenv("KIRANA_DEFAULT_STOCK"); v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || !finite(f) {
			return fmt.Errorf("%w: KIRANA_DEFAULT_STOCK=%q is not a number", forecast.ErrConfig, v)
		}
		cfg.Stock.Default = f
	}
	if v := os.Getenv("KIRANA_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("KIRANA_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// Validate reports configuration values that would make any computation
// meaningless. Every error wraps forecast.ErrConfig.
func (c Config) Validate() error {
	if c.General.WindowDays <= 0 {
		return fmt.Errorf("general.window_days: %w (got %d)", forecast.ErrInvalidWindow, c.General.WindowDays)
	}
	if c.General.TopN < 0 {
		return fmt.Errorf("%w: general.top_n cannot be negative", forecast.ErrConfig)
	}
	if !finite(c.Stock.Default) || c.Stock.Default < 0 {
		return fmt.Errorf("%w: stock.default must be a non-negative number", forecast.ErrConfig)
	}
	for product, level := range c.Stock.Levels {
		if !finite(level) || level < 0 {
			return fmt.Errorf("%w: stock level for %q must be a non-negative number", forecast.ErrConfig, product)
		}
	}
	if c.Alerts.OrderNowDays < 0 || c.Alerts.LowDays < c.Alerts.OrderNowDays {
		return fmt.Errorf("%w: alerts need 0 <= order_now_days <= low_days", forecast.ErrConfig)
	}
	for _, col := range []string{c.Columns.Product, c.Columns.Quantity, c.Columns.Date} {
		if strings.TrimSpace(col) == "" {
			return fmt.Errorf("%w: column names cannot be empty", forecast.ErrConfig)
		}
	}
	return nil
}

// Schema returns the CSV parse settings.
func (c Config) Schema() source.Schema {
	return source.Schema{
		ProductColumn:  c.Columns.Product,
		QuantityColumn: c.Columns.Quantity,
		DateColumn:     c.Columns.Date,
		DateLayouts:    c.Columns.DateFormats,
		DayFirst:       c.Columns.DayFirst,
	}
}

// Thresholds returns the restock alert thresholds.
func (c Config) Thresholds() forecast.Thresholds {
	return forecast.Thresholds{OrderNowDays: c.Alerts.OrderNowDays, LowDays: c.Alerts.LowDays}
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

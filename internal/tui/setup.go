package tui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/kirana/internal/config"
	"github.com/theirongolddev/kirana/internal/tui/theme"
)

// setupValues are bound to the first-run form fields.
type setupValues struct {
	dataFile string
	days     int
	stock    string
	theme    string
}

func newSetupValues(opts Options) setupValues {
	return setupValues{
		dataFile: opts.DataFile,
		days:     opts.Days,
		stock:    opts.Stock.Default.String(),
		theme:    theme.Active.Name,
	}
}

// newSetupForm builds the setup form over vals. intro is shown above the
// fields.
func newSetupForm(intro string, vals *setupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to kirana").
				Description(intro+"\nAnswers are saved to "+config.ConfigPath()+"."),
			huh.NewInput().
				Title("Sales CSV").
				Description("A CSV file, or a directory of CSV files").
				Value(&vals.dataFile).
				Validate(validateDataFile),
			huh.NewSelect[int]().
				Title("Sales window").
				Description("Days of history used for burn rates").
				Options(
					huh.NewOption("7 days", 7),
					huh.NewOption("14 days", 14),
					huh.NewOption("30 days", 30),
					huh.NewOption("60 days", 60),
					huh.NewOption("90 days", 90),
				).
				Value(&vals.days),
			huh.NewInput().
				Title("Default stock on hand").
				Description("Used for every product without its own level").
				Value(&vals.stock).
				Validate(validateStock),
			huh.NewSelect[string]().
				Title("Colour theme").
				Options(themeOpts...).
				Value(&vals.theme),
		),
	).WithShowHelp(true)
}

func validateDataFile(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("enter a path")
	}
	if _, err := os.Stat(s); err != nil {
		return fmt.Errorf("cannot read %s", s)
	}
	return nil
}

func validateStock(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return errors.New("enter a number")
	}
	if d.IsNegative() {
		return errors.New("stock cannot be negative")
	}
	return nil
}

// applyTo copies the answers into cfg. The form validators have already
// checked them.
func (v setupValues) applyTo(cfg *config.Config) {
	cfg.General.DataFile = strings.TrimSpace(v.dataFile)
	cfg.General.WindowDays = v.days
	if stock, err := decimal.NewFromString(strings.TrimSpace(v.stock)); err == nil {
		cfg.Stock.Default = stock.InexactFloat64()
	}
	cfg.Appearance.Theme = v.theme
}

// RunSetup runs the setup form on its own, outside the dashboard, and
// returns cfg updated with the answers. The caller saves it.
func RunSetup(cfg config.Config) (config.Config, error) {
	vals := setupValues{
		dataFile: cfg.General.DataFile,
		days:     cfg.General.WindowDays,
		stock:    cfg.StockLevels().Default.String(),
		theme:    theme.ByName(cfg.Appearance.Theme).Name,
	}
	if err := newSetupForm("Configure the sales file and defaults.", &vals).Run(); err != nil {
		return cfg, err
	}
	vals.applyTo(&cfg)
	return cfg, nil
}

// setupIntro tells the user whether the configured file was found.
func setupIntro(salesCount int, dataFile string) string {
	if salesCount > 0 {
		return fmt.Sprintf("Loaded %d sales from %s.", salesCount, dataFile)
	}
	return "No sales were loaded from " + dataFile + "."
}

// applySetup saves the form answers and applies them to the running
// dashboard. It reports whether the sales file changed and must be reloaded.
func (a *App) applySetup() bool {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	a.setupVals.applyTo(&cfg)
	theme.SetActive(cfg.Appearance.Theme)

	reload := cfg.General.DataFile != a.opts.DataFile
	a.opts.DataFile = cfg.General.DataFile
	a.opts.Days = cfg.General.WindowDays
	a.opts.Stock.Default = cfg.StockLevels().Default

	if err := config.Save(cfg); err != nil {
		a.notice = "settings apply to this session only: " + err.Error()
	}
	return reload
}

package cmd

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/kirana/internal/logging"
	"github.com/theirongolddev/kirana/internal/tui"
	"github.com/theirongolddev/kirana/internal/tui/theme"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive dashboard",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().StringVar(&flagStock, "stock", "", "Stock on hand for every product (default from config)")
	tuiCmd.Flags().StringVar(&flagStockFile, "stock-file", "", "CSV of product,stock levels")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	levels, err := stockLevels(flagStock, flagStockFile)
	if err != nil {
		return err
	}

	theme.SetActive(cfg.Appearance.Theme)

	// Force TrueColor so background styling is emitted even when the
	// terminal profile is not detected.
	lipgloss.SetColorProfile(termenv.TrueColor)

	// Log lines would corrupt the alt screen.
	logging.Setup(logging.Options{Level: "disabled", Out: io.Discard})

	app := tui.NewApp(tui.Options{
		DataFile:   flagFile,
		Schema:     cfg.Schema(),
		Days:       flagDays,
		AsOf:       cfg.General.AsOf,
		Product:    flagProduct,
		Stock:      levels,
		Thresholds: cfg.Thresholds(),
		Horizon:    cfg.Forecast.HorizonDays,
		MinRecords: cfg.Forecast.MinRecords,
		NoCache:    flagNoCache,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

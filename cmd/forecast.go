package cmd

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/kirana/internal/cli"
	"github.com/theirongolddev/kirana/internal/forecast"
	"github.com/theirongolddev/kirana/internal/pipeline"
)

var flagHorizon int

var forecastCmd = &cobra.Command{
	Use:   "forecast PRODUCT",
	Short: "Linear-trend demand forecast for one product",
	Args:  cobra.ExactArgs(1),
	RunE:  runForecast,
}

func init() {
	forecastCmd.Flags().IntVar(&flagHorizon, "horizon", 0, "Days to forecast (default from config)")
	rootCmd.AddCommand(forecastCmd)
}

// ErrUnknownProduct is returned when a named product has no sales at all.
var ErrUnknownProduct = errors.New("unknown product")

func runForecast(_ *cobra.Command, args []string) error {
	result, err := loadData()
	if err != nil {
		return err
	}

	product, ok := pipeline.FindProduct(result.Sales, args[0])
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProduct, args[0])
	}

	horizon := flagHorizon
	if horizon <= 0 {
		horizon = cfg.Forecast.HorizonDays
	}
	fc, err := forecast.LinearForecast(result.Sales, product, horizon, cfg.Forecast.MinRecords)
	if errors.Is(err, forecast.ErrInsufficientHistory) {
		fmt.Printf("\n  Not enough history to forecast %s (%d sale records, need %d on at least 2 days).\n",
			product, fc.Records, cfg.Forecast.MinRecords)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("FORECAST  %s  next %dd", product, horizon)))
	fmt.Println()

	rows := make([][]string, 0, len(fc.Points)+2)
	for _, p := range fc.Points {
		rows = append(rows, []string{
			p.Date.Format("2006-01-02"),
			cli.FormatDayOfWeek(int(p.Date.Weekday())),
			fmt.Sprintf("%.1f", p.Predicted),
		})
	}
	rows = append(rows, []string{"---"}, []string{"Total needed", "", fmt.Sprintf("%.1f", fc.TotalNeeded)})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Day", "Predicted units"},
		Rows:    rows,
	}))

	trend := "flat"
	switch {
	case fc.Slope > 0.05:
		trend = "rising"
	case fc.Slope < -0.05:
		trend = "falling"
	}
	fmt.Printf("\n  Trend %s (%+.2f units/day), fit R² %.2f over %d records\n", trend, fc.Slope, fc.R2, fc.Records)

	stock := cfg.StockLevels().For(product)
	needed := decimal.NewFromFloat(fc.TotalNeeded)
	if stock.LessThan(needed) {
		fmt.Printf("  Stock %s will not cover the next %d days: reorder at least %s\n",
			cli.FormatQuantity(stock), horizon, cli.FormatQuantity(needed.Sub(stock).Ceil()))
	} else {
		fmt.Printf("  Stock %s covers the next %d days\n", cli.FormatQuantity(stock), horizon)
	}
	return nil
}

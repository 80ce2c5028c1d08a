package cmd

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/kirana/internal/cli"
	"github.com/theirongolddev/kirana/internal/config"
	"github.com/theirongolddev/kirana/internal/forecast"
	"github.com/theirongolddev/kirana/internal/model"
	"github.com/theirongolddev/kirana/internal/pipeline"
)

var (
	flagStock     string
	flagStockFile string
	flagRestockN  int
)

var restockCmd = &cobra.Command{
	Use:   "restock",
	Short: "Burn rate, days of stock left and depletion date per product",
	RunE:  runRestock,
}

func init() {
	restockCmd.Flags().StringVar(&flagStock, "stock", "", "Stock on hand for every product (default from config)")
	restockCmd.Flags().StringVar(&flagStockFile, "stock-file", "", "CSV of product,stock levels")
	restockCmd.Flags().IntVar(&flagRestockN, "top", 0, "Only show the N most urgent products")
	rootCmd.AddCommand(restockCmd)
}

// stockLevels resolves stock on hand from config, --stock-file and --stock.
func stockLevels(stockFlag, stockFile string) (config.StockLevels, error) {
	levels := cfg.StockLevels()
	if stockFile != "" {
		overrides, err := config.LoadStockFile(stockFile)
		if err != nil {
			return levels, err
		}
		levels = levels.Merge(overrides)
	}
	if stockFlag != "" {
		d, err := decimal.NewFromString(stockFlag)
		if err != nil {
			return levels, fmt.Errorf("%w: --stock %q is not a number", forecast.ErrInvalidInput, stockFlag)
		}
		if d.IsNegative() {
			return levels, fmt.Errorf("--stock: %w", forecast.ErrNegativeStock)
		}
		levels = config.StockLevels{Default: d, Levels: map[string]decimal.Decimal{}}
	}
	return levels, nil
}

func runRestock(_ *cobra.Command, _ []string) error {
	levels, err := stockLevels(flagStock, flagStockFile)
	if err != nil {
		return err
	}

	result, err := loadData()
	if err != nil {
		return err
	}
	if len(result.Sales) == 0 {
		fmt.Println("\n  No sales found.")
		return nil
	}

	filtered, _, until, err := applyFilters(result.Sales)
	if err != nil {
		return err
	}
	summaries, err := pipeline.AggregateWindow(filtered, until, flagDays)
	if err != nil {
		return err
	}
	projections, err := forecast.ProjectAll(summaries, levels.For, pipeline.StartOfDay(time.Now()), cfg.Thresholds())
	if err != nil {
		return err
	}
	if flagRestockN > 0 && len(projections) > flagRestockN {
		projections = projections[:flagRestockN]
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("RESTOCK FORECAST  " + windowLabel(until)))
	fmt.Println()
	fmt.Print(cli.RenderTable(restockTable(projections, summaries)))

	counts := make(map[model.StockStatus]int)
	for _, p := range projections {
		counts[p.Status]++
	}
	fmt.Printf("\n  %s %d   %s %d   %s %d   %s %d\n",
		cli.RenderStatus(model.StatusOrderNow), counts[model.StatusOrderNow],
		cli.RenderStatus(model.StatusLow), counts[model.StatusLow],
		cli.RenderStatus(model.StatusHealthy), counts[model.StatusHealthy],
		cli.RenderStatus(model.StatusNoDepletion), counts[model.StatusNoDepletion],
	)
	fmt.Println(cli.RenderMuted(fmt.Sprintf("  Days left = floor(stock / average daily sales over %d days). Depletion is counted from today.", flagDays)))
	return nil
}

func restockTable(projections []model.StockProjection, summaries map[string]model.ProductSales) cli.Table {
	today := pipeline.StartOfDay(time.Now())
	rows := make([][]string, 0, len(projections))
	for _, p := range projections {
		rows = append(rows, []string{
			p.Product,
			cli.FormatQuantity(summaries[p.Product].Total),
			cli.FormatRate(p.Rate),
			cli.FormatQuantity(p.Stock),
			cli.FormatDaysLeft(p),
			cli.FormatDepletion(p, today),
			cli.RenderStatus(p.Status),
		})
	}
	return cli.Table{
		Headers: []string{"Product", fmt.Sprintf("Sold %dd", flagDays), "Rate", "Stock", "Days left", "Runs out", "Status"},
		Rows:    rows,
	}
}

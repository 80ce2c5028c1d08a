package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/kirana/internal/cli"
	"github.com/theirongolddev/kirana/internal/pipeline"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Headline metrics, top sellers and weekly trend",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	result, err := loadData()
	if err != nil {
		return err
	}

	if len(result.Sales) == 0 {
		fmt.Println("\n  No sales found.")
		fmt.Println("  Record one with `kirana add-sale`, or point --file at a sales CSV.")
		return nil
	}

	filtered, since, until, err := applyFilters(result.Sales)
	if err != nil {
		return err
	}
	stats := pipeline.Aggregate(filtered, since, until)

	fmt.Println()
	fmt.Println(cli.RenderTitle("KIRANA  " + windowLabel(until)))
	fmt.Println()

	rows := [][]string{
		{"Products (all data)", cli.FormatNumber(int64(len(pipeline.Products(filtered))))},
		{"Last update", cli.FormatDate(pipeline.LatestDate(filtered))},
		{"---"},
		{"Products sold", cli.FormatNumber(int64(stats.Products))},
		{"Transactions", cli.FormatNumber(int64(stats.Transactions))},
		{"Units sold", cli.FormatQuantity(stats.TotalQuantity)},
		{"Active days", fmt.Sprintf("%d of %d", stats.ActiveDays, flagDays)},
		{"Units/active day", cli.FormatQuantity(stats.QuantityPerDay)},
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if stats.Transactions == 0 {
		fmt.Println("\n  No sales in the selected window. Try --as-of latest or a wider --days.")
		return nil
	}

	fmt.Println()
	top := pipeline.TopProducts(filtered, since, until, cfg.General.TopN)
	fmt.Print(cli.RenderTable(topTable(top)))

	weeks := pipeline.AggregateWeeks(filtered, since, until)
	if len(weeks) > 1 {
		values := make([]float64, len(weeks))
		for i, w := range weeks {
			values[i] = w.Quantity.InexactFloat64()
		}
		fmt.Printf("\n  Weekly units  %s  (%s weeks ending %s)\n",
			cli.RenderSparkline(values), cli.FormatNumber(int64(len(weeks))), cli.FormatDate(weeks[len(weeks)-1].WeekEnd))
	}

	return nil
}

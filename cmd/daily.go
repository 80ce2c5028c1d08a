package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/kirana/internal/cli"
	"github.com/theirongolddev/kirana/internal/pipeline"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Daily sales table",
	RunE:  runDaily,
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(_ *cobra.Command, _ []string) error {
	result, err := loadData()
	if err != nil {
		return err
	}
	if len(result.Sales) == 0 {
		fmt.Println("\n  No sales found.")
		return nil
	}

	filtered, since, until, err := applyFilters(result.Sales)
	if err != nil {
		return err
	}
	days := pipeline.AggregateDays(filtered, since, until)

	if len(days) == 0 {
		fmt.Println("\n  No data for the selected period.")
		return nil
	}

	title := "DAILY SALES  " + windowLabel(until)
	if flagProduct != "" {
		title = fmt.Sprintf("DAILY SALES  %q  %s", flagProduct, windowLabel(until))
	}
	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	fmt.Println()

	peak := 0.0
	total := decimal.Zero
	transactions := 0
	for _, d := range days {
		peak = max(peak, d.Quantity.InexactFloat64())
		total = total.Add(d.Quantity)
		transactions += d.Transactions
	}

	rows := make([][]string, 0, len(days)+2)
	for _, d := range days {
		rows = append(rows, []string{
			d.Date.Format("2006-01-02"),
			cli.FormatDayOfWeek(int(d.Date.Weekday())),
			cli.FormatQuantity(d.Quantity),
			cli.FormatNumber(int64(d.Transactions)),
			cli.RenderHorizontalBar(d.Quantity.InexactFloat64(), peak, 20),
		})
	}
	rows = append(rows,
		[]string{"---"},
		[]string{"Total", "", cli.FormatQuantity(total), cli.FormatNumber(int64(transactions)), ""},
	)

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Day", "Units", "Sales", ""},
		Rows:    rows,
	}))

	return nil
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/kirana/internal/cli"
	"github.com/theirongolddev/kirana/internal/pipeline"
)

var weeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Weekly sales trend (weeks end on Sunday)",
	RunE:  runWeekly,
}

func init() {
	rootCmd.AddCommand(weeklyCmd)
}

func runWeekly(_ *cobra.Command, _ []string) error {
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
	weeks := pipeline.AggregateWeeks(filtered, since, until)
	if len(weeks) == 0 {
		fmt.Println("\n  No data for the selected period.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("WEEKLY SALES  " + windowLabel(until)))
	fmt.Println()

	peak := 0.0
	values := make([]float64, len(weeks))
	for i, w := range weeks {
		values[i] = w.Quantity.InexactFloat64()
		peak = max(peak, values[i])
	}

	rows := make([][]string, 0, len(weeks))
	for i, w := range weeks {
		rows = append(rows, []string{
			w.WeekEnd.Format("2006-01-02"),
			cli.FormatQuantity(w.Quantity),
			cli.FormatNumber(int64(w.Transactions)),
			cli.RenderHorizontalBar(values[i], peak, 20),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Week ending", "Units", "Sales", ""},
		Rows:    rows,
	}))
	fmt.Printf("\n  Trend  %s\n", cli.RenderSparkline(values))
	if weeks[0].WeekStart.Before(since) || weeks[len(weeks)-1].WeekEnd.After(until) {
		fmt.Println(cli.RenderMuted("  Partial weeks at the window edges only count days inside the window."))
	}
	return nil
}

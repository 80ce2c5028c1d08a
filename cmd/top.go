package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/kirana/internal/cli"
	"github.com/theirongolddev/kirana/internal/forecast"
	"github.com/theirongolddev/kirana/internal/model"
	"github.com/theirongolddev/kirana/internal/pipeline"
)

var (
	flagTopN int
	flagFrom string
	flagTo   string
)

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Top-selling products",
	RunE:  runTop,
}

func init() {
	topCmd.Flags().IntVar(&flagTopN, "top", 0, "Number of products to show (default from config, 0 = config)")
	topCmd.Flags().StringVar(&flagFrom, "from", "", "First day YYYY-MM-DD (default: start of window)")
	topCmd.Flags().StringVar(&flagTo, "to", "", "Last day YYYY-MM-DD (default: end of window)")
	rootCmd.AddCommand(topCmd)
}

func runTop(_ *cobra.Command, _ []string) error {
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
	if since, err = overrideDay(since, flagFrom, "--from"); err != nil {
		return err
	}
	if until, err = overrideDay(until, flagTo, "--to"); err != nil {
		return err
	}
	if until.Before(since) {
		return fmt.Errorf("%w: --to is before --from", forecast.ErrConfig)
	}

	n := flagTopN
	if n <= 0 {
		n = cfg.General.TopN
	}
	top := pipeline.TopProducts(filtered, since, until, n)
	if len(top) == 0 {
		fmt.Println("\n  No sales in the selected range.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("TOP SELLERS  %s to %s", cli.FormatDate(since), cli.FormatDate(until))))
	fmt.Println()
	fmt.Print(cli.RenderTable(topTable(top)))
	return nil
}

func topTable(top []model.ProductTotal) cli.Table {
	peak := 0.0
	if len(top) > 0 {
		peak = top[0].Quantity.InexactFloat64()
	}

	rows := make([][]string, 0, len(top))
	for i, pt := range top {
		rows = append(rows, []string{
			fmt.Sprintf("%d. %s", i+1, pt.Product),
			cli.FormatQuantity(pt.Quantity),
			cli.FormatNumber(int64(pt.Transactions)),
			cli.FormatPercent(pt.SharePercent),
			cli.RenderHorizontalBar(pt.Quantity.InexactFloat64(), peak, 16),
		})
	}
	return cli.Table{
		Title:   "Top Sellers",
		Headers: []string{"Product", "Units", "Sales", "Share", ""},
		Rows:    rows,
	}
}

func overrideDay(def time.Time, value, flag string) (time.Time, error) {
	if value == "" {
		return def, nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q must be YYYY-MM-DD", forecast.ErrConfig, flag, value)
	}
	return t, nil
}

package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/kirana/internal/cli"
	"github.com/theirongolddev/kirana/internal/model"
	"github.com/theirongolddev/kirana/internal/pipeline"
	"github.com/theirongolddev/kirana/internal/source"
)

var flagSaleDate string

var addSaleCmd = &cobra.Command{
	Use:   "add-sale PRODUCT QUANTITY",
	Short: "Append a sale to the sales CSV",
	Args:  cobra.ExactArgs(2),
	RunE:  runAddSale,
}

func init() {
	addSaleCmd.Flags().StringVar(&flagSaleDate, "date", "", "Sale date (default today)")
	rootCmd.AddCommand(addSaleCmd)
}

func runAddSale(_ *cobra.Command, args []string) error {
	schema := cfg.Schema()

	qty, err := decimal.NewFromString(strings.TrimSpace(args[1]))
	if err != nil || qty.IsNegative() {
		return fmt.Errorf("quantity %q: %w", args[1], source.ErrBadQuantity)
	}

	date := pipeline.StartOfDay(time.Now())
	if flagSaleDate != "" {
		d, ok := source.ParseDate(flagSaleDate, schema)
		if !ok {
			return fmt.Errorf("date %q: %w", flagSaleDate, source.ErrBadDate)
		}
		date = d
	}

	if info, err := os.Stat(flagFile); err == nil && info.IsDir() {
		return fmt.Errorf("%s is a directory: point --file at the CSV to append to", flagFile)
	}

	sale := model.Sale{Product: args[0], Quantity: qty, Date: date}
	id, err := source.AppendSale(flagFile, schema, sale, time.Now())
	if err != nil {
		return err
	}

	log.Debug().Str("id", id).Str("file", flagFile).Msg("sale appended")
	fmt.Printf("  Recorded %s: %s x %s on %s\n", id, cli.FormatQuantity(qty), strings.TrimSpace(args[0]), cli.FormatDate(date))
	return nil
}

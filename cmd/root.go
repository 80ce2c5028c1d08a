// Package cmd implements the kirana CLI commands.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/kirana/internal/cli"
	"github.com/theirongolddev/kirana/internal/config"
	"github.com/theirongolddev/kirana/internal/logging"
	"github.com/theirongolddev/kirana/internal/model"
	"github.com/theirongolddev/kirana/internal/pipeline"
)

var (
	flagFile    string
	flagDays    int
	flagAsOf    string
	flagProduct string
	flagNoCache bool
	flagQuiet   bool
	flagVerbose bool
)

// cfg is the effective configuration: config file, then environment, then flags.
var cfg = config.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:               "kirana",
	Short:             "Sales trends and stock depletion forecasts from a sales CSV",
	Long:              "Analyze a store's sales CSV: top sellers, weekly trends, burn rates, and when stock runs out.",
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
	RunE:              runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagFile, "file", "f", "", "Sales CSV file or directory of CSVs (default from config)")
	rootCmd.PersistentFlags().IntVarP(&flagDays, "days", "n", 30, "Trailing window in days (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagAsOf, "as-of", "", "Last day of the window: YYYY-MM-DD, today or latest")
	rootCmd.PersistentFlags().StringVarP(&flagProduct, "product", "p", "", "Filter to products (substring match)")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip SQLite cache, reparse everything")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")
}

// prepare resolves the effective configuration and logging before any
// command runs. Invalid settings stop the run here.
func prepare(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	loaded, err := config.Load()
	if err != nil {
		return err
	}
	cfg = loaded

	flags := cmd.Flags()
	if flags.Changed("file") {
		cfg.General.DataFile = flagFile
	}
	if flags.Changed("days") {
		cfg.General.WindowDays = flagDays
	}
	if flags.Changed("as-of") {
		cfg.General.AsOf = flagAsOf
	}
	flagDays = cfg.General.WindowDays
	flagFile = cfg.General.DataFile

	level := cfg.Log.Level
	if flagVerbose {
		level = "debug"
	}
	logging.Setup(logging.Options{Level: level, Format: cfg.Log.Format})

	if cmd.Annotations[annotationNoValidate] != "" {
		return nil
	}
	return cfg.Validate()
}

// annotationNoValidate marks commands that must run with an invalid config,
// such as the ones used to inspect or repair it.
const annotationNoValidate = "kirana/no-validate"

// loadData is the shared data loading path used by all commands.
// Uses SQLite cache when available for fast subsequent runs.
func loadData() (*pipeline.LoadResult, error) {
	start := time.Now()
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Reading %s...\n", flagFile)
	}

	progressFn := func(current, total int) {
		if flagQuiet || total < 2 {
			return
		}
		fmt.Fprintf(os.Stderr, "\r  Parsing %s", cli.RenderProgressBar(current, total, 20))
	}

	schema := cfg.Schema()
	if flagNoCache {
		result, err := pipeline.Load(flagFile, schema, progressFn)
		if err != nil {
			return nil, err
		}
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "\r  Parsed %s sales across %d products    \n",
				cli.FormatNumber(int64(len(result.Sales))), result.ProductCount)
		}
		log.Debug().Dur("took", time.Since(start)).Int("sales", len(result.Sales)).Msg("load complete")
		return result, nil
	}

	cr, err := pipeline.LoadPreferCache(flagFile, pipeline.CachePath(), schema, progressFn)
	if err != nil {
		return nil, err
	}
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "\r  Loaded %s sales (%d products, %d cached / %d parsed files)    \n",
			cli.FormatNumber(int64(len(cr.Sales))), cr.ProductCount, cr.CacheHits, cr.Reparsed)
	}
	log.Debug().Dur("took", time.Since(start)).Int("sales", len(cr.Sales)).Msg("load complete")
	return &cr.LoadResult, nil
}

// resolveAsOf returns the last day of the analysis window.
func resolveAsOf(sales []model.Sale) (time.Time, error) {
	return pipeline.ResolveAsOf(cfg.General.AsOf, sales, time.Now())
}

// applyFilters returns filtered sales and the window bounds.
func applyFilters(sales []model.Sale) (filtered []model.Sale, since, until time.Time, err error) {
	asOf, err := resolveAsOf(sales)
	if err != nil {
		return nil, time.Time{}, time.Time{}, err
	}
	since, until, err = pipeline.WindowBounds(asOf, flagDays)
	if err != nil {
		return nil, time.Time{}, time.Time{}, err
	}
	return pipeline.FilterByProduct(sales, flagProduct), since, until, nil
}

func windowLabel(until time.Time) string {
	return fmt.Sprintf("Last %dd to %s", flagDays, cli.FormatDate(until))
}

package cmd

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/kirana/internal/cli"
	"github.com/theirongolddev/kirana/internal/config"
	"github.com/theirongolddev/kirana/internal/pipeline"
	"github.com/theirongolddev/kirana/internal/store"
)

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Show the effective configuration",
	Annotations: map[string]string{annotationNoValidate: "true"},
	RunE:        runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("  %s %s\n", cli.RenderWarning("Invalid:"), err)
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Data file:    %s\n", cfg.General.DataFile)
	fmt.Printf("    Window days:  %d\n", cfg.General.WindowDays)
	fmt.Printf("    Top N:        %d\n", cfg.General.TopN)
	asOf := cfg.General.AsOf
	if asOf == "" {
		asOf = "today"
	}
	fmt.Printf("    As of:        %s\n", asOf)
	fmt.Println()

	fmt.Println("  [Columns]")
	fmt.Printf("    Product:      %s\n", cfg.Columns.Product)
	fmt.Printf("    Quantity:     %s\n", cfg.Columns.Quantity)
	fmt.Printf("    Date:         %s\n", cfg.Columns.Date)
	fmt.Printf("    Day first:    %v\n", cfg.Columns.DayFirst)
	if len(cfg.Columns.DateFormats) > 0 {
		fmt.Printf("    Date formats: %s\n", strings.Join(cfg.Columns.DateFormats, ", "))
	}
	fmt.Println()

	fmt.Println("  [Stock]")
	fmt.Printf("    Default:      %g\n", cfg.Stock.Default)
	products := make([]string, 0, len(cfg.Stock.Levels))
	for p := range cfg.Stock.Levels {
		products = append(products, p)
	}
	sort.Strings(products)
	for _, p := range products {
		fmt.Printf("    %-13s %g\n", p+":", cfg.Stock.Levels[p])
	}
	fmt.Println()

	fmt.Println("  [Alerts]")
	fmt.Printf("    Order now:    under %d days\n", cfg.Alerts.OrderNowDays)
	fmt.Printf("    Low:          under %d days\n", cfg.Alerts.LowDays)
	fmt.Println()

	fmt.Println("  [Forecast]")
	fmt.Printf("    Horizon:      %d days\n", cfg.Forecast.HorizonDays)
	fmt.Printf("    Min records:  %d\n", cfg.Forecast.MinRecords)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme:        %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:      %s\n", cfg.Server.Addr)
	if len(cfg.Server.AllowedOrigins) > 0 {
		fmt.Printf("    CORS origins: %s\n", strings.Join(cfg.Server.AllowedOrigins, ", "))
	}
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level:        %s\n", cfg.Log.Level)
	fmt.Printf("    Format:       %s\n", cfg.Log.Format)
	fmt.Println()

	printCacheStats()

	fmt.Println("  Run `kirana setup` to reconfigure.")
	return nil
}

// printCacheStats reports the parse cache without creating it.
func printCacheStats() {
	path := pipeline.CachePath()
	fmt.Println("  [Cache]")
	fmt.Printf("    Path:         %s\n", path)
	if _, err := os.Stat(path); err != nil {
		fmt.Println("    Rows:         not created yet")
		fmt.Println()
		return
	}
	cache, err := store.Open(path)
	if err != nil {
		fmt.Printf("    Rows:         %s\n", cli.RenderWarning("unreadable: "+err.Error()))
		fmt.Println()
		return
	}
	defer cache.Close()
	files, ferr := cache.GetTrackedFiles()
	rows, rerr := cache.SaleCount()
	if ferr != nil || rerr != nil {
		fmt.Printf("    Rows:         %s\n", cli.RenderWarning("unreadable: "+errors.Join(ferr, rerr).Error()))
	} else {
		fmt.Printf("    Rows:         %s sales from %d files\n", cli.FormatNumber(int64(rows)), len(files))
	}
	fmt.Println()
}

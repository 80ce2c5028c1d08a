package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/kirana/internal/web"
)

var (
	flagServeAddr         string
	flagServeInterval     time.Duration
	flagServeEventsBuffer int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the browser dashboard and JSON API",
	RunE:  runServe,
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of a running dashboard server",
	RunE:  runServeStatus,
}

func init() {
	serveCmd.PersistentFlags().StringVar(&flagServeAddr, "addr", "", "HTTP listen address (default from config)")
	serveCmd.Flags().DurationVar(&flagServeInterval, "interval", 10*time.Second, "How often to reload the sales file")
	serveCmd.Flags().IntVar(&flagServeEventsBuffer, "events-buffer", 200, "Max in-memory events retained")
	serveCmd.Flags().StringVar(&flagStock, "stock", "", "Stock on hand for every product (default from config)")
	serveCmd.Flags().StringVar(&flagStockFile, "stock-file", "", "CSV of product,stock levels")

	serveCmd.AddCommand(serveStatusCmd)
	rootCmd.AddCommand(serveCmd)
}

func serveAddr() string {
	if flagServeAddr != "" {
		return flagServeAddr
	}
	return cfg.Server.Addr
}

func runServe(_ *cobra.Command, _ []string) error {
	levels, err := stockLevels(flagStock, flagStockFile)
	if err != nil {
		return err
	}

	svc := web.New(web.Config{
		DataFile:       flagFile,
		Schema:         cfg.Schema(),
		Days:           flagDays,
		AsOf:           cfg.General.AsOf,
		TopN:           cfg.General.TopN,
		Stock:          levels,
		Thresholds:     cfg.Thresholds(),
		Horizon:        cfg.Forecast.HorizonDays,
		MinRecords:     cfg.Forecast.MinRecords,
		UseCache:       !flagNoCache,
		Interval:       flagServeInterval,
		Addr:           serveAddr(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		EventsBuffer:   flagServeEventsBuffer,
	})

	if !flagQuiet {
		fmt.Printf("  kirana dashboard on http://%s\n", serveAddr())
		fmt.Printf("  Reloading %s every %s\n", flagFile, flagServeInterval)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runServeStatus(_ *cobra.Command, _ []string) error {
	addr := serveAddr()
	fmt.Printf("  Address: http://%s\n", addr)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/api/status") //nolint:noctx // short status check
	if err != nil {
		fmt.Printf("  Server: unreachable (%v)\n", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("  Server: HTTP %d\n", resp.StatusCode)
		return nil
	}

	var st web.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		fmt.Printf("  Server: malformed response (%v)\n", err)
		return nil
	}

	fmt.Printf("  Data file: %s\n", st.DataFile)
	if st.LastPollAt.IsZero() {
		fmt.Println("  Last reload: pending")
	} else {
		fmt.Printf("  Last reload: %s\n", st.LastPollAt.Local().Format(time.RFC3339))
	}
	fmt.Printf("  Reloads: %d\n", st.PollCount)
	fmt.Printf("  Sales: %d across %d products\n", st.Summary.Sales, st.Summary.Products)
	fmt.Printf("  Alerts: %d order now, %d low\n", st.Summary.OrderNow, st.Summary.Low)
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}

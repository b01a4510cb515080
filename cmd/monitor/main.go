// cmd/monitor: one-shot pass over the catalog, writes the dashboard
// JSON file and exits. Meant for cron or manual runs.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kwchan/pricewatch/internal/catalog"
	"github.com/kwchan/pricewatch/internal/config"
	"github.com/kwchan/pricewatch/internal/engine"
	"github.com/kwchan/pricewatch/internal/fetch"
	"github.com/kwchan/pricewatch/internal/logging"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	skus, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	limiter := rate.NewLimiter(rate.Limit(float64(cfg.RatePerMin)/60.0), cfg.Concurrency)
	fetchers := fetch.NewRegistry(fetch.NewHTMLFetcher(cfg.FetchTimeout, cfg.RetryAttempts, limiter))
	if len(cfg.APIPlatforms) > 0 {
		apiFetcher := fetch.NewAPIFetcher(cfg.FetchTimeout, cfg.RetryAttempts, limiter)
		for _, p := range cfg.APIPlatforms {
			fetchers.Register(p, apiFetcher)
		}
	}
	runner := engine.NewRunner(logger, fetchers, cfg.Threshold, cfg.SKUTimeout, cfg.Concurrency)

	snap, skipped := runner.Run(context.Background(), skus)
	for _, e := range skipped {
		fmt.Fprintf(os.Stderr, "skipped %s: %v\n", e.SKU, e.Err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(cfg.OutPath, data, 0o644); err != nil {
		log.Fatal(err)
	}

	logger.Info("monitor_run_complete",
		zap.Int("rows", len(snap.Rows)),
		zap.Int("skipped", len(skipped)),
		zap.String("out", cfg.OutPath),
	)
	fmt.Printf("wrote %s (%d rows, %d skipped)\n", cfg.OutPath, len(snap.Rows), len(skipped))
}

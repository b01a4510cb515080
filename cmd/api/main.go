package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kwchan/pricewatch/internal/catalog"
	"github.com/kwchan/pricewatch/internal/config"
	"github.com/kwchan/pricewatch/internal/engine"
	"github.com/kwchan/pricewatch/internal/fetch"
	"github.com/kwchan/pricewatch/internal/httpapi"
	"github.com/kwchan/pricewatch/internal/logging"
	"github.com/kwchan/pricewatch/internal/scheduler"
	"github.com/kwchan/pricewatch/internal/store"
	"github.com/kwchan/pricewatch/internal/store/memory"
	"github.com/kwchan/pricewatch/internal/store/sqlite"
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
		logger.Error("catalog_load_error", zap.Error(err))
		log.Fatal(err)
	}

	var snapshots store.SnapshotStore
	if cfg.DBPath != "" {
		db, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		snapshots = db
	} else {
		snapshots = memory.New()
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(logger, runner, snapshots, skus, cfg.CheckInterval)
	go sched.Run(ctx)

	api := httpapi.NewServer(logger, skus, snapshots, runner, cfg.RefreshRPM)
	srv := &http.Server{Addr: cfg.Addr, Handler: api.Router()}

	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	logger.Info("api_listen",
		zap.String("addr", cfg.Addr),
		zap.Int("skus", len(skus)),
	)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

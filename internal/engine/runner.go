package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kwchan/pricewatch/internal/catalog"
	"github.com/kwchan/pricewatch/internal/fetch"
)

// SkuError is a SKU the run could not classify. Its row is left out of
// the snapshot instead of being filled with fabricated data.
type SkuError struct {
	SKU string
	Err error
}

// Runner drives one monitoring pass: fetch every listing, aggregate,
// classify, and assemble the snapshot.
type Runner struct {
	Logger      *zap.Logger
	Fetcher     fetch.Fetcher
	Threshold   float64       // overpricing margin, currency units
	SKUTimeout  time.Duration // budget for one SKU's fetches
	Concurrency int           // parallel SKUs
}

func NewRunner(logger *zap.Logger, f fetch.Fetcher, threshold float64, skuTimeout time.Duration, concurrency int) *Runner {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if skuTimeout <= 0 {
		skuTimeout = 30 * time.Second
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		Logger:      logger,
		Fetcher:     f,
		Threshold:   threshold,
		SKUTimeout:  skuTimeout,
		Concurrency: concurrency,
	}
}

// Run processes every SKU and returns the snapshot plus the SKUs that
// had to be skipped. Fetches run concurrently across SKUs; each result
// lands in a pre-allocated slot so row order always matches catalog
// order. Fetch failures never fail the run.
func (r *Runner) Run(ctx context.Context, skus []catalog.SKU) (*Snapshot, []SkuError) {
	start := time.Now().UTC()
	rows := make([]*SkuRow, len(skus))
	skipped := make([]*SkuError, len(skus))

	sem := make(chan struct{}, r.Concurrency)
	var wg sync.WaitGroup

	for i, sku := range skus {
		i, sku := i, sku
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() { <-sem }()
			defer wg.Done()

			cctx, cancel := context.WithTimeout(ctx, r.SKUTimeout)
			defer cancel()

			row, err := r.processSKU(cctx, sku)
			if err != nil {
				skipped[i] = &SkuError{SKU: sku.Name, Err: err}
				r.Logger.Warn("sku_skipped",
					zap.String("sku", sku.Name),
					zap.Error(err),
				)
				return
			}
			rows[i] = row
		}()
	}
	wg.Wait()

	snap := &Snapshot{GeneratedAt: start}
	for _, row := range rows {
		if row != nil {
			snap.Rows = append(snap.Rows, *row)
		}
	}
	var errs []SkuError
	for _, e := range skipped {
		if e != nil {
			errs = append(errs, *e)
		}
	}
	return snap, errs
}

func (r *Runner) processSKU(ctx context.Context, sku catalog.SKU) (*SkuRow, error) {
	obs := r.collect(ctx, sku)

	client, agg, err := Aggregate(sku.Name, sku.Listings, obs)
	if err != nil {
		return nil, err
	}
	verdict := Classify(client, agg, r.Threshold)

	row := &SkuRow{
		SKU:       sku.Name,
		Platforms: make([]PlatformEntry, len(sku.Listings)),
		Action:    verdict.Action,
		Severity:  verdict.Severity,
		Color:     verdict.Severity.Color(),
	}
	for i, l := range sku.Listings {
		row.Platforms[i] = PlatformEntry{
			Name:     l.Platform,
			Role:     l.Role,
			Price:    obs[i].Price,
			InStock:  obs[i].InStock,
			URL:      l.URL,
			Selector: l.Selector,
		}
	}

	r.Logger.Debug("sku_classified",
		zap.String("sku", sku.Name),
		zap.String("action", verdict.Action),
		zap.String("severity", string(verdict.Severity)),
		zap.Float64("client_price", client.Price),
		zap.Float64("min_competitor_price", agg.MinPrice),
	)
	return row, nil
}

// collect fetches one observation per listing, in config order. A
// listing without a URL is a defined unknown, not an error; a failed
// or timed-out fetch degrades to the same unknown observation so one
// broken platform never takes down the run.
func (r *Runner) collect(ctx context.Context, sku catalog.SKU) []fetch.Observation {
	out := make([]fetch.Observation, len(sku.Listings))
	for i, l := range sku.Listings {
		if l.URL == "" {
			continue
		}
		obs, err := r.Fetcher.Fetch(ctx, l)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				r.Logger.Warn("fetch_failed",
					zap.String("sku", sku.Name),
					zap.String("platform", l.Platform),
					zap.String("url", l.URL),
					zap.Error(err),
				)
			}
			continue
		}
		out[i] = obs
	}
	return out
}

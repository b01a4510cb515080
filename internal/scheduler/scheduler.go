package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kwchan/pricewatch/internal/catalog"
	"github.com/kwchan/pricewatch/internal/engine"
	"github.com/kwchan/pricewatch/internal/store"
)

// Scheduler reruns the monitoring pass on an interval and saves each
// snapshot. Interval 0 disables periodic runs.
type Scheduler struct {
	Logger    *zap.Logger
	Runner    *engine.Runner
	Snapshots store.SnapshotStore
	Catalog   []catalog.SKU
	Interval  time.Duration
}

func New(logger *zap.Logger, r *engine.Runner, s store.SnapshotStore, skus []catalog.SKU, interval time.Duration) *Scheduler {
	if interval < 0 {
		interval = 0
	}
	return &Scheduler{
		Logger:    logger,
		Runner:    r,
		Snapshots: s,
		Catalog:   skus,
		Interval:  interval,
	}
}

// Run starts the loop. It does an immediate pass, then runs each tick.
// Stops when ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	if s.Interval == 0 {
		s.Logger.Info("scheduler_disabled")
		return
	}
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	// immediate pass
	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("scheduler_stopped")
			return
		case <-t.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce does a single pass and saves the snapshot. Skipped SKUs are
// logged; they never fail the pass.
func (s *Scheduler) RunOnce(ctx context.Context) {
	snap, skipped := s.Runner.Run(ctx, s.Catalog)
	for _, e := range skipped {
		s.Logger.Warn("run_sku_skipped",
			zap.String("sku", e.SKU),
			zap.Error(e.Err),
		)
	}
	if err := s.Snapshots.Save(ctx, snap); err != nil {
		s.Logger.Warn("run_save_error", zap.Error(err))
		return
	}
	s.Logger.Info("run_complete",
		zap.Int("rows", len(snap.Rows)),
		zap.Int("skipped", len(skipped)),
		zap.Time("generated_at", snap.GeneratedAt),
	)
}

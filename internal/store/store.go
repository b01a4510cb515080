package store

import (
	"context"
	"errors"

	"github.com/kwchan/pricewatch/internal/engine"
)

// ErrNoSnapshot means no run has completed yet.
var ErrNoSnapshot = errors.New("no snapshot available")

// SnapshotStore keeps the latest run output for the dashboard API.
// Historical runs are not retained.
type SnapshotStore interface {
	Save(ctx context.Context, s *engine.Snapshot) error
	Latest(ctx context.Context) (*engine.Snapshot, error)
}

package memory

import (
	"context"
	"sync"

	"github.com/kwchan/pricewatch/internal/engine"
	"github.com/kwchan/pricewatch/internal/store"
)

var _ store.SnapshotStore = (*Store)(nil)

// Store holds the latest snapshot in process memory.
type Store struct {
	mu     sync.RWMutex
	latest *engine.Snapshot
}

func New() *Store {
	return &Store{}
}

func (m *Store) Save(ctx context.Context, s *engine.Snapshot) error {
	cp := *s
	cp.Rows = append([]engine.SkuRow(nil), s.Rows...)

	m.mu.Lock()
	m.latest = &cp
	m.mu.Unlock()
	return nil
}

func (m *Store) Latest(ctx context.Context) (*engine.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.latest == nil {
		return nil, store.ErrNoSnapshot
	}
	cp := *m.latest
	cp.Rows = append([]engine.SkuRow(nil), m.latest.Rows...)
	return &cp, nil
}

package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kwchan/pricewatch/internal/engine"
	"github.com/kwchan/pricewatch/internal/store"
)

func TestStore_EmptyThenSaveThenOverwrite(t *testing.T) {
	ctx := context.Background()
	m := New()

	if _, err := m.Latest(ctx); !errors.Is(err, store.ErrNoSnapshot) {
		t.Fatalf("want ErrNoSnapshot, got %v", err)
	}

	first := &engine.Snapshot{
		GeneratedAt: time.Now().UTC(),
		Rows:        []engine.SkuRow{{SKU: "A", Action: "Monitor", Severity: engine.SeverityNeutral}},
	}
	if err := m.Save(ctx, first); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := m.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(got.Rows) != 1 || got.Rows[0].SKU != "A" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}

	// mutating the returned copy must not leak into the store
	got.Rows[0].SKU = "MUTATED"
	again, _ := m.Latest(ctx)
	if again.Rows[0].SKU != "A" {
		t.Fatal("Latest returned shared state")
	}

	second := &engine.Snapshot{GeneratedAt: time.Now().UTC(), Rows: []engine.SkuRow{{SKU: "B"}}}
	if err := m.Save(ctx, second); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ = m.Latest(ctx)
	if got.Rows[0].SKU != "B" {
		t.Fatalf("save should overwrite, got %+v", got)
	}
}

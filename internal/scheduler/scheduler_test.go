package scheduler

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kwchan/pricewatch/internal/catalog"
	"github.com/kwchan/pricewatch/internal/engine"
	"github.com/kwchan/pricewatch/internal/fetch"
	"github.com/kwchan/pricewatch/internal/store/memory"
)

func staticFetcher(obs fetch.Observation) fetch.Fetcher {
	return fetch.FetchFunc(func(ctx context.Context, l catalog.Listing) (fetch.Observation, error) {
		return obs, nil
	})
}

func testCatalog() []catalog.SKU {
	return []catalog.SKU{{
		Name: "CAM-01",
		Listings: []catalog.Listing{
			{Platform: "OwnShop", Role: catalog.RoleClient, URL: "u://own"},
			{Platform: "Fortress", Role: catalog.RoleCompetitor, URL: "u://f"},
		},
	}}
}

func TestRunOnce_SavesSnapshot(t *testing.T) {
	st := memory.New()
	r := engine.NewRunner(zap.NewNop(), staticFetcher(fetch.Observation{Price: 4000, InStock: true}), engine.DefaultThreshold, time.Second, 1)
	s := New(zap.NewNop(), r, st, testCatalog(), time.Minute)

	s.RunOnce(context.Background())

	snap, err := st.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(snap.Rows) != 1 || snap.Rows[0].SKU != "CAM-01" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestRun_ZeroIntervalDisabled(t *testing.T) {
	st := memory.New()
	r := engine.NewRunner(zap.NewNop(), staticFetcher(fetch.Observation{}), engine.DefaultThreshold, time.Second, 1)
	s := New(zap.NewNop(), r, st, testCatalog(), 0)

	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run with interval 0 should return immediately")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	st := memory.New()
	r := engine.NewRunner(zap.NewNop(), staticFetcher(fetch.Observation{Price: 1, InStock: true}), engine.DefaultThreshold, time.Second, 1)
	s := New(zap.NewNop(), r, st, testCatalog(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancel")
	}

	if _, err := st.Latest(context.Background()); err != nil {
		t.Fatalf("expected at least one saved snapshot: %v", err)
	}
}

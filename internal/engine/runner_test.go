package engine

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kwchan/pricewatch/internal/catalog"
	"github.com/kwchan/pricewatch/internal/fetch"
)

// fakeFetcher serves canned observations by URL. A URL mapped to an
// error fails that fetch; a delay scrambles completion order.
type fakeFetcher struct {
	obs   map[string]fetch.Observation
	fail  map[string]error
	delay map[string]time.Duration
	calls int64
}

func (f *fakeFetcher) Fetch(ctx context.Context, l catalog.Listing) (fetch.Observation, error) {
	atomic.AddInt64(&f.calls, 1)
	if d := f.delay[l.URL]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return fetch.Observation{}, ctx.Err()
		}
	}
	if err := f.fail[l.URL]; err != nil {
		return fetch.Observation{}, err
	}
	return f.obs[l.URL], nil
}

func testSKU(name string, ls ...catalog.Listing) catalog.SKU {
	return catalog.SKU{Name: name, Listings: ls}
}

func TestRunner_RowOrderMatchesCatalogOrder(t *testing.T) {
	ff := &fakeFetcher{
		obs: map[string]fetch.Observation{
			"u://a": {Price: 4000, InStock: true},
			"u://b": {Price: 3000, InStock: true},
			"u://c": {Price: 2000, InStock: true},
		},
		delay: map[string]time.Duration{
			"u://a": 60 * time.Millisecond, // first SKU finishes last
		},
	}
	skus := []catalog.SKU{
		testSKU("S1", catalog.Listing{Platform: "Own", Role: catalog.RoleClient, URL: "u://a"}),
		testSKU("S2", catalog.Listing{Platform: "Own", Role: catalog.RoleClient, URL: "u://b"}),
		testSKU("S3", catalog.Listing{Platform: "Own", Role: catalog.RoleClient, URL: "u://c"}),
	}

	r := NewRunner(zap.NewNop(), ff, DefaultThreshold, 5*time.Second, 3)
	snap, errs := r.Run(context.Background(), skus)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	var got []string
	for _, row := range snap.Rows {
		got = append(got, row.SKU)
	}
	want := []string{"S1", "S2", "S3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("row order %v, want %v", got, want)
	}
	if snap.GeneratedAt.IsZero() {
		t.Fatal("snapshot timestamp not set")
	}
}

func TestRunner_EmptyURLSkipsFetcher(t *testing.T) {
	ff := &fakeFetcher{obs: map[string]fetch.Observation{}}
	skus := []catalog.SKU{testSKU("S1",
		catalog.Listing{Platform: "Own", Role: catalog.RoleClient, URL: ""},
		catalog.Listing{Platform: "Comp", Role: catalog.RoleCompetitor, URL: ""},
	)}

	r := NewRunner(zap.NewNop(), ff, DefaultThreshold, time.Second, 1)
	snap, errs := r.Run(context.Background(), skus)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if n := atomic.LoadInt64(&ff.calls); n != 0 {
		t.Fatalf("fetcher invoked %d times for empty URLs", n)
	}
	row := snap.Rows[0]
	if row.Platforms[0].Price != 0 || row.Platforms[0].InStock {
		t.Fatalf("empty URL must observe {0 false}, got %+v", row.Platforms[0])
	}
	// unknown client observation reads as out of stock
	if row.Action != "STOP (Out of Stock)" {
		t.Fatalf("want STOP (Out of Stock), got %q", row.Action)
	}
}

func TestRunner_FetchFailureIsolatedPerPlatform(t *testing.T) {
	ff := &fakeFetcher{
		obs: map[string]fetch.Observation{
			"u://own":  {Price: 4000, InStock: true},
			"u://good": {Price: 4300, InStock: true},
		},
		fail: map[string]error{
			"u://bad": errors.New("connection reset"),
		},
	}
	skus := []catalog.SKU{testSKU("S1",
		catalog.Listing{Platform: "Own", Role: catalog.RoleClient, URL: "u://own"},
		catalog.Listing{Platform: "Bad", Role: catalog.RoleCompetitor, URL: "u://bad"},
		catalog.Listing{Platform: "Good", Role: catalog.RoleCompetitor, URL: "u://good"},
	)}

	r := NewRunner(zap.NewNop(), ff, DefaultThreshold, time.Second, 1)
	snap, errs := r.Run(context.Background(), skus)
	if len(errs) != 0 {
		t.Fatalf("fetch failure must not skip the SKU: %+v", errs)
	}
	row := snap.Rows[0]
	if row.Platforms[1].Price != 0 || row.Platforms[1].InStock {
		t.Fatalf("failed fetch must degrade to unknown, got %+v", row.Platforms[1])
	}
	if row.Platforms[2].Price != 4300 {
		t.Fatalf("healthy platform lost: %+v", row.Platforms[2])
	}
	if row.Action != "PUSH (Best Price)" {
		t.Fatalf("want PUSH (Best Price) against the 4300 competitor, got %q", row.Action)
	}
}

func TestRunner_MisconfiguredSKUReportedAndExcluded(t *testing.T) {
	ff := &fakeFetcher{
		obs: map[string]fetch.Observation{
			"u://own": {Price: 4000, InStock: true},
		},
	}
	skus := []catalog.SKU{
		testSKU("GOOD", catalog.Listing{Platform: "Own", Role: catalog.RoleClient, URL: "u://own"}),
		testSKU("NOCLIENT", catalog.Listing{Platform: "Comp", Role: catalog.RoleCompetitor, URL: "u://own"}),
		testSKU("TWOCLIENTS",
			catalog.Listing{Platform: "A", Role: catalog.RoleClient, URL: "u://own"},
			catalog.Listing{Platform: "B", Role: catalog.RoleClient, URL: "u://own"},
		),
	}

	r := NewRunner(zap.NewNop(), ff, DefaultThreshold, time.Second, 2)
	snap, errs := r.Run(context.Background(), skus)
	if len(snap.Rows) != 1 || snap.Rows[0].SKU != "GOOD" {
		t.Fatalf("only the valid SKU should produce a row, got %+v", snap.Rows)
	}
	if len(errs) != 2 {
		t.Fatalf("want 2 skipped SKUs, got %+v", errs)
	}
	for _, e := range errs {
		var rcErr *RoleCountError
		if !errors.As(e.Err, &rcErr) {
			t.Fatalf("want RoleCountError, got %v", e.Err)
		}
	}
}

func TestRunner_TimeoutDegradesToUnknown(t *testing.T) {
	ff := &fakeFetcher{
		obs: map[string]fetch.Observation{
			"u://fast": {Price: 4000, InStock: true},
			"u://slow": {Price: 3000, InStock: true},
		},
		delay: map[string]time.Duration{
			"u://slow": 500 * time.Millisecond,
		},
	}
	skus := []catalog.SKU{testSKU("S1",
		catalog.Listing{Platform: "Own", Role: catalog.RoleClient, URL: "u://fast"},
		catalog.Listing{Platform: "Slow", Role: catalog.RoleCompetitor, URL: "u://slow"},
	)}

	r := NewRunner(zap.NewNop(), ff, DefaultThreshold, 50*time.Millisecond, 1)
	snap, errs := r.Run(context.Background(), skus)
	if len(errs) != 0 {
		t.Fatalf("timeout must not skip the SKU: %+v", errs)
	}
	row := snap.Rows[0]
	if row.Platforms[1].Price != 0 || row.Platforms[1].InStock {
		t.Fatalf("timed-out fetch must degrade to unknown, got %+v", row.Platforms[1])
	}
	if row.Platforms[0].Price != 4000 {
		t.Fatalf("fast platform lost: %+v", row.Platforms[0])
	}
}

func TestSnapshot_JSONRoundTrip(t *testing.T) {
	snap := &Snapshot{
		GeneratedAt: time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC),
		Rows: []SkuRow{
			{
				SKU: "CAM-01",
				Platforms: []PlatformEntry{
					{Name: "OwnShop", Role: catalog.RoleClient, Price: 4000, InStock: true, URL: "https://own.example/cam", Selector: ".price"},
					{Name: "Fortress", Role: catalog.RoleCompetitor, Price: 4300, InStock: false, URL: "https://fortress.example/cam", Selector: "#p"},
				},
				Action:   "Monitor",
				Severity: SeverityNeutral,
				Color:    "gray",
			},
			{
				SKU:       "LENS-02",
				Platforms: []PlatformEntry{{Name: "OwnShop", Role: catalog.RoleClient, URL: "https://own.example/lens"}},
				Action:    "STOP (Out of Stock)",
				Severity:  SeverityCritical,
				Color:     "red",
			},
		},
	}

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Snapshot
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(*snap, back) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", *snap, back)
	}
}

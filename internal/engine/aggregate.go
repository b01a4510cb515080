package engine

import (
	"fmt"

	"github.com/kwchan/pricewatch/internal/catalog"
	"github.com/kwchan/pricewatch/internal/fetch"
)

// RoleCountError reports a SKU whose listings do not contain exactly
// one client role. It is a configuration problem, never resolved by
// picking one.
type RoleCountError struct {
	SKU     string
	Clients int
}

func (e *RoleCountError) Error() string {
	return fmt.Sprintf("sku %q: want exactly 1 client listing, have %d", e.SKU, e.Clients)
}

// Aggregate splits a SKU's observations into the client observation and
// the competitor aggregate.
//
// The two aggregates intentionally see different competitor sets:
// MinPrice only considers competitors with a known (>0) price, while
// AllOutOfStock considers every competitor — a shop can be confirmed
// sold out even when its price could not be read.
func Aggregate(sku string, listings []catalog.Listing, obs []fetch.Observation) (fetch.Observation, CompetitorAggregate, error) {
	var (
		client      fetch.Observation
		clients     int
		agg         CompetitorAggregate
		competitors int
		anyInStock  bool
	)

	for i, l := range listings {
		if l.Role == catalog.RoleClient {
			clients++
			client = obs[i]
			continue
		}
		competitors++
		if obs[i].InStock {
			anyInStock = true
		}
		if p := obs[i].Price; p > 0 && (agg.MinPrice == 0 || p < agg.MinPrice) {
			agg.MinPrice = p
		}
	}

	if clients != 1 {
		return fetch.Observation{}, CompetitorAggregate{}, &RoleCountError{SKU: sku, Clients: clients}
	}
	agg.AllOutOfStock = competitors > 0 && !anyInStock
	return client, agg, nil
}

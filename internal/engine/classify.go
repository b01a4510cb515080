package engine

import (
	"fmt"
	"math"

	"github.com/kwchan/pricewatch/internal/fetch"
)

// DefaultThreshold is the overpricing margin in currency units: the
// client listing may sit this far above the cheapest competitor before
// it is flagged.
const DefaultThreshold = 300

// Verdict is the recommended action for one SKU.
type Verdict struct {
	Action   string
	Severity Severity
}

// Classify picks the action for a SKU. Rules are checked in priority
// order and the first match wins:
//
//  1. client out of stock            -> STOP (critical)
//  2. client above cheapest + margin -> STOP (critical)
//  3. every competitor out of stock  -> PUSH (opportunity)
//  4. client cheapest                -> PUSH (opportunity)
//  5. otherwise                      -> Monitor
//
// An unknown client price (0) can never trigger the price rules; it
// falls through to 3 or 5. Matching the cheapest competitor exactly is
// not an advantage, it lands on Monitor.
func Classify(client fetch.Observation, agg CompetitorAggregate, threshold float64) Verdict {
	switch {
	case !client.InStock:
		return Verdict{Action: "STOP (Out of Stock)", Severity: SeverityCritical}
	case agg.MinPrice > 0 && client.Price > agg.MinPrice+threshold:
		diff := math.Round(client.Price - agg.MinPrice)
		return Verdict{Action: fmt.Sprintf("STOP (Price +$%.0f)", diff), Severity: SeverityCritical}
	case agg.AllOutOfStock:
		return Verdict{Action: "PUSH (Competitors Out of Stock)", Severity: SeverityOpportunity}
	case agg.MinPrice > 0 && client.Price > 0 && client.Price < agg.MinPrice:
		return Verdict{Action: "PUSH (Best Price)", Severity: SeverityOpportunity}
	}
	return Verdict{Action: "Monitor", Severity: SeverityNeutral}
}

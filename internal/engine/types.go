package engine

import (
	"time"

	"github.com/kwchan/pricewatch/internal/catalog"
)

// Severity tags an action for the dashboard.
type Severity string

const (
	SeverityNeutral     Severity = "neutral"
	SeverityCritical    Severity = "critical"
	SeverityOpportunity Severity = "opportunity"
)

// Color returns the dashboard color for a severity.
func (s Severity) Color() string {
	switch s {
	case SeverityCritical:
		return "red"
	case SeverityOpportunity:
		return "green"
	}
	return "gray"
}

// PlatformEntry is one listing's observed state inside a snapshot row.
// URL and selector ride along so a row can be traced back to its
// configuration without the config file at hand.
type PlatformEntry struct {
	Name     string       `json:"name"`
	Role     catalog.Role `json:"role"`
	Price    float64      `json:"price"`
	InStock  bool         `json:"in_stock"`
	URL      string       `json:"url"`
	Selector string       `json:"selector,omitempty"`
}

// SkuRow is the classified state of one SKU.
type SkuRow struct {
	SKU       string          `json:"sku"`
	Platforms []PlatformEntry `json:"platforms"`
	Action    string          `json:"action"`
	Severity  Severity        `json:"severity"`
	Color     string          `json:"color"`
}

// Snapshot is one full run's output, rows in catalog order.
type Snapshot struct {
	GeneratedAt time.Time `json:"generated_at"`
	Rows        []SkuRow  `json:"rows"`
}

// CompetitorAggregate summarizes a SKU's competitor observations.
// MinPrice is the cheapest competitor with a known price, 0 if none.
// AllOutOfStock is true only for a non-empty competitor set with no
// stock anywhere.
type CompetitorAggregate struct {
	MinPrice      float64
	AllOutOfStock bool
}

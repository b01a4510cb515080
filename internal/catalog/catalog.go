package catalog

import "fmt"

// Role marks whose listing a platform entry is.
type Role string

const (
	RoleClient     Role = "client"
	RoleCompetitor Role = "competitor"
)

// ParseRole accepts the role strings the discovery tool writes. Older
// config files used a "type" key with the same values.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleClient:
		return RoleClient, nil
	case RoleCompetitor:
		return RoleCompetitor, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Listing identifies one monitored product page on one platform.
//
// Selector is the CSS selector (or JSON path, for API-backed platforms)
// the discovery tool recorded for the price element. StockSelector is
// optional; fetchers fall back to a sold-out marker heuristic without it.
type Listing struct {
	Platform      string `json:"name" yaml:"name"`
	Role          Role   `json:"role" yaml:"role"`
	URL           string `json:"url" yaml:"url"`
	Selector      string `json:"selector,omitempty" yaml:"selector,omitempty"`
	StockSelector string `json:"stock_selector,omitempty" yaml:"stock_selector,omitempty"`
}

// SKU is one tracked product with its listings, in config order.
type SKU struct {
	Name     string
	Listings []Listing
}

// ClientCount reports how many listings carry the client role. Exactly
// one is required for a SKU to be classifiable.
func (s SKU) ClientCount() int {
	n := 0
	for _, l := range s.Listings {
		if l.Role == RoleClient {
			n++
		}
	}
	return n
}

// ConfigError is a structural problem in the listing configuration.
// SKU is empty when the whole file is unusable.
type ConfigError struct {
	Path   string
	SKU    string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.SKU != "" {
		return fmt.Sprintf("config %s: sku %q: %s", e.Path, e.SKU, e.Reason)
	}
	return fmt.Sprintf("config %s: %s", e.Path, e.Reason)
}

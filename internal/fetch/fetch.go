package fetch

import (
	"context"

	"github.com/kwchan/pricewatch/internal/catalog"
)

// Observation is what a fetcher reads off one listing. Price 0 means
// unknown/unavailable, never free.
type Observation struct {
	Price   float64
	InStock bool
}

// Fetcher reads the current price and availability of one listing.
// Implementations must be safe for concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, l catalog.Listing) (Observation, error)
}

// FetchFunc adapts a function to the Fetcher interface.
type FetchFunc func(ctx context.Context, l catalog.Listing) (Observation, error)

func (f FetchFunc) Fetch(ctx context.Context, l catalog.Listing) (Observation, error) {
	return f(ctx, l)
}

// Registry routes a listing to the fetcher registered for its platform,
// falling back to a default. Platforms with JSON product APIs register
// an APIFetcher; everything else goes through the HTML fallback.
type Registry struct {
	fetchers map[string]Fetcher
	fallback Fetcher
}

func NewRegistry(fallback Fetcher) *Registry {
	return &Registry{
		fetchers: make(map[string]Fetcher),
		fallback: fallback,
	}
}

func (r *Registry) Register(platform string, f Fetcher) {
	r.fetchers[platform] = f
}

func (r *Registry) Fetch(ctx context.Context, l catalog.Listing) (Observation, error) {
	if f, ok := r.fetchers[l.Platform]; ok {
		return f.Fetch(ctx, l)
	}
	return r.fallback.Fetch(ctx, l)
}

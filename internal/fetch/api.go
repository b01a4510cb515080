package fetch

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/kwchan/pricewatch/internal/catalog"
)

// APIFetcher reads listings whose platforms expose a JSON product
// endpoint. The listing's selector fields are gjson paths; PricePath
// and StockPath are the platform defaults used when a listing leaves
// them empty.
type APIFetcher struct {
	client    *retryablehttp.Client
	limiter   *rate.Limiter
	PricePath string
	StockPath string
}

func NewAPIFetcher(timeout time.Duration, retries int, limiter *rate.Limiter) *APIFetcher {
	c := retryablehttp.NewClient()
	c.RetryMax = retries
	c.HTTPClient.Timeout = timeout
	c.Logger = nil
	return &APIFetcher{
		client:    c,
		limiter:   limiter,
		PricePath: "price",
		StockPath: "in_stock",
	}
}

func (f *APIFetcher) Fetch(ctx context.Context, l catalog.Listing) (Observation, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return Observation{}, err
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", l.URL, nil)
	if err != nil {
		return Observation{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return Observation{}, fmt.Errorf("get %s: %w", l.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Observation{}, fmt.Errorf("get %s: status %d", l.URL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Observation{}, fmt.Errorf("read %s: %w", l.URL, err)
	}
	if !gjson.ValidBytes(body) {
		return Observation{}, fmt.Errorf("get %s: not valid JSON", l.URL)
	}

	pricePath := l.Selector
	if pricePath == "" {
		pricePath = f.PricePath
	}
	stockPath := l.StockSelector
	if stockPath == "" {
		stockPath = f.StockPath
	}

	price := gjson.GetBytes(body, pricePath).Float()
	if price < 0 {
		price = 0
	}
	return Observation{
		Price:   price,
		InStock: gjson.GetBytes(body, stockPath).Bool(),
	}, nil
}

package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/kwchan/pricewatch/internal/catalog"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// soldOutMarkers cover the storefronts we currently monitor. HK shops
// mix English and Chinese labels on the same page.
var soldOutMarkers = []string{
	"out of stock",
	"sold out",
	"unavailable",
	"缺貨",
	"售罄",
	"暫無存貨",
}

// HTMLFetcher scrapes a product page and extracts price and stock via
// the CSS selectors recorded in the listing config.
type HTMLFetcher struct {
	client    *retryablehttp.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewHTMLFetcher builds a fetcher with retrying transport. limiter may
// be nil to disable request pacing.
func NewHTMLFetcher(timeout time.Duration, retries int, limiter *rate.Limiter) *HTMLFetcher {
	c := retryablehttp.NewClient()
	c.RetryMax = retries
	c.HTTPClient.Timeout = timeout
	c.Logger = nil
	return &HTMLFetcher{
		client:    c,
		limiter:   limiter,
		userAgent: defaultUserAgent,
	}
}

func (f *HTMLFetcher) Fetch(ctx context.Context, l catalog.Listing) (Observation, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return Observation{}, err
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", l.URL, nil)
	if err != nil {
		return Observation{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", "en,zh-HK")

	resp, err := f.client.Do(req)
	if err != nil {
		return Observation{}, fmt.Errorf("get %s: %w", l.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Observation{}, fmt.Errorf("get %s: status %d", l.URL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Observation{}, fmt.Errorf("parse %s: %w", l.URL, err)
	}

	var obs Observation
	if l.Selector != "" {
		obs.Price = ParsePrice(doc.Find(l.Selector).First().Text())
	}
	obs.InStock = stockFromDoc(doc, l.StockSelector)
	return obs, nil
}

// stockFromDoc decides availability. With a configured selector the
// matched element's text is checked for sold-out markers (an empty
// match means the availability block is gone, i.e. not purchasable).
// Without one, the whole page text is scanned.
func stockFromDoc(doc *goquery.Document, selector string) bool {
	var text string
	if selector != "" {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			return false
		}
		text = sel.Text()
	} else {
		text = doc.Find("body").Text()
	}
	text = strings.ToLower(text)
	for _, m := range soldOutMarkers {
		if strings.Contains(text, m) {
			return false
		}
	}
	return true
}

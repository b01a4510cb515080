// cmd/preflight: sanity-check the environment and listing config
// before deploying a monitoring run.
package main

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/kwchan/pricewatch/internal/catalog"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	path := strings.TrimSpace(os.Getenv("CATALOG_PATH"))
	if path == "" {
		path = "generated_config.json"
		warn("CATALOG_PATH empty; using default " + path)
	}

	if v := strings.TrimSpace(os.Getenv("PRICE_THRESHOLD")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err != nil || f <= 0 {
			fail("PRICE_THRESHOLD must be a positive number, got " + v)
		} else {
			ok("PRICE_THRESHOLD=" + v)
		}
	}

	skus, err := catalog.Load(path)
	if err != nil {
		fail(err.Error())
	}
	ok(fmt.Sprintf("catalog loaded: %d SKUs", len(skus)))

	bad := 0
	for _, s := range skus {
		if n := s.ClientCount(); n != 1 {
			warn(fmt.Sprintf("sku %q has %d client listings (want 1); it will be skipped at run time", s.Name, n))
			bad++
		}
		for _, l := range s.Listings {
			if l.URL == "" {
				warn(fmt.Sprintf("sku %q platform %q has no URL; it will read as unknown", s.Name, l.Platform))
				continue
			}
			if _, err := url.ParseRequestURI(l.URL); err != nil {
				warn(fmt.Sprintf("sku %q platform %q has unparsable URL %q", s.Name, l.Platform, l.URL))
			}
			if l.Selector == "" {
				warn(fmt.Sprintf("sku %q platform %q has no price selector; price will read as unknown", s.Name, l.Platform))
			}
		}
	}
	if bad == len(skus) {
		fail("every SKU is misconfigured; a run would produce an empty snapshot")
	}

	if db := strings.TrimSpace(os.Getenv("DB_PATH")); db == "" {
		warn("DB_PATH empty — API will use the in-memory snapshot store.")
	} else {
		ok("DB_PATH=" + db)
	}

	ok("preflight passed")
}

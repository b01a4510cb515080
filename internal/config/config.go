package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr        string // API bind address, e.g., "127.0.0.1:8080" (Windows) or ":8080" (Docker)
	LogDir      string // logs directory
	CatalogPath string // listing config produced by the URL discovery tool
	DBPath      string // sqlite snapshot file (empty means in-memory store)
	OutPath     string // dashboard JSON written by the one-shot monitor

	Threshold     float64       // overpricing margin in currency units
	FetchTimeout  time.Duration // per-request budget
	SKUTimeout    time.Duration // budget for all of one SKU's fetches
	CheckInterval time.Duration // periodic run interval (0 disables)
	Concurrency   int           // SKUs fetched in parallel
	RatePerMin    int           // outbound requests per minute across all fetchers
	RetryAttempts int           // HTTP retries per fetch
	RefreshRPM    int           // /api/refresh rate limit, requests per minute

	APIPlatforms []string // platforms served by a JSON endpoint instead of HTML
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func FromEnv() Config {
	addr := os.Getenv("API_ADDR")
	if addr == "" {
		addr = "127.0.0.1:8080"
	}

	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}

	catalogPath := os.Getenv("CATALOG_PATH")
	if catalogPath == "" {
		catalogPath = "generated_config.json"
	}

	outPath := os.Getenv("OUT_PATH")
	if outPath == "" {
		outPath = "dashboard_data.json"
	}

	threshold := 300.0
	if v := os.Getenv("PRICE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			threshold = f
		}
	}

	fetchTimeout := 10 * time.Second
	if v := os.Getenv("FETCH_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			fetchTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	skuTimeout := 45 * time.Second
	if v := os.Getenv("SKU_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			skuTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	checkInterval := time.Duration(0)
	if v := os.Getenv("CHECK_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			checkInterval = time.Duration(ms) * time.Millisecond
		}
	}

	concurrency := 4
	if v := os.Getenv("MAX_CONCURRENT_SKUS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			concurrency = n
		}
	}

	ratePerMin := 60
	if v := os.Getenv("RATE_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ratePerMin = n
		}
	}

	retryAttempts := 2
	if v := os.Getenv("RETRY_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			retryAttempts = n
		}
	}

	refreshRPM := 6
	if v := os.Getenv("REFRESH_RPM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			refreshRPM = n
		}
	}

	return Config{
		Addr:          addr,
		LogDir:        logDir,
		CatalogPath:   catalogPath,
		DBPath:        os.Getenv("DB_PATH"),
		OutPath:       outPath,
		Threshold:     threshold,
		FetchTimeout:  fetchTimeout,
		SKUTimeout:    skuTimeout,
		CheckInterval: checkInterval,
		Concurrency:   concurrency,
		RatePerMin:    ratePerMin,
		RetryAttempts: retryAttempts,
		RefreshRPM:    refreshRPM,
		APIPlatforms:  splitList(os.Getenv("API_PLATFORMS")),
	}
}

package middleware

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimit caps how often the wrapped handler may fire, shared across
// all callers. It guards the refresh endpoint: every hit triggers a
// full scrape pass against external shops, so a browser hammering
// reload must not turn into a crawl storm.
// Example: RateLimit(6, 2) => 6 req/min with burst 2.
func RateLimit(reqPerMin int, burst int) func(http.Handler) http.Handler {
	if reqPerMin <= 0 {
		// disabled
		return func(next http.Handler) http.Handler { return next }
	}
	if burst < 1 {
		burst = 1
	}
	l := rate.NewLimiter(rate.Limit(float64(reqPerMin)/60.0), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

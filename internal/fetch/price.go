package fetch

import (
	"strconv"
	"strings"
)

// ParsePrice turns scraped price text into a number. Currency marks and
// thousands separators are stripped first; anything that still fails to
// parse is an unknown price (0), not an error.
func ParsePrice(s string) float64 {
	clean := strings.NewReplacer("$", "", ",", "", "HKD", "", "HK", "").Replace(s)
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return 0
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

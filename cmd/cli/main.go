// cmd/cli: trigger a refresh against a running API and print the
// resulting actions, one line per SKU.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/kwchan/pricewatch/internal/engine"
)

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}

	resp, err := http.Post(api+"/api/refresh", "application/json", nil)
	if err != nil {
		fmt.Println("Error contacting API:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fmt.Println("API returned status:", resp.Status)
		os.Exit(1)
	}

	var out struct {
		Snapshot engine.Snapshot `json:"snapshot"`
		Skipped  []struct {
			SKU    string `json:"sku"`
			Reason string `json:"reason"`
		} `json:"skipped"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Println("Bad response:", err)
		os.Exit(1)
	}

	fmt.Println("Snapshot", out.Snapshot.GeneratedAt.Format("2006-01-02 15:04"))
	for _, row := range out.Snapshot.Rows {
		fmt.Printf("%-20s %s\n", row.SKU, row.Action)
	}
	for _, s := range out.Skipped {
		fmt.Fprintf(os.Stderr, "skipped %s: %s\n", s.SKU, s.Reason)
	}
}

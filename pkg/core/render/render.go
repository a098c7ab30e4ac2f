// Package render formats the final listing set for output.
package render

import (
	"fmt"
	"io"
	"sort"
	"time"

	"occlistings/pkg/core/listings"
)

// Report writes the deduplicated listings sorted by (date, ticker)
// ascending, preceded by a header naming the source URL and the
// activation window. Writes only to w; stdout in production.
func Report(w io.Writer, byTicker map[string]listings.Listing, sourceURL string, today time.Time) {
	fmt.Fprintf(w, "OCC new listings sourced from: %s\n", sourceURL)
	fmt.Fprintf(w, "Activation window: %s through future dates (EST)\n\n",
		listings.WindowStart(today).Format("2006-01-02"))

	sorted := make([]listings.Listing, 0, len(byTicker))
	for _, listing := range byTicker {
		sorted = append(sorted, listing)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].Ticker < sorted[j].Ticker
	})

	if len(sorted) == 0 {
		fmt.Fprintln(w, "No qualifying tickers in the current window.")
		return
	}

	for _, listing := range sorted {
		flag := "listing"
		if listing.Flag != "" {
			flag = listing.Flag + "-listing"
		}
		fmt.Fprintf(w, "%-6s %s  [%s]  %s (Exchange: %s)\n",
			listing.Ticker,
			listing.Date.Format("2006-01-02"),
			flag,
			listing.Company,
			listing.Exchange)
	}
}

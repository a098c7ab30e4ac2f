// Package listings locates the current month's CSV report and turns
// its rows into deduplicated Listing records.
package listings

import (
	"encoding/csv"
	"io"
	"strings"
	"time"
)

// Listing is one qualifying row of the monthly report. Immutable once
// built; held in memory only for the duration of one run.
type Listing struct {
	Ticker   string
	Date     time.Time
	Company  string
	Exchange string
	Flag     string // "N" new, "E" extension, or empty
}

// dateLayout is the fixed activation-date format in the CSV feed.
const dateLayout = "01/02/2006"

// WindowStart returns the inclusive lower bound of the activation
// window: two days before today. There is no upper bound.
func WindowStart(today time.Time) time.Time {
	return today.AddDate(0, 0, -2)
}

// DateOnly strips the clock and zone, leaving a comparable calendar
// date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthSlug returns the lowercase full month name used in the report
// permalinks, e.g. "june".
func MonthSlug(t time.Time) string {
	return strings.ToLower(t.Month().String())
}

// ParseCSV iterates the report rows and deduplicates by ticker,
// keeping the earliest activation date inside the window. Rows with
// an empty ticker or an unparseable date are dropped silently, and no
// row is ever fatal: a half-broken feed still yields the good rows.
func ParseCSV(text string, today time.Time) map[string]Listing {
	result := make(map[string]Listing)

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return result
	}
	columns := headerIndex(header)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		ticker := strings.ToUpper(strings.TrimSpace(field(record, columns, "Stock Symbol")))
		if ticker == "" {
			continue
		}

		rowDate, err := time.Parse(dateLayout, strings.TrimSpace(field(record, columns, "Date")))
		if err != nil {
			continue
		}
		if rowDate.Before(WindowStart(today)) {
			continue
		}

		listing := Listing{
			Ticker:   ticker,
			Date:     rowDate,
			Company:  strings.TrimSpace(field(record, columns, "Company")),
			Exchange: strings.TrimSpace(field(record, columns, "Exchange")),
			Flag:     strings.ToUpper(strings.TrimSpace(field(record, columns, "N/E"))),
		}

		existing, ok := result[ticker]
		if !ok || rowDate.Before(existing.Date) {
			result[ticker] = listing
		}
	}

	return result
}

// headerIndex maps trimmed column names to positions. The date column
// sometimes carries the format in its header ("Date (MM/DD/YYYY)"),
// so any header starting with "Date" aliases to "Date".
func headerIndex(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		columns[name] = i
		if _, ok := columns["Date"]; !ok && strings.HasPrefix(name, "Date") {
			columns["Date"] = i
		}
	}
	return columns
}

// field reads a column by name, treating missing columns and short
// records as empty.
func field(record []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

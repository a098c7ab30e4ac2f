// Package resolve turns the discovered configuration into concrete
// request inputs: the target report year and the flat query-parameter
// set for the report-listing endpoint.
package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"occlistings/pkg/core/discovery"
	"occlistings/pkg/core/faults"
	"occlistings/pkg/core/settings"
	"occlistings/pkg/core/webclient"
)

// Resolver answers year and query-parameter questions for one run.
type Resolver struct {
	client *webclient.Client
	cfg    settings.Settings
	logger *zap.Logger
}

// New creates a resolver bound to the run's client and settings.
func New(client *webclient.Client, cfg settings.Settings, logger *zap.Logger) *Resolver {
	return &Resolver{client: client, cfg: cfg, logger: logger}
}

// TargetYear fetches the available report years and picks one: the
// year matching now's year in the reference zone when available, else
// the largest year strictly below it, else the newest year offered.
func (r *Resolver) TargetYear(ctx context.Context, yearsURL string, now time.Time) (int, error) {
	body, _, err := r.client.Get(ctx, yearsURL, nil, r.cfg.MetadataTimeout)
	if err != nil {
		return 0, &faults.DataError{Msg: "unable to load available years", Err: err}
	}

	var rawYears []string
	if err := json.Unmarshal(body, &rawYears); err != nil {
		return 0, &faults.DataError{Msg: "years endpoint did not return a JSON array of strings", Err: err}
	}

	seen := make(map[int]struct{}, len(rawYears))
	years := make([]int, 0, len(rawYears))
	for _, raw := range rawYears {
		year, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return 0, &faults.DataError{Msg: fmt.Sprintf("malformed year value %q", raw), Err: err}
		}
		if _, dup := seen[year]; dup {
			continue
		}
		seen[year] = struct{}{}
		years = append(years, year)
	}
	if len(years) == 0 {
		return 0, &faults.DataError{Msg: "no available years returned"}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	current := now.Year()
	for _, year := range years {
		if year == current {
			return year, nil
		}
	}
	// The current year may not be published yet early in January.
	for _, year := range years {
		if year < current {
			return year, nil
		}
	}
	return years[0], nil
}

// RuntimeValues is the lookup table for dynamic query references.
type RuntimeValues map[string]string

// BuildQueryParams flattens the query template into strings. Literals
// pass through; dynamic specs resolve through the runtime table, and
// an unknown reference is a configuration failure.
func BuildQueryParams(items []discovery.QueryItem, runtime RuntimeValues) (map[string]string, error) {
	params := make(map[string]string, len(items))
	for _, item := range items {
		if !item.Spec.Dynamic {
			params[item.Key] = item.Spec.Value
			continue
		}
		value, ok := runtime[item.Spec.Value]
		if !ok {
			return nil, &faults.ConfigError{
				Stage: "query template",
				Err:   fmt.Errorf("no value defined for dynamic field %q", item.Spec.Value),
			}
		}
		params[item.Key] = value
	}
	return params, nil
}

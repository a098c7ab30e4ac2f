// Package settings holds the immutable run configuration: site
// origin, entry page, reference time zone, and per-call timeouts.
// A Settings value is built once in the entrypoint and passed into
// every component constructor, so tests can substitute URLs and the
// time zone freely.
package settings

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// DefaultPath is where the entrypoint looks for the optional
// settings file.
const DefaultPath = "config/newlistings.yaml"

const (
	defaultBaseURL   = "https://www.theocc.com"
	defaultEntryPage = "https://www.theocc.com/market-data/market-data-reports/" +
		"series-and-trading-data/new-listings"
	defaultTimeZone   = "America/New_York"
	defaultReportType = "options"

	// Browser-like identity so the report endpoints answer the same
	// way they answer a real visitor.
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 13_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0 Safari/537.36"
)

// Settings is the full run configuration. String fields can be set in
// the YAML settings file and overridden by OCC_* environment
// variables; timeouts are fixed per call class.
type Settings struct {
	BaseURL    string `yaml:"base_url"`
	EntryPage  string `yaml:"entry_page"`
	TimeZone   string `yaml:"time_zone"`
	ReportType string `yaml:"report_type"`
	UserAgent  string `yaml:"user_agent"`

	MetadataTimeout time.Duration `yaml:"-"`
	DownloadTimeout time.Duration `yaml:"-"`
}

// Default returns the production settings for the OCC site.
func Default() Settings {
	return Settings{
		BaseURL:         defaultBaseURL,
		EntryPage:       defaultEntryPage,
		TimeZone:        defaultTimeZone,
		ReportType:      defaultReportType,
		UserAgent:       defaultUserAgent,
		MetadataTimeout: 30 * time.Second,
		DownloadTimeout: 60 * time.Second,
	}
}

// Load reads the optional YAML settings file and applies environment
// overrides on top of the defaults. A missing file is not an error.
func Load(path string) (Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("parse settings file %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return Settings{}, fmt.Errorf("read settings file %s: %w", path, err)
	}

	applyEnv(&s)
	return s, nil
}

func applyEnv(s *Settings) {
	overrides := map[string]*string{
		"OCC_BASE_URL":    &s.BaseURL,
		"OCC_ENTRY_PAGE":  &s.EntryPage,
		"OCC_TIME_ZONE":   &s.TimeZone,
		"OCC_REPORT_TYPE": &s.ReportType,
		"OCC_USER_AGENT":  &s.UserAgent,
	}
	for env, target := range overrides {
		if v := os.Getenv(env); v != "" {
			*target = v
		}
	}
}

// Location loads the reference time zone. All "today" and month
// computations happen in this zone.
func (s Settings) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", s.TimeZone, err)
	}
	return loc, nil
}

// ResolveURL resolves an endpoint reference against the site origin.
// The configuration document publishes endpoints as relative paths.
func (s Settings) ResolveURL(ref string) (string, error) {
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL %q: %w", s.BaseURL, err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse endpoint reference %q: %w", ref, err)
	}
	return base.ResolveReference(r).String(), nil
}

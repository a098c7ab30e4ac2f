package listings

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"occlistings/pkg/core/faults"
	"occlistings/pkg/core/settings"
	"occlistings/pkg/core/webclient"
)

// Locator finds and downloads the current month's CSV report.
type Locator struct {
	client *webclient.Client
	cfg    settings.Settings
	logger *zap.Logger
}

// NewLocator creates a locator bound to the run's client and settings.
func NewLocator(client *webclient.Client, cfg settings.Settings, logger *zap.Logger) *Locator {
	return &Locator{client: client, cfg: cfg, logger: logger}
}

type reportEntry struct {
	// The upstream API really spells the field this way.
	PermanentURL string `json:"permamentUrl"`
}

// MonthLink fetches the report list and returns the first permalink
// containing "<monthSlug>.csv", case-insensitively, resolved against
// the site origin.
func (l *Locator) MonthLink(ctx context.Context, reportsURL string, params map[string]string, monthSlug string) (string, error) {
	body, _, err := l.client.Get(ctx, reportsURL, params, l.cfg.MetadataTimeout)
	if err != nil {
		return "", fmt.Errorf("fetch monthly report list: %w", err)
	}

	var entries []reportEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return "", &faults.DataError{Msg: "report list is not valid JSON", Err: err}
	}

	monthKey := monthSlug + ".csv"
	for _, entry := range entries {
		if entry.PermanentURL == "" {
			continue
		}
		if strings.Contains(strings.ToLower(entry.PermanentURL), monthKey) {
			return l.cfg.ResolveURL(entry.PermanentURL)
		}
	}

	return "", &faults.NotFoundError{
		Msg: fmt.Sprintf("could not find a CSV link containing %q in this year's reports", monthKey),
	}
}

// FetchCSV downloads the report text. The feed is sometimes served as
// text/plain and occasionally carries a UTF-8 BOM, which is stripped.
func (l *Locator) FetchCSV(ctx context.Context, csvURL string) (string, error) {
	body, contentType, err := l.client.Get(ctx, csvURL, nil, l.cfg.DownloadTimeout)
	if err != nil {
		return "", fmt.Errorf("download CSV data: %w", err)
	}
	l.logger.Debug("downloaded report",
		zap.String("url", csvURL),
		zap.String("content_type", contentType),
		zap.Int("bytes", len(body)))
	return strings.TrimPrefix(string(body), "\ufeff"), nil
}

// TimestampYear extracts the year from the leading four digits of the
// ts=YYYYMMDDhhmm query value some download links carry. A mismatch
// with the selected report year is worth a warning, nothing more.
func TimestampYear(rawURL string) (int, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, false
	}
	ts := u.Query().Get("ts")
	if len(ts) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(ts[:4])
	if err != nil {
		return 0, false
	}
	return year, true
}

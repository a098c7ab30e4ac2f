package listings

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"occlistings/pkg/core/faults"
	"occlistings/pkg/core/settings"
	"occlistings/pkg/core/webclient"
)

func newTestLocator(baseURL string) *Locator {
	cfg := settings.Default()
	cfg.BaseURL = baseURL
	return NewLocator(webclient.New(cfg, zap.NewNop()), cfg, zap.NewNop())
}

func reportListServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("reportYear") == "" {
			t.Error("expected query parameters to be forwarded")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

func TestMonthLinkFindsFirstMatch(t *testing.T) {
	body := `[
		{"permamentUrl": "/company-data/new-listings-may.csv?ts=202405010900"},
		{"permamentUrl": "/company-data/new-listings-JUNE.csv?ts=202406010900"},
		{"permamentUrl": "/company-data/new-listings-june.csv?ts=202406020900"}
	]`
	srv := reportListServer(t, body)
	defer srv.Close()

	locator := newTestLocator(srv.URL)
	params := map[string]string{"reportYear": "2024"}
	got, err := locator.MonthLink(context.Background(), srv.URL, params, "june")
	if err != nil {
		t.Fatalf("MonthLink: %v", err)
	}
	// Matching is case-insensitive and first match wins.
	want := srv.URL + "/company-data/new-listings-JUNE.csv?ts=202406010900"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMonthLinkNoMatchIsNotFound(t *testing.T) {
	body := `[
		{"permamentUrl": "/company-data/new-listings-may.csv"},
		{"permamentUrl": ""},
		{"otherField": "/company-data/new-listings-june.pdf"}
	]`
	srv := reportListServer(t, body)
	defer srv.Close()

	locator := newTestLocator(srv.URL)
	params := map[string]string{"reportYear": "2024"}
	_, err := locator.MonthLink(context.Background(), srv.URL, params, "june")

	var notFound *faults.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestMonthLinkInvalidJSONIsDataError(t *testing.T) {
	srv := reportListServer(t, `<html>not json</html>`)
	defer srv.Close()

	locator := newTestLocator(srv.URL)
	params := map[string]string{"reportYear": "2024"}
	_, err := locator.MonthLink(context.Background(), srv.URL, params, "june")

	var dataErr *faults.DataError
	if !errors.As(err, &dataErr) {
		t.Fatalf("expected DataError, got %v", err)
	}
}

func TestFetchCSVStripsBOM(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("\ufeffStock Symbol,Date\nAAPL,06/01/2024\n"))
	}))
	defer srv.Close()

	locator := newTestLocator(srv.URL)
	text, err := locator.FetchCSV(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchCSV: %v", err)
	}
	if text[0] != 'S' {
		t.Errorf("BOM not stripped, text starts with %q", text[:1])
	}
}

func TestTimestampYear(t *testing.T) {
	tests := []struct {
		url    string
		year   int
		wantOK bool
	}{
		{"https://site.test/file.csv?ts=202406010900", 2024, true},
		{"https://site.test/file.csv?ts=2025", 2025, true},
		{"https://site.test/file.csv?ts=24x", 0, false},
		{"https://site.test/file.csv?ts=abcd0601", 0, false},
		{"https://site.test/file.csv", 0, false},
		{"://bad-url", 0, false},
	}

	for _, tc := range tests {
		year, ok := TimestampYear(tc.url)
		if ok != tc.wantOK || year != tc.year {
			t.Errorf("TimestampYear(%q) = (%d, %v), want (%d, %v)",
				tc.url, year, ok, tc.year, tc.wantOK)
		}
	}
}

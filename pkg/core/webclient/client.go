// Package webclient wraps the HTTP transport used for every network
// call in the pipeline. The OCC site sits behind a browser challenge,
// so the client always presents a stable browser User-Agent and an
// Accept header covering HTML, JSON, CSV, and plain text.
package webclient

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"occlistings/pkg/core/faults"
	"occlistings/pkg/core/settings"
)

const acceptHeader = "text/html,application/json,application/xml," +
	"text/csv,text/plain;q=0.9,*/*;q=0.8"

// Client issues GET requests with a per-call timeout. One attempt per
// call; a failure surfaces immediately as *faults.TransportError.
type Client struct {
	httpClient *http.Client
	cfg        settings.Settings
	logger     *zap.Logger
}

// New builds the reusable client for the run.
func New(cfg settings.Settings, logger *zap.Logger) *Client {
	return &Client{
		// Timeouts are applied per call through the request context.
		httpClient: &http.Client{},
		cfg:        cfg,
		logger:     logger,
	}
}

// Get fetches rawURL with the optional query parameters appended.
// Returns the body and the Content-Type the server reported.
func (c *Client) Get(ctx context.Context, rawURL string, params map[string]string, timeout time.Duration) ([]byte, string, error) {
	reqURL := rawURL
	if len(params) > 0 {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, "", &faults.TransportError{URL: rawURL, Err: err}
		}
		q := u.Query()
		for key, value := range params {
			q.Set(key, value)
		}
		u.RawQuery = q.Encode()
		reqURL = u.String()
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, "", &faults.TransportError{URL: reqURL, Err: err}
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", acceptHeader)

	c.logger.Debug("GET", zap.String("url", reqURL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", &faults.TransportError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &faults.TransportError{URL: reqURL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &faults.TransportError{URL: reqURL, Err: err}
	}

	return body, resp.Header.Get("Content-Type"), nil
}

// Package discovery turns the static entry page into the market-data
// configuration document. The page carries a marker element whose
// data-api attribute points at the configuration JSON; the document
// then names every endpoint the rest of the pipeline calls.
//
// Uses github.com/PuerkitoBio/goquery for the markup scan.
package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"occlistings/pkg/core/faults"
	"occlistings/pkg/core/settings"
	"occlistings/pkg/core/webclient"
)

// Service fetches and decodes the market-data configuration.
type Service struct {
	client *webclient.Client
	cfg    settings.Settings
	logger *zap.Logger
}

// NewService creates a discovery service bound to one run's client
// and settings.
func NewService(client *webclient.Client, cfg settings.Settings, logger *zap.Logger) *Service {
	return &Service{client: client, cfg: cfg, logger: logger}
}

// DiscoverConfigEndpoint scans the entry-page markup for the element
// with id "market-data" and returns its data-api path resolved
// against the site origin. This is the most fragile hop in the whole
// chain: it depends on undocumented third-party page structure.
func (s *Service) DiscoverConfigEndpoint(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse entry page markup: %w", err)
	}

	path, ok := doc.Find("#market-data").First().Attr("data-api")
	if !ok || strings.TrimSpace(path) == "" {
		return "", &faults.NotFoundError{
			Msg: "unable to find the market-data configuration endpoint in the entry page",
		}
	}

	return s.cfg.ResolveURL(strings.TrimSpace(path))
}

// LoadConfig fetches the entry page, discovers the configuration
// endpoint, and fetches and decodes the configuration JSON. Every
// failure comes back as a *faults.ConfigError naming the stage.
func (s *Service) LoadConfig(ctx context.Context) (*Config, error) {
	page, _, err := s.client.Get(ctx, s.cfg.EntryPage, nil, s.cfg.MetadataTimeout)
	if err != nil {
		return nil, &faults.ConfigError{Stage: "entry page fetch", Err: err}
	}

	configURL, err := s.DiscoverConfigEndpoint(string(page))
	if err != nil {
		return nil, &faults.ConfigError{Stage: "endpoint discovery", Err: err}
	}
	s.logger.Debug("discovered configuration endpoint", zap.String("url", configURL))

	raw, _, err := s.client.Get(ctx, configURL, nil, s.cfg.MetadataTimeout)
	if err != nil {
		return nil, &faults.ConfigError{Stage: "configuration fetch", Err: err}
	}

	var conf Config
	if err := json.Unmarshal(raw, &conf); err != nil {
		return nil, &faults.ConfigError{Stage: "configuration decode", Err: err}
	}

	return &conf, nil
}

// Config mirrors the parts of the market-data configuration document
// the pipeline reads. Everything else in the document is ignored, and
// every accessed path that turns out empty is a hard failure.
type Config struct {
	Input  InputSection  `json:"input"`
	Submit SubmitSection `json:"submit"`
}

// InputSection carries the named input controls, grouped.
type InputSection struct {
	Groups []Group `json:"groups"`
}

// Group is one list of controls.
type Group struct {
	Controls []Control `json:"controls"`
}

// Control is a named input field with its data-source endpoint.
type Control struct {
	Name string      `json:"name"`
	Data ControlData `json:"data"`
}

// ControlData holds the control's data-source endpoint definition.
type ControlData struct {
	Endpoint Endpoint `json:"endpoint"`
}

// Endpoint is an environment-keyed endpoint path. Only the production
// path is ever used.
type Endpoint struct {
	Prod string `json:"prod"`
}

// SubmitSection carries the report-listing endpoints.
type SubmitSection struct {
	Endpoints []SubmitEndpoint `json:"endpoints"`
}

// SubmitEndpoint pairs a report-listing endpoint with its query
// template.
type SubmitEndpoint struct {
	Endpoint Endpoint    `json:"endpoint"`
	Query    []QueryItem `json:"query"`
}

// LocateControl returns the first control whose name matches, scanning
// groups in document order. Only the first match is ever relevant.
func (c *Config) LocateControl(name string) (*Control, error) {
	for gi := range c.Input.Groups {
		controls := c.Input.Groups[gi].Controls
		for ci := range controls {
			if controls[ci].Name == name {
				return &controls[ci], nil
			}
		}
	}
	return nil, &faults.NotFoundError{
		Msg: fmt.Sprintf("unable to find control definition for %q", name),
	}
}

// SubmitEndpoint returns the first submit endpoint, verifying the
// paths the pipeline depends on are present.
func (c *Config) SubmitEndpoint() (*SubmitEndpoint, error) {
	if len(c.Submit.Endpoints) == 0 {
		return nil, &faults.ConfigError{
			Stage: "submit.endpoints",
			Err:   errors.New("no endpoints defined"),
		}
	}
	ep := &c.Submit.Endpoints[0]
	if ep.Endpoint.Prod == "" {
		return nil, &faults.ConfigError{
			Stage: "submit.endpoints[0].endpoint.prod",
			Err:   errors.New("empty endpoint path"),
		}
	}
	if len(ep.Query) == 0 {
		return nil, &faults.ConfigError{
			Stage: "submit.endpoints[0].query",
			Err:   errors.New("missing query definition"),
		}
	}
	return ep, nil
}

// EndpointPath returns the control's production data-source path.
func (ctl *Control) EndpointPath() (string, error) {
	if ctl.Data.Endpoint.Prod == "" {
		return "", &faults.ConfigError{
			Stage: fmt.Sprintf("control %q data.endpoint.prod", ctl.Name),
			Err:   errors.New("empty endpoint path"),
		}
	}
	return ctl.Data.Endpoint.Prod, nil
}

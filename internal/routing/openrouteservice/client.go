// Package openrouteservice implements routing.Provider on top of the
// OpenRouteService directions API. Instructions are requested in Spanish.
package openrouteservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tacnavial/tacnavial/internal/provider/resilience"
	"github.com/tacnavial/tacnavial/internal/routing"
)

const (
	// ProviderName is the name reported to the provider registry.
	ProviderName = "openrouteservice"

	DefaultBaseURL  = "https://api.openrouteservice.org"
	DefaultTimeout  = 10 * time.Second
	defaultLanguage = "es"
	defaultAlts     = 2
)

// HTTPDoer executes requests. *http.Client and *resilience.Client both satisfy it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig configures a Client. Only APIKey is required.
type ClientConfig struct {
	APIKey  string
	BaseURL string

	// HTTPClient overrides the resilient default, mostly for tests.
	HTTPClient HTTPDoer
	Timeout    time.Duration
	Language   string

	// Registry receives breaker transitions for the ops status page.
	Registry *resilience.Registry
	Logger   zerolog.Logger
}

// Client talks to OpenRouteService.
type Client struct {
	apiKey   string
	endpoint string
	language string
	http     HTTPDoer
	logger   zerolog.Logger
}

// NewClient builds a Client, filling defaults for the optional fields.
func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		apiKey:   cfg.APIKey,
		endpoint: strings.TrimRight(cfg.BaseURL, "/"),
		language: cfg.Language,
		http:     cfg.HTTPClient,
		logger:   cfg.Logger.With().Str("provider", ProviderName).Logger(),
	}
	if c.endpoint == "" {
		c.endpoint = DefaultBaseURL
	}
	if c.language == "" {
		c.language = defaultLanguage
	}
	if c.http == nil {
		policy := resilience.DefaultPolicy()
		if cfg.Timeout > 0 {
			policy.Timeout = cfg.Timeout
		} else {
			policy.Timeout = DefaultTimeout
		}
		c.http = resilience.NewClient(resilience.ClientConfig{
			Name:     ProviderName,
			Policy:   policy,
			Registry: cfg.Registry,
			Logger:   cfg.Logger,
		})
	}
	return c
}

// Name implements routing.Provider.
func (c *Client) Name() string { return ProviderName }

func providerError(code, message string, err error) *routing.Error {
	return &routing.Error{Provider: ProviderName, Code: code, Message: message, Err: err}
}

// GetDirections implements routing.Provider.
func (c *Client) GetDirections(ctx context.Context, req routing.DirectionsRequest) (*routing.DirectionsResponse, error) {
	if req.Origin.Validate() != nil {
		return nil, providerError("INVALID_ORIGIN", "invalid origin coordinates", routing.ErrInvalidCoordinates)
	}
	if req.Destination.Validate() != nil {
		return nil, providerError("INVALID_DESTINATION", "invalid destination coordinates", routing.ErrInvalidCoordinates)
	}
	if req.Profile == "" {
		req.Profile = routing.ProfileDriving
	}

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn().Err(err).Msg("directions request did not complete")
		return nil, providerError("REQUEST_FAILED", "failed to reach routing provider", routing.ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading directions response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classify(resp.StatusCode, payload)
	}

	var result directionsResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decoding directions response: %w", err)
	}

	out := &routing.DirectionsResponse{Provider: ProviderName, FetchedAt: time.Now()}
	for i := range result.Routes {
		r := &result.Routes[i]
		for _, w := range r.Warnings {
			c.logger.Debug().Int("code", w.Code).Str("warning", w.Message).Msg("route warning")
		}
		out.Routes = append(out.Routes, convertRoute(r))
	}

	c.logger.Debug().
		Str("profile", string(req.Profile)).
		Stringer("origin", req.Origin).
		Stringer("destination", req.Destination).
		Int("routes", len(out.Routes)).
		Dur("took", time.Since(start)).
		Msg("directions received")
	return out, nil
}

func (c *Client) newRequest(ctx context.Context, req routing.DirectionsRequest) (*http.Request, error) {
	alts := req.MaxAlternatives
	if alts <= 0 {
		alts = defaultAlts
	}
	body, err := json.Marshal(directionsBody{
		Coordinates: [][]float64{
			{req.Origin.Lng, req.Origin.Lat},
			{req.Destination.Lng, req.Destination.Lat},
		},
		Alternatives: &alternativesOptions{TargetCount: alts + 1},
		Instructions: true,
		Geometry:     true,
		Units:        "m",
		Language:     c.language,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding directions request: %w", err)
	}

	url := c.endpoint + "/v2/directions/" + string(req.Profile)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building directions request: %w", err)
	}
	httpReq.Header.Set("Authorization", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, application/geo+json")
	return httpReq, nil
}

// classify maps a non-200 answer to a routing error.
func classify(status int, payload []byte) error {
	var body errorBody
	if err := json.Unmarshal(payload, &body); err != nil {
		return providerError(fmt.Sprintf("HTTP_%d", status),
			fmt.Sprintf("routing provider returned status %d", status), routing.ErrProviderUnavailable)
	}

	unroutable := body.Error.Code == codeRouteNotFound || body.Error.Code == codePointNotRoutable
	switch {
	case status == http.StatusTooManyRequests:
		return providerError("RATE_LIMIT", "routing quota exceeded, try again later", routing.ErrRateLimitExceeded)
	case status == http.StatusForbidden:
		return providerError("FORBIDDEN", "routing provider rejected the API key", routing.ErrProviderUnavailable)
	case status == http.StatusNotFound, status == http.StatusBadRequest && unroutable:
		msg := body.Error.Message
		if msg == "" {
			msg = "no route found between the given points"
		}
		return providerError("NO_ROUTE", msg, routing.ErrNoRouteFound)
	case status == http.StatusBadRequest:
		return providerError("BAD_REQUEST", body.Error.Message, routing.ErrInvalidCoordinates)
	case status >= http.StatusInternalServerError:
		return providerError(fmt.Sprintf("SERVER_%d", status), "routing provider is temporarily unavailable", routing.ErrProviderUnavailable)
	default:
		return providerError(fmt.Sprintf("HTTP_%d", status), body.Error.Message, routing.ErrProviderUnavailable)
	}
}

func convertRoute(r *resultRoute) routing.Route {
	route := routing.Route{
		GeometryPolyline: r.Geometry,
		DistanceMeters:   int(r.Summary.Distance),
		DurationSeconds:  int(r.Summary.Duration),
	}
	if len(r.BBox) >= 4 {
		route.BoundingBox = &routing.BoundingBox{MinLng: r.BBox[0], MinLat: r.BBox[1], MaxLng: r.BBox[2], MaxLat: r.BBox[3]}
	}
	for _, seg := range r.Segments {
		for _, st := range seg.Steps {
			route.Instructions = append(route.Instructions, routing.Instruction{
				Text:           st.Instruction,
				DistanceMeters: int(st.Distance),
				DurationSecs:   int(st.Duration),
				Type:           st.Type,
				Street:         st.Name,
			})
		}
	}
	route.Summary = summarize(route.Instructions)
	return route
}

// summarize names the two streets the route spends most distance on,
// "via Av. X y Av. Y". ORS marks unnamed ways with "-".
func summarize(steps []routing.Instruction) string {
	meters := make(map[string]int)
	var order []string
	for _, st := range steps {
		if st.Street == "" || st.Street == "-" {
			continue
		}
		if _, ok := meters[st.Street]; !ok {
			order = append(order, st.Street)
		}
		meters[st.Street] += st.DistanceMeters
	}
	sort.SliceStable(order, func(i, j int) bool { return meters[order[i]] > meters[order[j]] })

	switch len(order) {
	case 0:
		return ""
	case 1:
		return "via " + order[0]
	default:
		return "via " + order[0] + " y " + order[1]
	}
}

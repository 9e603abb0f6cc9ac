// Package googlemaps provides a client for the Google Maps Geocoding API.
package googlemaps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tacnavial/tacnavial/internal/geo"
	"github.com/tacnavial/tacnavial/internal/geocoding"
	"github.com/tacnavial/tacnavial/internal/provider/resilience"
)

const (
	// ProviderName identifies this geocoding provider.
	ProviderName = "googlemaps"

	// DefaultBaseURL is the Google Maps API base URL.
	DefaultBaseURL = "https://maps.googleapis.com"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 5 * time.Second
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Geocoding API client.
type ClientConfig struct {
	// APIKey is the Maps API key. Without it every lookup fails with
	// geocoding.ErrNotConfigured.
	APIKey string

	// BaseURL is the API base URL (optional).
	BaseURL string

	// Language for formatted addresses (default: "es").
	Language string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 5s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	Logger zerolog.Logger
}

// Client is a Google Maps Geocoding API client.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new Geocoding API client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	language := cfg.Language
	if language == "" {
		language = "es"
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		policy := resilience.DefaultPolicy()
		policy.Timeout = timeout
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:     ProviderName,
			Policy:   policy,
			Registry: cfg.Registry,
			Logger:   cfg.Logger,
		})
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   language,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Geocode resolves an address, biased to the request region.
func (c *Client) Geocode(ctx context.Context, req geocoding.Request) (*geocoding.Result, error) {
	if c.apiKey == "" {
		return nil, &geocoding.Error{
			Provider: ProviderName,
			Code:     "NOT_CONFIGURED",
			Message:  "maps API key is not set",
			Err:      geocoding.ErrNotConfigured,
		}
	}

	reqURL := c.baseURL + "/maps/api/geocode/json?" + c.query(req).Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("address", req.Address).
		Str("region", req.Region.Code).
		Msg("requesting geocode from Google Maps")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &geocoding.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach geocoding provider",
			Err:      geocoding.ErrProviderUnavailable,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &geocoding.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message:  fmt.Sprintf("geocoding provider returned status %d", resp.StatusCode),
			Err:      geocoding.ErrProviderUnavailable,
		}
	}

	var gr geocodeResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if gr.Status != statusOK {
		return nil, statusError(gr)
	}
	if len(gr.Results) == 0 {
		return nil, &geocoding.Error{
			Provider: ProviderName,
			Code:     statusZeroResults,
			Message:  "address not found",
			Err:      geocoding.ErrNoResults,
		}
	}

	first := gr.Results[0]
	return &geocoding.Result{
		Point:            geo.Point{Lat: first.Geometry.Location.Lat, Lng: first.Geometry.Location.Lng},
		FormattedAddress: first.FormattedAddress,
		PlaceID:          first.PlaceID,
	}, nil
}

func (c *Client) query(req geocoding.Request) url.Values {
	q := url.Values{}
	q.Set("address", req.Address)
	q.Set("key", c.apiKey)
	q.Set("language", c.language)
	if req.Region.Code != "" {
		q.Set("region", strings.ToLower(req.Region.Code))
		q.Set("components", "country:"+strings.ToUpper(req.Region.Code))
	}
	if !req.Region.Bounds.IsZero() {
		b := req.Region.Bounds
		q.Set("bounds", fmt.Sprintf("%f,%f|%f,%f", b.SouthWest.Lat, b.SouthWest.Lng, b.NorthEast.Lat, b.NorthEast.Lng))
	}
	return q
}

// statusError maps a non-OK Geocoding API status to a domain error.
func statusError(gr geocodeResponse) error {
	msg := gr.ErrorMessage
	switch gr.Status {
	case statusZeroResults:
		return &geocoding.Error{
			Provider: ProviderName,
			Code:     gr.Status,
			Message:  "address not found",
			Err:      geocoding.ErrNoResults,
		}
	case statusOverQueryLimit, statusOverDailyLimit:
		return &geocoding.Error{
			Provider: ProviderName,
			Code:     gr.Status,
			Message:  "API rate limit exceeded, please try again later",
			Err:      geocoding.ErrRateLimitExceeded,
		}
	case statusRequestDenied:
		if msg == "" {
			msg = "API access denied - check API key configuration"
		}
		return &geocoding.Error{
			Provider: ProviderName,
			Code:     gr.Status,
			Message:  msg,
			Err:      geocoding.ErrProviderUnavailable,
		}
	case statusInvalidRequest:
		if msg == "" {
			msg = "invalid geocoding request"
		}
		return &geocoding.Error{
			Provider: ProviderName,
			Code:     gr.Status,
			Message:  msg,
			Err:      geocoding.ErrInvalidAddress,
		}
	default:
		if msg == "" {
			msg = "geocoding provider is temporarily unavailable"
		}
		return &geocoding.Error{
			Provider: ProviderName,
			Code:     gr.Status,
			Message:  msg,
			Err:      geocoding.ErrProviderUnavailable,
		}
	}
}

var _ geocoding.Provider = (*Client)(nil)

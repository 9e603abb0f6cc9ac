// Package client is a typed client for the TacnaVial HTTP API. It implements
// console.Actions so the admin console can run against a remote server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tacnavial/tacnavial/internal/api/models"
)

// DefaultTimeout is the default request timeout.
const DefaultTimeout = 10 * time.Second

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds configuration for the API client.
type Config struct {
	// BaseURL is the server root, e.g. http://localhost:8080.
	BaseURL string

	// HTTPClient is the HTTP client to use (optional). Mutations are not
	// idempotent, so the default client never retries.
	HTTPClient HTTPDoer

	// UserAgent is sent with every request (optional).
	UserAgent string
}

// Client calls the TacnaVial API.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	userAgent  string
}

// New creates a client.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "tacnavialctl"
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

// IsNotFound reports whether err is a 404 problem.
func IsNotFound(err error) bool {
	var p *models.Problem
	return errors.As(err, &p) && p.Status == http.StatusNotFound
}

// Routes lists the transit routes.
func (c *Client) Routes(ctx context.Context) ([]models.Route, error) {
	var out models.RouteList
	if err := c.do(ctx, http.MethodGet, "/v1/routes", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// ToggleRoute flips a route between open and blocked. An unknown route
// yields nil without error.
func (c *Client) ToggleRoute(ctx context.Context, id string) (*models.Route, error) {
	var out models.Route
	err := c.do(ctx, http.MethodPost, "/v1/routes/"+url.PathEscape(id)+"/toggle", nil, &out)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Comments lists comments in store order.
func (c *Client) Comments(ctx context.Context) ([]models.Comment, error) {
	var out models.CommentList
	if err := c.do(ctx, http.MethodGet, "/v1/comments", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// SubmitComment submits a public comment.
func (c *Client) SubmitComment(ctx context.Context, req *models.CommentSubmitRequest) (*models.Comment, error) {
	var out models.Comment
	if err := c.do(ctx, http.MethodPost, "/v1/comments", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Obstructions lists every obstruction.
func (c *Client) Obstructions(ctx context.Context) ([]models.Obstruction, error) {
	var out models.ObstructionList
	if err := c.do(ctx, http.MethodGet, "/v1/obstructions", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// AddObstruction creates an obstruction.
func (c *Client) AddObstruction(ctx context.Context, req *models.ObstructionCreateRequest) (*models.Obstruction, error) {
	var out models.Obstruction
	if err := c.do(ctx, http.MethodPost, "/v1/obstructions", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveObstruction deletes an obstruction.
func (c *Client) RemoveObstruction(ctx context.Context, id string) (*models.RemoveResult, error) {
	var out models.RemoveResult
	if err := c.do(ctx, http.MethodDelete, "/v1/obstructions/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Plan asks the route planner for driving directions.
func (c *Client) Plan(ctx context.Context, req *models.DirectionsRequest) (*models.DirectionsResponse, error) {
	var out models.DirectionsResponse
	if err := c.do(ctx, http.MethodPost, "/v1/planner/directions", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Geocode resolves an address inside the service region.
func (c *Client) Geocode(ctx context.Context, address string) (*models.GeocodeResponse, error) {
	var out models.GeocodeResponse
	path := "/v1/geocode?" + url.Values{"address": {address}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MapConfig returns the base map configuration.
func (c *Client) MapConfig(ctx context.Context) (*models.MapConfig, error) {
	var out models.MapConfig
	if err := c.do(ctx, http.MethodGet, "/v1/map/config", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status returns the aggregated system status.
func (c *Client) Status(ctx context.Context) (*models.SystemStatus, error) {
	var out models.SystemStatus
	if err := c.do(ctx, http.MethodGet, "/v1/ops/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSegmentSession opens an obstruction editor session.
func (c *Client) CreateSegmentSession(ctx context.Context) (*models.SegmentSession, error) {
	var out models.SegmentSession
	if err := c.do(ctx, http.MethodPost, "/v1/admin/segment-sessions", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DefineSegmentByAddresses sets the segment of a session from two addresses.
func (c *Client) DefineSegmentByAddresses(ctx context.Context, sessionID string, req *models.SegmentAddressesRequest) (*models.SegmentSession, error) {
	return c.segmentCall(ctx, sessionID, "addresses", req)
}

// DefineSegmentByCoordinates sets the segment of a session from raw coordinates.
func (c *Client) DefineSegmentByCoordinates(ctx context.Context, sessionID string, req *models.SegmentCoordinatesRequest) (*models.SegmentSession, error) {
	return c.segmentCall(ctx, sessionID, "coordinates", req)
}

// SubmitSegment creates the obstruction selected in a session.
func (c *Client) SubmitSegment(ctx context.Context, sessionID string, req *models.SegmentSubmitRequest) (*models.SegmentSubmitResponse, error) {
	var out models.SegmentSubmitResponse
	path := "/v1/admin/segment-sessions/" + url.PathEscape(sessionID) + "/submit"
	if err := c.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) segmentCall(ctx context.Context, sessionID, action string, body any) (*models.SegmentSession, error) {
	var out models.SegmentSession
	path := "/v1/admin/segment-sessions/" + url.PathEscape(sessionID) + "/" + action
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do sends a JSON request and decodes the JSON response into out. Error
// responses are returned as *models.Problem.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		problem := &models.Problem{}
		if err := json.Unmarshal(data, problem); err != nil || problem.Status == 0 {
			problem = models.NewProblem("about:blank", http.StatusText(resp.StatusCode), resp.StatusCode, resp.Header.Get("X-Request-Id"))
		}
		return problem
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

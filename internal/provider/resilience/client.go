package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/tacnavial/tacnavial/internal/metrics"
)

// ErrCircuitOpen is returned without calling the provider while its breaker is open.
var ErrCircuitOpen = errors.New("provider circuit open")

// StatusError is an upstream answer worth retrying: 429 or any 5xx.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// ClientConfig configures a provider client.
type ClientConfig struct {
	// Name is the provider name shown on the status endpoint.
	Name   string
	Policy Policy

	// Transport overrides http.DefaultTransport.
	Transport http.RoundTripper

	// Registry, when set, tracks this client's health.
	Registry *Registry
	Logger   zerolog.Logger
}

// Client is an HTTP doer for one provider.
type Client struct {
	name     string
	policy   Policy
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker[*http.Response]
	registry *Registry
	logger   zerolog.Logger
}

// NewClient creates a provider client and registers it.
func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		name:     cfg.Name,
		policy:   cfg.Policy.withDefaults(),
		registry: cfg.Registry,
		logger:   cfg.Logger.With().Str("provider", cfg.Name).Logger(),
	}
	c.http = &http.Client{Timeout: c.policy.Timeout, Transport: cfg.Transport}
	c.breaker = newBreaker[*http.Response](cfg.Name, c.policy.Breaker, c.stateChanged)
	metrics.ProviderCircuitState.WithLabelValues(cfg.Name).Set(float64(gobreaker.StateClosed))
	if c.registry != nil {
		c.registry.Register(c)
	}
	return c
}

// Do sends req, retrying transport errors, 429 and 5xx answers with
// exponential backoff. When retries run out on an upstream answer, that last
// response is returned so the caller can map its status. Other responses are
// returned as is. While the breaker is open Do fails with ErrCircuitOpen.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.policy.InitialInterval
	bo.MaxInterval = c.policy.MaxInterval
	bo.MaxElapsedTime = 0

	var last *http.Response
	attempt := 0
	op := func() error {
		attempt++
		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			return c.send(req)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(fmt.Errorf("%s: %w", c.name, ErrCircuitOpen))
		}
		if resp != nil {
			discard(last)
			last = resp
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Debug().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("retrying provider call")
	}

	err := backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(bo, c.policy.MaxRetries), ctx), notify)
	c.record(err)

	var statusErr *StatusError
	if err != nil && errors.As(err, &statusErr) && last != nil {
		return last, nil
	}
	if err != nil {
		discard(last)
		return nil, err
	}
	return last, nil
}

// send performs one attempt. The body is rewound from GetBody since a
// previous attempt may have consumed it.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	if req.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		out.Body = body
	}
	resp, err := c.http.Do(out)
	if err != nil {
		return nil, err
	}
	if retryableStatus(resp.StatusCode) {
		return resp, &StatusError{StatusCode: resp.StatusCode}
	}
	return resp, nil
}

func (c *Client) record(err error) {
	switch {
	case c.registry == nil, errors.Is(err, ErrCircuitOpen), errors.Is(err, context.Canceled):
	case err != nil:
		c.registry.recordFailure(c.name, err)
	default:
		c.registry.recordSuccess(c.name)
	}
}

func (c *Client) stateChanged(name string, from, to gobreaker.State) {
	metrics.ProviderCircuitState.WithLabelValues(name).Set(float64(to))
	ev := c.logger.Info()
	if to == gobreaker.StateOpen {
		ev = c.logger.Warn()
	}
	ev.Str("from", from.String()).Str("to", to.String()).Msg("provider circuit changed state")
	if c.registry != nil {
		c.registry.recordTransition(name, to)
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return c.name
}

// State returns the breaker state.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

// Counts returns the breaker counters for the current window.
func (c *Client) Counts() gobreaker.Counts {
	return c.breaker.Counts()
}

func discard(resp *http.Response) {
	if resp == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

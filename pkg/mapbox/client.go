// Package mapbox provides a client for the Mapbox forward geocoding API.
package mapbox

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/toladimeji/crimewatch/internal/resilience"
)

const defaultBaseURL = "https://api.mapbox.com"

// requestTimeout bounds every geocoding call.
const requestTimeout = 10 * time.Second

// Client defines the forward geocoding operations used by the pipeline.
type Client interface {
	// Forward resolves a free-text place description to coordinates.
	// A query that matches nothing returns Matched=false with a nil error;
	// transport and configuration failures return an error.
	Forward(ctx context.Context, query string) (*Result, error)

	// Available reports whether the client is configured with a token.
	Available() bool
}

// Result holds the top-ranked geocoding match for a query.
type Result struct {
	Latitude  float64
	Longitude float64
	PlaceName string
	Relevance float64
	Matched   bool
}

// Option configures the Mapbox client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets the requests-per-second limit for geocoding calls.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps))
	}
}

// WithRetry opts in to retrying transient failures. By default every
// Forward call issues exactly one request.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a Mapbox geocoding client. An empty token yields a
// client that reports itself unavailable; callers are expected to degrade
// rather than fail.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: requestTimeout},
		limiter: rate.NewLimiter(10, 10),
		retry:   resilience.RetryConfig{MaxAttempts: 1},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Available() bool {
	return c.token != ""
}

// geocodeResponse is the subset of the Mapbox Places response we consume.
type geocodeResponse struct {
	Features []struct {
		PlaceName string  `json:"place_name"`
		Relevance float64 `json:"relevance"`
		Geometry  struct {
			// Mapbox orders coordinates [longitude, latitude].
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

func (c *httpClient) Forward(ctx context.Context, query string) (*Result, error) {
	if c.token == "" {
		return nil, eris.New("mapbox: access token not configured")
	}

	retry := c.retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("mapbox", "forward")
	}
	return resilience.DoVal(ctx, retry, func(ctx context.Context) (*Result, error) {
		return c.forward(ctx, query)
	})
}

func (c *httpClient) forward(ctx context.Context, query string) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "mapbox: rate limit")
	}

	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {"poi,place,address"},
	}
	reqURL := c.baseURL + "/geocoding/v5/mapbox.places/" + url.PathEscape(query) + ".json?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "mapbox: build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "mapbox: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "mapbox: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		statusErr := eris.Errorf("mapbox: status %d: %s", resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, statusErr
	}

	var parsed geocodeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "mapbox: parse response")
	}

	if len(parsed.Features) == 0 {
		return &Result{Matched: false}, nil
	}

	top := parsed.Features[0]
	if len(top.Geometry.Coordinates) < 2 {
		return &Result{Matched: false}, nil
	}
	return &Result{
		Latitude:  top.Geometry.Coordinates[1],
		Longitude: top.Geometry.Coordinates[0],
		PlaceName: top.PlaceName,
		Relevance: top.Relevance,
		Matched:   true,
	}, nil
}

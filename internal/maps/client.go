// Package maps resolves place names to route distance and duration through the
// Google Distance Matrix API.
package maps

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/movesmart/service-route/internal/domain/route"
	"github.com/movesmart/service-route/internal/resilience"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api"

// ErrNoRoute is returned when the API answers but has no route between the
// two places.
var ErrNoRoute = eris.New("maps: no route found")

// Client looks up travel metrics between two free-text locations.
type Client interface {
	Distance(ctx context.Context, origin, destination string) (*route.Metrics, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(p resilience.RetryPolicy) Option {
	return func(c *httpClient) {
		c.retry = p
	}
}

// WithDeadline bounds a whole Distance call, retries and rate-limit waits
// included. Zero leaves only the caller's context.
func WithDeadline(d time.Duration) Option {
	return func(c *httpClient) {
		c.deadline = d
	}
}

// WithTraffic requests departure_time=now and prefers the traffic-aware
// duration when the API returns one.
func WithTraffic(enabled bool) Option {
	return func(c *httpClient) {
		c.traffic = enabled
	}
}

// WithLogger sets the logger used for retry and lookup diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *httpClient) {
		c.logger = l
	}
}

type httpClient struct {
	apiKey   string
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	retry    resilience.RetryPolicy
	deadline time.Duration
	traffic  bool
	logger   *zap.Logger
}

// NewClient creates a Distance Matrix client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(10, 10),
		retry:   resilience.DefaultRetryPolicy(),
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.retry.Logger == nil {
		c.retry.Logger = c.logger
	}
	c.retry.Operation = "maps.distance"
	return c
}

type distanceMatrixResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Rows         []struct {
		Elements []matrixElement `json:"elements"`
	} `json:"rows"`
}

type matrixElement struct {
	Status            string       `json:"status"`
	Distance          *matrixValue `json:"distance"`
	Duration          *matrixValue `json:"duration"`
	DurationInTraffic *matrixValue `json:"duration_in_traffic"`
}

type matrixValue struct {
	Value int    `json:"value"`
	Text  string `json:"text"`
}

// Distance implements Client.
func (c *httpClient) Distance(ctx context.Context, origin, destination string) (*route.Metrics, error) {
	if c.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.deadline)
		defer cancel()
	}
	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*route.Metrics, error) {
		return c.distanceOnce(ctx, origin, destination)
	})
}

func (c *httpClient) distanceOnce(ctx context.Context, origin, destination string) (*route.Metrics, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "maps: rate limit")
	}

	params := url.Values{
		"origins":      {origin},
		"destinations": {destination},
		"key":          {c.apiKey},
	}
	if c.traffic {
		params.Set("departure_time", "now")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/distancematrix/json?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "maps: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "maps: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "maps: read response")
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := eris.Errorf("maps: unexpected status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, statusErr
	}

	var result distanceMatrixResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "maps: unmarshal response")
	}

	switch result.Status {
	case "OK":
	case "OVER_QUERY_LIMIT", "UNKNOWN_ERROR":
		return nil, resilience.NewTransientError(eris.Errorf("maps: api status %s", result.Status), 0)
	default:
		return nil, eris.Errorf("maps: api status %s: %s", result.Status, result.ErrorMessage)
	}

	if len(result.Rows) == 0 || len(result.Rows[0].Elements) == 0 {
		return nil, ErrNoRoute
	}
	el := result.Rows[0].Elements[0]
	if el.Status != "OK" || el.Distance == nil || el.Duration == nil {
		c.logger.Debug("no route between locations",
			zap.String("origin", origin),
			zap.String("destination", destination),
			zap.String("element_status", el.Status),
		)
		return nil, ErrNoRoute
	}

	duration := el.Duration.Value
	if c.traffic && el.DurationInTraffic != nil {
		duration = el.DurationInTraffic.Value
	}
	return &route.Metrics{
		DistanceMeters:  el.Distance.Value,
		DurationSeconds: duration,
	}, nil
}

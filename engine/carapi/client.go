// Package carapi is the client for the car-spec REST API: a rate-limited,
// retrying HTTP client and one fetcher per level of the make, model,
// generation, trim hierarchy.
package carapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/WessleyAI/carbrowse/engine/catalog"
	"github.com/WessleyAI/carbrowse/pkg/fn"
	"github.com/WessleyAI/carbrowse/pkg/metrics"
	"github.com/WessleyAI/carbrowse/pkg/mid"
)

const (
	DefaultHost    = "car-specs.p.rapidapi.com"
	DefaultBaseURL = "https://" + DefaultHost + "/v2/cars"
)

// errTooManyRequests marks a single 429 answer inside the retry loop.
var errTooManyRequests = errors.New("429 too many requests")

// RequestOpts controls retrying of one request.
type RequestOpts struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// InitialBackoff is multiplied by the attempt number: 1x, 2x, 3x, ...
	InitialBackoff time.Duration
}

// DefaultRequestOpts retries three times starting at 500ms.
var DefaultRequestOpts = RequestOpts{MaxRetries: 3, InitialBackoff: 500 * time.Millisecond}

// Options configures a Client.
type Options struct {
	BaseURL string
	Host    string
	APIKey  string

	// RequestsPerSecond throttles outgoing calls; <= 0 disables throttling.
	RequestsPerSecond float64
	Burst             int

	Request    RequestOpts
	Breaker    BreakerOpts
	HTTPClient *http.Client
	Metrics    *metrics.Registry
	Logger     *slog.Logger
}

// Client talks to the car-spec API.
type Client struct {
	baseURL string
	host    string
	apiKey  string
	reqOpts RequestOpts
	http    *http.Client
	limiter *rate.Limiter
	breaker *breaker
	log     *slog.Logger
	sleep   func(context.Context, time.Duration) error

	requests    *metrics.Counter
	retries     *metrics.Counter
	rateLimited *metrics.Counter
	failures    *metrics.Counter
	duration    *metrics.Histogram
}

// New creates a Client. Zero options fall back to the public API host and
// the default retry policy.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Host == "" {
		opts.Host = DefaultHost
	}
	if opts.Request == (RequestOpts{}) {
		opts.Request = DefaultRequestOpts
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Timeout:   30 * time.Second,
			Transport: mid.Transport(opts.Logger),
		}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.Breaker.Trips == nil {
		opts.Breaker.Trips = IsOutage
	}

	reg := opts.Metrics
	return &Client{
		baseURL:     opts.BaseURL,
		host:        opts.Host,
		apiKey:      opts.APIKey,
		reqOpts:     opts.Request,
		http:        opts.HTTPClient,
		limiter:     rate.NewLimiter(limit, opts.Burst),
		breaker:     newBreaker(opts.Breaker),
		log:         opts.Logger,
		sleep:       fn.SleepContext,
		requests:    reg.Counter("carapi_requests_total", "HTTP requests sent to the car-spec API"),
		retries:     reg.Counter("carapi_retries_total", "Requests retried after a 429"),
		rateLimited: reg.Counter("carapi_rate_limited_total", "Requests that exhausted their retries"),
		failures:    reg.Counter("carapi_failures_total", "Requests that ended in an error"),
		duration:    reg.Histogram("carapi_request_duration_seconds", "Car-spec API round trip latency", nil),
	}
}

// IsOutage reports whether err suggests the API itself is unhealthy:
// exhausted rate limits, 5xx answers and transport failures. Client errors
// and cancellation do not count.
func IsOutage(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var he *catalog.HTTPError
	if errors.As(err, &he) {
		return he.Status >= 500
	}
	return !errors.Is(err, catalog.ErrMalformedResponse)
}

// Request GETs url and returns the raw JSON body. A 429 is retried after
// InitialBackoff*(attempt+1) up to MaxRetries times, then fails with
// catalog.ErrRateLimitExceeded. Other non-2xx answers fail at once with a
// *catalog.HTTPError.
func (c *Client) Request(ctx context.Context, url string, opts RequestOpts) (json.RawMessage, error) {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = DefaultRequestOpts.InitialBackoff
	}

	r := call(c.breaker, ctx, func(ctx context.Context) fn.Result[json.RawMessage] {
		r := fn.Retry(ctx, fn.RetryOpts{
			MaxAttempts: opts.MaxRetries + 1,
			Backoff:     fn.LinearBackoff(opts.InitialBackoff),
			Retryable:   func(err error) bool { return errors.Is(err, errTooManyRequests) },
			Sleep: func(ctx context.Context, d time.Duration) error {
				c.retries.Inc()
				c.log.Debug("rate limited, backing off", "url", url, "wait", d)
				return c.sleep(ctx, d)
			},
		}, func(ctx context.Context) fn.Result[json.RawMessage] {
			return c.do(ctx, url)
		})
		if errors.Is(r.Error(), errTooManyRequests) {
			c.rateLimited.Inc()
			return fn.Errf[json.RawMessage]("%w: %s", catalog.ErrRateLimitExceeded, url)
		}
		return r
	})
	if r.IsErr() {
		c.failures.Inc()
	}
	return r.Unwrap()
}

func (c *Client) do(ctx context.Context, url string) fn.Result[json.RawMessage] {
	if err := c.limiter.Wait(ctx); err != nil {
		return fn.Err[json.RawMessage](err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fn.Err[json.RawMessage](err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-RapidAPI-Key", c.apiKey)
	}
	req.Header.Set("X-RapidAPI-Host", c.host)

	c.requests.Inc()
	start := time.Now()
	resp, err := c.http.Do(req)
	c.duration.Since(start)
	if err != nil {
		return fn.Err[json.RawMessage](err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return fn.Err[json.RawMessage](errTooManyRequests)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fn.Err[json.RawMessage](catalog.NewHTTPError(resp.StatusCode, url))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fn.Err[json.RawMessage](err)
	}
	if !json.Valid(body) {
		return fn.Errf[json.RawMessage]("%w: invalid JSON from %s", catalog.ErrMalformedResponse, url)
	}
	return fn.Ok(json.RawMessage(body))
}

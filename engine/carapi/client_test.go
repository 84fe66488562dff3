package carapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/WessleyAI/carbrowse/engine/catalog"
	"github.com/WessleyAI/carbrowse/pkg/metrics"
)

// newTestClient points a Client at srv and records backoff sleeps instead of
// waiting.
func newTestClient(t *testing.T, srv *httptest.Server, opts Options) (*Client, *[]time.Duration) {
	t.Helper()
	opts.BaseURL = srv.URL
	opts.HTTPClient = srv.Client()
	c := New(opts)
	var slept []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return c, &slept
}

func TestRequestSuccessSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-RapidAPI-Key") != "secret" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("X-RapidAPI-Host") != DefaultHost {
			t.Errorf("host header = %q", r.Header.Get("X-RapidAPI-Host"))
		}
		w.Write([]byte(`[{"id":1,"name":"Porsche"}]`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv, Options{APIKey: "secret"})
	raw, err := c.Request(context.Background(), srv.URL+"/makes", DefaultRequestOpts)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `[{"id":1,"name":"Porsche"}]` {
		t.Fatalf("body = %s", raw)
	}
}

func TestRequestRetriesOn429(t *testing.T) {
	for _, retries := range []int{1, 3, 5} {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		}))

		reg := metrics.New()
		c, slept := newTestClient(t, srv, Options{Metrics: reg})
		_, err := c.Request(context.Background(), srv.URL+"/makes", RequestOpts{MaxRetries: retries, InitialBackoff: 500 * time.Millisecond})
		srv.Close()

		if !errors.Is(err, catalog.ErrRateLimitExceeded) {
			t.Fatalf("retries=%d: expected ErrRateLimitExceeded, got %v", retries, err)
		}
		if got := int(hits.Load()); got != retries+1 {
			t.Errorf("retries=%d: expected %d attempts, got %d", retries, retries+1, got)
		}
		if len(*slept) != retries {
			t.Fatalf("retries=%d: expected %d sleeps, got %v", retries, retries, *slept)
		}
		for i, d := range *slept {
			if want := time.Duration(i+1) * 500 * time.Millisecond; d != want {
				t.Errorf("sleep %d = %v, want %v", i, d, want)
			}
		}
		if reg.Counter("carapi_rate_limited_total", "").Value() != 1 {
			t.Error("rate limited counter not incremented")
		}
	}
}

func TestRequestRecoversAfter429(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	c, slept := newTestClient(t, srv, Options{})
	if _, err := c.Request(context.Background(), srv.URL, DefaultRequestOpts); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 3 || len(*slept) != 2 {
		t.Fatalf("hits=%d sleeps=%v", hits.Load(), *slept)
	}
}

func TestRequestHTTPErrorNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, slept := newTestClient(t, srv, Options{})
	_, err := c.Request(context.Background(), srv.URL+"/trims/1", DefaultRequestOpts)
	var he *catalog.HTTPError
	if !errors.As(err, &he) || he.Status != http.StatusNotFound {
		t.Fatalf("expected HTTPError 404, got %v", err)
	}
	if hits.Load() != 1 || len(*slept) != 0 {
		t.Fatalf("non-429 must fail immediately, hits=%d", hits.Load())
	}
}

func TestRequestInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv, Options{})
	if _, err := c.Request(context.Background(), srv.URL, DefaultRequestOpts); !errors.Is(err, catalog.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestRequestContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	c.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}
	if _, err := c.Request(ctx, srv.URL, DefaultRequestOpts); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBreakerOpensAfterExhaustedRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv, Options{Breaker: BreakerOpts{FailThreshold: 2, Cooldown: time.Minute}})
	opts := RequestOpts{MaxRetries: 1, InitialBackoff: time.Millisecond}
	for i := 0; i < 2; i++ {
		if _, err := c.Request(context.Background(), srv.URL, opts); !errors.Is(err, catalog.ErrRateLimitExceeded) {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	before := hits.Load()
	if _, err := c.Request(context.Background(), srv.URL, opts); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if hits.Load() != before {
		t.Fatal("open circuit must not reach the server")
	}
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	b := newBreaker(BreakerOpts{FailThreshold: 1, Cooldown: time.Second, Trips: IsOutage})
	now := time.Unix(0, 0)
	b.now = func() time.Time { return now }
	ctx := context.Background()

	fail := func(context.Context) fnResult { return errResult(catalog.NewHTTPError(503, "x")) }
	ok := func(context.Context) fnResult { return okResult() }

	call(b, ctx, fail)
	if b.State() != breakerOpen {
		t.Fatalf("state = %v", b.State())
	}
	now = now.Add(2 * time.Second)
	if b.State() != breakerHalfOpen {
		t.Fatalf("state = %v", b.State())
	}
	if r := call(b, ctx, ok); r.IsErr() {
		t.Fatal(r.Error())
	}
	if b.State() != breakerClosed {
		t.Fatalf("state = %v", b.State())
	}
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	b := newBreaker(BreakerOpts{FailThreshold: 1, Trips: IsOutage})
	for i := 0; i < 3; i++ {
		call(b, context.Background(), func(context.Context) fnResult {
			return errResult(catalog.NewHTTPError(404, "x"))
		})
	}
	if b.State() != breakerClosed {
		t.Fatalf("404s should not open the circuit, state = %v", b.State())
	}
}

func TestIsOutage(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{catalog.ErrRateLimitExceeded, true},
		{catalog.NewHTTPError(502, "x"), true},
		{catalog.NewHTTPError(400, "x"), false},
		{catalog.ErrMalformedResponse, false},
		{context.Canceled, false},
		{errors.New("connection refused"), true},
	}
	for _, tt := range tests {
		if got := IsOutage(tt.err); got != tt.want {
			t.Errorf("IsOutage(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

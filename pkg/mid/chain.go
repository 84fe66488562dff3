// Package mid provides middleware for outgoing HTTP requests.
package mid

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Middleware wraps an http.RoundTripper.
type Middleware func(http.RoundTripper) http.RoundTripper

// Chain applies middlewares to rt left-to-right (first middleware is outermost).
// A nil rt uses http.DefaultTransport.
func Chain(rt http.RoundTripper, mw ...Middleware) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}
	for i := len(mw) - 1; i >= 0; i-- {
		rt = mw[i](rt)
	}
	return rt
}

// Logger logs method, host, path, status and duration of every request at
// debug level, and transport failures at warn.
func Logger(log *slog.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(r)
			if err != nil {
				log.Warn("outgoing request failed",
					"method", r.Method,
					"host", r.URL.Host,
					"path", r.URL.Path,
					"duration", time.Since(start),
					"err", err,
				)
				return nil, err
			}
			log.Debug("outgoing request",
				"method", r.Method,
				"host", r.URL.Host,
				"path", r.URL.Path,
				"status", resp.StatusCode,
				"duration", time.Since(start),
			)
			return resp, nil
		})
	}
}

// Recover turns a panic inside the transport into an error.
func Recover(log *slog.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (resp *http.Response, err error) {
			defer func() {
				if p := recover(); p != nil {
					log.Error("panic recovered", "error", fmt.Sprintf("%v", p))
					resp, err = nil, fmt.Errorf("mid: transport panic: %v", p)
				}
			}()
			return next.RoundTrip(r)
		})
	}
}

// UserAgent sets the User-Agent header on requests that have none.
func UserAgent(ua string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if r.Header.Get("User-Agent") == "" {
				r = r.Clone(r.Context())
				r.Header.Set("User-Agent", ua)
			}
			return next.RoundTrip(r)
		})
	}
}

// OTel creates OpenTelemetry client spans for each request.
func OTel() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return otelhttp.NewTransport(next)
	}
}

// Transport is the instrumented transport the API clients share.
func Transport(log *slog.Logger) http.RoundTripper {
	return Chain(http.DefaultTransport,
		Recover(log),
		OTel(),
		UserAgent("carbrowse/1"),
		Logger(log),
	)
}

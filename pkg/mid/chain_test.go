package mid

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func ok(status int) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader("")), Request: r}, nil
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	mk := func(name string) Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(r)
			})
		}
	}
	rt := Chain(ok(200), mk("a"), mk("b"), mk("c"))
	req := httptest.NewRequest(http.MethodGet, "http://example.test/", nil)
	if _, err := rt.RoundTrip(req); err != nil {
		t.Fatal(err)
	}
	if strings.Join(order, ",") != "a,b,c" {
		t.Fatalf("order = %v", order)
	}
}

func TestChainNilUsesDefault(t *testing.T) {
	if Chain(nil) != http.DefaultTransport {
		t.Fatal("expected http.DefaultTransport")
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	req := httptest.NewRequest(http.MethodGet, "http://api.test/v2/cars/makes", nil)

	if _, err := Chain(ok(204), Logger(log)).RoundTrip(req); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "status=204") || !strings.Contains(buf.String(), "path=/v2/cars/makes") {
		t.Fatalf("log = %s", buf.String())
	}

	buf.Reset()
	failing := RoundTripperFunc(func(*http.Request) (*http.Response, error) { return nil, errors.New("refused") })
	if _, err := Chain(failing, Logger(log)).RoundTrip(req); err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(buf.String(), "level=WARN") || !strings.Contains(buf.String(), "refused") {
		t.Fatalf("log = %s", buf.String())
	}
}

func TestRecover(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	panicky := RoundTripperFunc(func(*http.Request) (*http.Response, error) { panic("boom") })
	req := httptest.NewRequest(http.MethodGet, "http://example.test/", nil)
	resp, err := Chain(panicky, Recover(log)).RoundTrip(req)
	if err == nil || resp != nil {
		t.Fatalf("resp=%v err=%v", resp, err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("err = %v", err)
	}
}

func TestUserAgent(t *testing.T) {
	var got string
	capture := RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		got = r.Header.Get("User-Agent")
		return ok(200).RoundTrip(r)
	})
	rt := Chain(capture, UserAgent("carbrowse/test"))

	req := httptest.NewRequest(http.MethodGet, "http://example.test/", nil)
	rt.RoundTrip(req)
	if got != "carbrowse/test" {
		t.Fatalf("User-Agent = %q", got)
	}
	if req.Header.Get("User-Agent") != "" {
		t.Fatal("original request must not be modified")
	}

	req.Header.Set("User-Agent", "custom")
	rt.RoundTrip(req)
	if got != "custom" {
		t.Fatalf("existing User-Agent overwritten: %q", got)
	}
}

func TestTransportAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, r.Header.Get("User-Agent"))
	}))
	defer srv.Close()

	client := &http.Client{Transport: Transport(slog.New(slog.NewTextHandler(io.Discard, nil)))}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "carbrowse/1" {
		t.Fatalf("body = %q", body)
	}
}

package metrics

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestCounter(t *testing.T) {
	r := New()
	c := r.Counter("carapi_requests_total", "Requests sent")
	c.Inc()
	c.Add(4)
	if c.Value() != 5 {
		t.Fatalf("expected 5, got %d", c.Value())
	}
	if r.Counter("carapi_requests_total", "") != c {
		t.Fatal("expected same counter instance")
	}
}

func TestGauge(t *testing.T) {
	r := New()
	g := r.Gauge("browse_loaded_cars", "")
	g.Set(10)
	g.Add(-3)
	if g.Value() != 7 {
		t.Fatalf("expected 7, got %d", g.Value())
	}
}

func TestHistogramBuckets(t *testing.T) {
	r := New()
	h := r.Histogram("carapi_request_duration_seconds", "", []float64{1.0, 0.1, 0.5})
	for _, v := range []float64{0.05, 0.1, 0.3, 0.8, 2.0} {
		h.Observe(v)
	}
	if h.Count() != 5 {
		t.Fatalf("expected 5 observations, got %d", h.Count())
	}
	want := []uint64{2, 1, 1}
	for i, n := range want {
		if h.counts[i] != n {
			t.Errorf("bucket %g: got %d want %d", h.bounds[i], h.counts[i], n)
		}
	}
}

func TestHistogramSince(t *testing.T) {
	h := New().Histogram("latency", "", nil)
	h.Since(time.Now().Add(-20 * time.Millisecond))
	if h.Count() != 1 {
		t.Fatal("expected 1 observation")
	}
}

func TestWithLabels(t *testing.T) {
	tests := []struct {
		name string
		kvs  []string
		want string
	}{
		{"cache_hits_total", []string{"cache", "trims"}, `cache_hits_total{cache="trims"}`},
		{"x", []string{"a", "1", "b", "2"}, `x{a="1",b="2"}`},
		{"bare", nil, "bare"},
		{"odd", []string{"a"}, "odd"},
	}
	for _, tt := range tests {
		if got := WithLabels(tt.name, tt.kvs...); got != tt.want {
			t.Errorf("WithLabels(%q, %v) = %q, want %q", tt.name, tt.kvs, got, tt.want)
		}
	}
}

func TestKindMismatchPanics(t *testing.T) {
	r := New()
	r.Counter("dup", "")
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	r.Gauge("dup", "")
}

func TestRender(t *testing.T) {
	r := New()
	r.Counter(WithLabels("carapi_requests_total", "endpoint", "models"), "Requests sent").Add(7)
	r.Counter(WithLabels("carapi_requests_total", "endpoint", "trims"), "").Add(3)
	r.Gauge("browse_loaded_cars", "Cars in session").Set(5)
	h := r.Histogram(WithLabels("carapi_request_duration_seconds", "endpoint", "models"), "Latency", []float64{0.1, 0.5})
	h.Observe(0.05)
	h.Observe(0.3)

	var buf bytes.Buffer
	if _, err := r.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if out != r.Render() {
		t.Fatal("Render and WriteTo disagree")
	}

	for _, want := range []string{
		"# HELP carapi_requests_total Requests sent",
		"# TYPE carapi_requests_total counter",
		`carapi_requests_total{endpoint="models"} 7`,
		`carapi_requests_total{endpoint="trims"} 3`,
		"# TYPE browse_loaded_cars gauge",
		"browse_loaded_cars 5",
		"# TYPE carapi_request_duration_seconds histogram",
		`carapi_request_duration_seconds_bucket{endpoint="models",le="0.1"} 1`,
		`carapi_request_duration_seconds_bucket{endpoint="models",le="0.5"} 2`,
		`carapi_request_duration_seconds_bucket{endpoint="models",le="+Inf"} 2`,
		`carapi_request_duration_seconds_count{endpoint="models"} 2`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Index(out, "carapi_requests_total") > strings.Index(out, "browse_loaded_cars") {
		t.Error("families should render in registration order")
	}
}

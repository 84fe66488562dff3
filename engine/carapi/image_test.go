package carapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestImageSearchLookupCaches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if got := r.Header.Get("Authorization"); got != "Client-ID key123" {
			t.Errorf("authorization = %q", got)
		}
		q := r.URL.Query()
		if q.Get("query") != "porsche 911" || q.Get("per_page") != "1" || q.Get("orientation") != "landscape" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`{"results":[{"urls":{"regular":"https://img/911.jpg"}}]}`))
	}))
	defer srv.Close()

	s := NewImageSearch(srv.URL, "key123", srv.Client(), nil)
	for i := 0; i < 2; i++ {
		u, ok := s.Lookup(context.Background(), "Porsche", "911")
		if !ok || u != "https://img/911.jpg" {
			t.Fatalf("lookup %d = %q, %v", i, u, ok)
		}
	}
	if _, ok := s.Lookup(context.Background(), "PORSCHE", "911"); !ok {
		t.Fatal("case-insensitive query should hit cache")
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one request, got %d", hits.Load())
	}
}

func TestImageSearchNoResults(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	s := NewImageSearch(srv.URL, "k", srv.Client(), nil)
	if _, ok := s.Lookup(context.Background(), "Lada", "Niva"); ok {
		t.Fatal("expected no image")
	}
	s.Lookup(context.Background(), "Lada", "Niva")
	if hits.Load() != 2 {
		t.Fatalf("misses should not be cached, hits=%d", hits.Load())
	}
}

func TestImageSearchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewImageSearch(srv.URL, "bad", srv.Client(), nil)
	if u, ok := s.Lookup(context.Background(), "Audi", "A4"); ok || u != "" {
		t.Fatalf("expected failure, got %q", u)
	}
}

func TestImageSearchRetriesOutage(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"results":[{"urls":{"regular":"https://img/a4.jpg"}}]}`))
	}))
	defer srv.Close()

	s := NewImageSearch(srv.URL, "k", srv.Client(), nil)
	var waits []time.Duration
	s.retry.Sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	u, ok := s.Lookup(context.Background(), "Audi", "A4")
	if !ok || u != "https://img/a4.jpg" {
		t.Fatalf("lookup = %q, %v", u, ok)
	}
	if hits.Load() != 2 || len(waits) != 1 {
		t.Fatalf("hits=%d waits=%v", hits.Load(), waits)
	}
}

func TestImageSearchDoesNotRetryClientError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	s := NewImageSearch(srv.URL, "k", srv.Client(), nil)
	s.retry.Sleep = func(context.Context, time.Duration) error { return nil }
	if _, ok := s.Lookup(context.Background(), "Audi", "A4"); ok {
		t.Fatal("expected failure")
	}
	if hits.Load() != 1 {
		t.Fatalf("403 should not be retried, hits=%d", hits.Load())
	}
}

package carapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/WessleyAI/carbrowse/engine/cache"
	"github.com/WessleyAI/carbrowse/engine/catalog"
	"github.com/WessleyAI/carbrowse/pkg/fn"
	"github.com/WessleyAI/carbrowse/pkg/mid"
)

// DefaultImageSearchURL is the Unsplash photo search endpoint.
const DefaultImageSearchURL = "https://api.unsplash.com/search/photos"

// ImageSearch finds a landscape photo for a make and model. Hits are cached
// per lowercase "make model" query; misses are not.
type ImageSearch struct {
	endpoint string
	key      string
	http     *http.Client
	cache    cache.Cache[string, string]
	retry    fn.RetryOpts
	log      *slog.Logger
}

// imageRetry retries outages only; a bad key or an empty result is final.
var imageRetry = fn.RetryOpts{
	MaxAttempts: 3,
	Backoff:     fn.ExponentialBackoff(250*time.Millisecond, 2*time.Second, true),
	Retryable:   IsOutage,
}

// NewImageSearch creates an ImageSearch. An empty endpoint uses Unsplash.
func NewImageSearch(endpoint, accessKey string, httpClient *http.Client, logger *slog.Logger) *ImageSearch {
	if endpoint == "" {
		endpoint = DefaultImageSearchURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   15 * time.Second,
			Transport: mid.Transport(logger),
		}
	}
	return &ImageSearch{
		endpoint: endpoint,
		key:      accessKey,
		http:     httpClient,
		cache:    cache.NewMap[string, string](),
		retry:    imageRetry,
		log:      logger,
	}
}

type photoSearch struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
	} `json:"results"`
}

// Lookup returns an image URL for a make and model, or false when none was
// found or the search failed.
func (s *ImageSearch) Lookup(ctx context.Context, makeName, modelName string) (string, bool) {
	query := strings.ToLower(strings.TrimSpace(makeName + " " + modelName))
	if u, ok := s.cache.Get(query); ok {
		return u, true
	}
	u, err := fn.Retry(ctx, s.retry, func(ctx context.Context) fn.Result[string] {
		return fn.FromPair(s.search(ctx, query))
	}).Unwrap()
	if err != nil {
		s.log.Warn("image search failed", "query", query, "err", err)
		return "", false
	}
	if u == "" {
		return "", false
	}
	s.cache.Set(query, u)
	return u, true
}

func (s *ImageSearch) search(ctx context.Context, query string) (string, error) {
	params := url.Values{
		"query":       {query},
		"per_page":    {"1"},
		"orientation": {"landscape"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Client-ID "+s.key)

	resp, err := s.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", catalog.NewHTTPError(resp.StatusCode, s.endpoint)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var ps photoSearch
	if err := json.Unmarshal(body, &ps); err != nil {
		return "", fmt.Errorf("%w: %v", catalog.ErrMalformedResponse, err)
	}
	if len(ps.Results) == 0 {
		return "", nil
	}
	return ps.Results[0].URLs.Regular, nil
}

package feeds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"arxivreco/internal/core"
)

const (
	// DefaultUserAgent identifies the recommender to arXiv
	DefaultUserAgent = "arxivreco/1.0 (daily arXiv recommender)"
	// DefaultTimeout bounds a single feed request
	DefaultTimeout = 30 * time.Second
	// DefaultRequestsPerSecond spaces consecutive requests to the same site
	DefaultRequestsPerSecond = 1.0

	maxBodyBytes = 16 << 20
)

// FetcherOptions configures a Fetcher
type FetcherOptions struct {
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64 // <= 0 disables the limiter
	Client            *http.Client
}

// Fetcher performs polite HTTP GETs for all sources of a run
type Fetcher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	limiter   *rate.Limiter
}

// NewFetcher creates a fetcher with defaults applied
func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Fetcher{
		client:    opts.Client,
		userAgent: opts.UserAgent,
		timeout:   opts.Timeout,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// Get downloads url on behalf of feed. Transport failures, timeouts and non-2xx
// answers are reported as *core.SourceFetchError.
func (f *Fetcher) Get(ctx context.Context, feed, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, &core.SourceFetchError{Feed: feed, URL: url, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &core.SourceFetchError{Feed: feed, URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &core.SourceFetchError{Feed: feed, URL: url, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &core.SourceFetchError{
			Feed:       feed,
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &core.SourceFetchError{Feed: feed, URL: url, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	return body, nil
}

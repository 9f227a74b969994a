// Package feeds fetches the daily "new" listings of the configured arXiv feeds
package feeds

import (
	"context"
	"fmt"
	"strings"

	"arxivreco/internal/core"
)

// Feed kinds
const (
	KindListing = "listing" // arXiv /list/<category>/new HTML page
	KindRSS     = "rss"     // rss.arxiv.org/rss/<category>
)

// Source produces one FeedBatch per run
type Source interface {
	// Name returns the configured feed name, e.g. "gr-qc"
	Name() string

	// Fetch downloads and parses the feed's current listing
	Fetch(ctx context.Context) (core.FeedBatch, error)
}

// Spec describes one configured feed
type Spec struct {
	Name string `json:"name" mapstructure:"name"`
	URL  string `json:"url" mapstructure:"url"`
	Kind string `json:"kind" mapstructure:"kind"`
}

// New creates a Source for the given kind. An empty kind means KindListing.
func New(spec Spec, fetcher *Fetcher) (Source, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, &core.ConfigurationError{Field: "feeds.name", Err: fmt.Errorf("feed name is required (url %q)", spec.URL)}
	}
	if strings.TrimSpace(spec.URL) == "" {
		return nil, &core.ConfigurationError{Field: "feeds." + name + ".url", Err: fmt.Errorf("feed URL is required")}
	}

	switch strings.ToLower(strings.TrimSpace(spec.Kind)) {
	case "", KindListing:
		return &ListingSource{name: name, url: spec.URL, fetcher: fetcher}, nil
	case KindRSS:
		return &RSSSource{name: name, url: spec.URL, fetcher: fetcher}, nil
	default:
		return nil, &core.ConfigurationError{
			Field: "feeds." + name + ".kind",
			Err:   fmt.Errorf("unknown feed kind %q (expected %s or %s)", spec.Kind, KindListing, KindRSS),
		}
	}
}

// NewAll creates sources for every spec, preserving order
func NewAll(specs []Spec, fetcher *Fetcher) ([]Source, error) {
	sources := make([]Source, 0, len(specs))
	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		src, err := New(spec, fetcher)
		if err != nil {
			return nil, err
		}
		if seen[src.Name()] {
			return nil, &core.ConfigurationError{Field: "feeds", Err: fmt.Errorf("duplicate feed name %q", src.Name())}
		}
		seen[src.Name()] = true
		sources = append(sources, src)
	}
	return sources, nil
}

// collapseSpace joins whitespace runs into single spaces and trims the result
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

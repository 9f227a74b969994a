package pipeline

import (
	"fmt"
	"strings"
	"time"

	"arxivreco/internal/core"
	"arxivreco/internal/feeds"
	"arxivreco/internal/relevance"
	"arxivreco/internal/textprep"
)

// Config is the immutable configuration of one recommender run
type Config struct {
	Feeds            []feeds.Spec
	TopN             int
	MaxCharsPerPaper int
	MaxProfileChars  int
	BatchSize        int
	EmbedConcurrency int
	FetchConcurrency int
	FetchTimeout     time.Duration
	RequestsPerSec   float64
	UserAgent        string
	OutputDir        string
	ProfileName      string
	Model            string
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() Config {
	return Config{
		Feeds: []feeds.Spec{
			{Name: "gr-qc", URL: "https://arxiv.org/list/gr-qc/new", Kind: feeds.KindListing},
			{Name: "astro-ph", URL: "https://arxiv.org/list/astro-ph/new", Kind: feeds.KindListing},
		},
		TopN:             relevance.DefaultTopN,
		MaxCharsPerPaper: textprep.DefaultMaxChars,
		MaxProfileChars:  textprep.DefaultMaxProfileChars,
		BatchSize:        96,
		EmbedConcurrency: 1,
		FetchConcurrency: feeds.DefaultConcurrency,
		FetchTimeout:     feeds.DefaultTimeout,
		RequestsPerSec:   feeds.DefaultRequestsPerSecond,
		UserAgent:        feeds.DefaultUserAgent,
		OutputDir:        "docs",
		ProfileName:      "profile.md",
	}
}

// Validate checks the values a run cannot start without
func (c Config) Validate() error {
	switch {
	case len(c.Feeds) == 0:
		return &core.ConfigurationError{Field: "feeds", Err: fmt.Errorf("at least one feed is required")}
	case c.TopN < 1:
		return &core.ConfigurationError{Field: "ranking.top_n", Err: fmt.Errorf("must be at least 1, got %d", c.TopN)}
	case c.MaxCharsPerPaper < 1:
		return &core.ConfigurationError{Field: "ranking.max_chars_per_paper", Err: fmt.Errorf("must be positive, got %d", c.MaxCharsPerPaper)}
	case c.BatchSize < 1:
		return &core.ConfigurationError{Field: "embedding.batch_size", Err: fmt.Errorf("must be positive, got %d", c.BatchSize)}
	case strings.TrimSpace(c.OutputDir) == "":
		return &core.ConfigurationError{Field: "output.dir", Err: fmt.Errorf("output directory is required")}
	}
	return nil
}

// FeedNames returns the configured feed names in order
func (c Config) FeedNames() []string {
	names := make([]string, len(c.Feeds))
	for i, f := range c.Feeds {
		names[i] = f.Name
	}
	return names
}

func (c Config) clone() Config {
	c.Feeds = append([]feeds.Spec(nil), c.Feeds...)
	return c
}

package pipeline

import (
	"fmt"

	"arxivreco/internal/digest"
	"arxivreco/internal/embedding"
	"arxivreco/internal/feeds"
	"arxivreco/internal/relevance"
	"arxivreco/internal/render"
	"arxivreco/internal/textprep"
)

// Builder helps construct a fully configured Pipeline
type Builder struct {
	config    Config
	embedder  embedding.Embedder
	sources   []feeds.Source
	renderers []digest.Renderer
	noPage    bool
}

// NewBuilder creates a new pipeline builder with default settings
func NewBuilder() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig sets the pipeline configuration
func (b *Builder) WithConfig(config Config) *Builder {
	b.config = config.clone()
	return b
}

// WithEmbedder sets the embedding client
func (b *Builder) WithEmbedder(e embedding.Embedder) *Builder {
	b.embedder = e
	return b
}

// WithSources overrides the sources built from the configured feeds
func (b *Builder) WithSources(sources ...feeds.Source) *Builder {
	b.sources = sources
	return b
}

// WithRenderer adds a renderer that runs after the archive is written
func (b *Builder) WithRenderer(r digest.Renderer) *Builder {
	b.renderers = append(b.renderers, r)
	return b
}

// WithoutPage disables the default HTML page
func (b *Builder) WithoutPage() *Builder {
	b.noPage = true
	return b
}

// Build constructs a fully configured Pipeline
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	if b.embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}

	sources := b.sources
	if sources == nil {
		fetcher := feeds.NewFetcher(feeds.FetcherOptions{
			UserAgent:         b.config.UserAgent,
			Timeout:           b.config.FetchTimeout,
			RequestsPerSecond: b.config.RequestsPerSec,
		})
		var err error
		if sources, err = feeds.NewAll(b.config.Feeds, fetcher); err != nil {
			return nil, err
		}
	}

	renderers := b.renderers
	if !b.noPage {
		page := render.NewPageRenderer(b.config.OutputDir,
			render.WithProfileName(b.config.ProfileName),
			render.WithModel(b.embedder.ModelName()))
		renderers = append([]digest.Renderer{page}, renderers...)
	}

	preparer := textprep.New(b.config.MaxCharsPerPaper, b.config.MaxProfileChars)
	ranker := relevance.NewRanker(b.embedder, preparer, relevance.RankerOptions{
		TopN:        b.config.TopN,
		BatchSize:   b.config.BatchSize,
		Concurrency: b.config.EmbedConcurrency,
	})

	return NewPipeline(b.config, sources, preparer, ranker, digest.NewEmitter(b.config.OutputDir, renderers...)), nil
}

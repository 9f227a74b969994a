// Package embedding turns texts into vectors through an external service.
package embedding

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"arxivreco/internal/core"
)

const (
	// DefaultBatchSize bounds the number of texts sent in one request.
	DefaultBatchSize = 96
	// DefaultConcurrency is the number of batches in flight at once.
	DefaultConcurrency = 1
)

// Embedder generates one vector per input text, in input order.
type Embedder interface {
	// Embed sends a single request for all texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// EmbedAll embeds texts in batches of at most batchSize, with at most
// concurrency batches in flight. The returned slice matches texts 1:1 regardless
// of the order in which batches complete. Any failed or malformed batch aborts
// the whole call; partial results are never returned.
func EmbedAll(ctx context.Context, e Embedder, texts []string, batchSize, concurrency int) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	vectors := make([][]float32, len(texts))
	if len(texts) == 0 {
		return vectors, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for batch, start := 0, 0; start < len(texts); batch, start = batch+1, start+batchSize {
		end := min(start+batchSize, len(texts))
		chunk := texts[start:end]

		g.Go(func() error {
			out, err := e.Embed(gctx, chunk)
			if err != nil {
				return &core.EmbeddingServiceError{Batch: batch, Err: err}
			}
			if len(out) != len(chunk) {
				return &core.EmbeddingServiceError{
					Batch: batch,
					Err:   fmt.Errorf("%w: got %d vectors for %d inputs", core.ErrMalformedEmbedding, len(out), len(chunk)),
				}
			}
			copy(vectors[start:], out)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// WithCallTimeout bounds every Embed call of e by d. A non-positive d returns e.
func WithCallTimeout(e Embedder, d time.Duration) Embedder {
	if d <= 0 {
		return e
	}
	return timeoutEmbedder{inner: e, timeout: d}
}

type timeoutEmbedder struct {
	inner   Embedder
	timeout time.Duration
}

func (t timeoutEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Embed(ctx, texts)
}

func (t timeoutEmbedder) ModelName() string { return t.inner.ModelName() }

package feeds

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"arxivreco/internal/core"
	"arxivreco/internal/logger"
)

// DefaultConcurrency is the number of feeds fetched in parallel
const DefaultConcurrency = 2

// Aggregate fetches every source with at most concurrency requests in flight.
// Batches are returned in source order. The first failure cancels the remaining
// fetches and is returned alone; there is no partial result.
func Aggregate(ctx context.Context, sources []Source, concurrency int) ([]core.FeedBatch, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	start := time.Now()
	batches := make([]core.FeedBatch, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, src := range sources {
		g.Go(func() error {
			batch, err := src.Fetch(gctx)
			if err != nil {
				return err
			}
			if batch.FeedName == "" {
				batch.FeedName = src.Name()
			}
			batches[i] = batch
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Feed aggregation failed", err, "feeds", len(sources))
		return nil, err
	}

	logger.Debug("Aggregated feeds",
		"feeds", len(sources),
		"duration", time.Since(start).String())

	return batches, nil
}

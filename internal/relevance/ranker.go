package relevance

import (
	"context"
	"fmt"
	"sort"

	"arxivreco/internal/core"
	"arxivreco/internal/embedding"
	"arxivreco/internal/logger"
)

// Ranker scores candidates by embedding cosine similarity to the profile
type Ranker struct {
	embedder    embedding.Embedder
	preparer    TextPreparer
	topN        int
	batchSize   int
	concurrency int
}

// RankerOptions configures a Ranker
type RankerOptions struct {
	TopN        int // Number of candidates kept after sorting
	BatchSize   int // Texts per embedding request
	Concurrency int // Embedding requests in flight
}

// NewRanker creates a new ranker
func NewRanker(embedder embedding.Embedder, preparer TextPreparer, opts RankerOptions) *Ranker {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	return &Ranker{
		embedder:    embedder,
		preparer:    preparer,
		topN:        opts.TopN,
		batchSize:   opts.BatchSize,
		concurrency: opts.Concurrency,
	}
}

// Rank embeds the profile once and every candidate in batches, then returns the
// candidates ordered by descending similarity, truncated to the top N.
// Equal scores keep their input order. Any embedding failure aborts the ranking.
func (r *Ranker) Rank(ctx context.Context, profile string, candidates []core.Candidate) ([]core.ScoredCandidate, error) {
	if len(candidates) == 0 {
		return []core.ScoredCandidate{}, nil
	}

	profileVecs, err := r.embedder.Embed(ctx, []string{profile})
	if err != nil {
		return nil, &core.EmbeddingServiceError{Batch: -1, Err: err}
	}
	if len(profileVecs) != 1 || len(profileVecs[0]) == 0 || !finite(profileVecs[0]) {
		return nil, &core.EmbeddingServiceError{Batch: -1, Err: fmt.Errorf("%w: unusable profile vector", core.ErrMalformedEmbedding)}
	}
	profileVec := profileVecs[0]

	texts := r.preparer.Candidates(candidates)
	vectors, err := embedding.EmbedAll(ctx, r.embedder, texts, r.batchSize, r.concurrency)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(candidates) {
		return nil, &core.EmbeddingServiceError{
			Batch: 0,
			Err:   fmt.Errorf("%w: got %d vectors for %d candidates", core.ErrMalformedEmbedding, len(vectors), len(candidates)),
		}
	}

	scored := make([]core.ScoredCandidate, len(candidates))
	for i, c := range candidates {
		v := vectors[i]
		if len(v) != len(profileVec) || !finite(v) {
			return nil, &core.EmbeddingServiceError{
				Batch: i / r.effectiveBatchSize(),
				Err:   fmt.Errorf("%w: candidate %s has %d dimensions, profile has %d", core.ErrMalformedEmbedding, c.ID, len(v), len(profileVec)),
			}
		}
		scored[i] = core.ScoredCandidate{Candidate: c, Score: CosineSimilarity(profileVec, v)}
	}

	ranked := SortAndTruncate(scored, r.topN)

	logger.Debug("Ranked candidates",
		"model", r.embedder.ModelName(),
		"candidates", len(candidates),
		"kept", len(ranked))

	return ranked, nil
}

// SortAndTruncate orders scored candidates by descending score, keeping input
// order for ties, and returns at most n of them.
func SortAndTruncate(scored []core.ScoredCandidate, n int) []core.ScoredCandidate {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if n > 0 && len(scored) > n {
		scored = scored[:n]
	}
	return scored
}

func (r *Ranker) effectiveBatchSize() int {
	if r.batchSize <= 0 {
		return embedding.DefaultBatchSize
	}
	return r.batchSize
}

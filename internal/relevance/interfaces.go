package relevance

import (
	"context"

	"arxivreco/internal/core"
)

// Scorer ranks candidates against a profile
type Scorer interface {
	// Rank scores every candidate, orders by descending score and keeps the top N
	Rank(ctx context.Context, profile string, candidates []core.Candidate) ([]core.ScoredCandidate, error)
}

// TextPreparer renders candidates into embedding input
type TextPreparer interface {
	Candidates(cs []core.Candidate) []string
}

// DefaultTopN is the number of papers kept in a digest.
const DefaultTopN = 40

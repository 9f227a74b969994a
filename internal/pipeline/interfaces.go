package pipeline

import (
	"context"
	"time"

	"arxivreco/internal/core"
	"arxivreco/internal/digest"
)

// CandidateRanker scores merged candidates against the profile and keeps the best
type CandidateRanker interface {
	Rank(ctx context.Context, profile string, candidates []core.Candidate) ([]core.ScoredCandidate, error)
}

// DigestEmitter persists the ranked list and renders derived artifacts
type DigestEmitter interface {
	Emit(ctx context.Context, date time.Time, ranked []core.ScoredCandidate, meta digest.Meta) (*digest.Digest, error)
}

// ProfilePreparer validates the profile text before any network call
type ProfilePreparer interface {
	Profile(text string) (string, error)
}

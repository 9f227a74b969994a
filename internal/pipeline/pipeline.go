// Package pipeline runs one recommendation pass: fetch, merge, rank, publish.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"arxivreco/internal/core"
	"arxivreco/internal/digest"
	"arxivreco/internal/feeds"
	"arxivreco/internal/logger"
	"arxivreco/internal/merge"
)

// Pipeline orchestrates a single recommender run
type Pipeline struct {
	config   Config
	sources  []feeds.Source
	preparer ProfilePreparer
	ranker   CandidateRanker
	emitter  DigestEmitter
}

// NewPipeline creates a pipeline from its parts
func NewPipeline(config Config, sources []feeds.Source, preparer ProfilePreparer, ranker CandidateRanker, emitter DigestEmitter) *Pipeline {
	return &Pipeline{
		config:   config.clone(),
		sources:  sources,
		preparer: preparer,
		ranker:   ranker,
		emitter:  emitter,
	}
}

// Result describes a finished run
type Result struct {
	RunID      string
	TargetDate time.Time
	Digest     *digest.Digest
	MergeStats merge.Stats
	Candidates int // Merged candidates before truncation
	Duration   time.Duration
}

// Config returns the pipeline configuration
func (p *Pipeline) Config() Config { return p.config.clone() }

// Run executes the whole recommendation pass. The profile is validated before
// any network call; any fetch or embedding failure aborts the run.
func (p *Pipeline) Run(ctx context.Context, profileText string) (*Result, error) {
	start := time.Now()
	runID := uuid.New().String()

	profile, err := p.preparer.Profile(profileText)
	if err != nil {
		return nil, err
	}

	logger.Info("Starting run", "run_id", runID, "feeds", len(p.sources))

	// Step 1: fetch every feed
	batches, err := feeds.Aggregate(ctx, p.sources, p.config.FetchConcurrency)
	if err != nil {
		return nil, err
	}

	// Step 2: merge into one candidate per paper for the newest listing date
	merged := merge.Merge(batches)
	targetDate := merged.TargetDate
	if targetDate.IsZero() {
		targetDate = core.Day(time.Now())
	}
	logger.Info("Merged candidates",
		"run_id", runID,
		"target_date", core.FormatDay(targetDate),
		"candidates", len(merged.Candidates),
		"duplicates", merged.Stats.Duplicates,
		"stale_batches", merged.Stats.StaleBatches)

	// Step 3: rank against the profile
	ranked, err := p.ranker.Rank(ctx, profile, merged.Candidates)
	if err != nil {
		return nil, err
	}

	// Step 4: archive and render
	d, err := p.emitter.Emit(ctx, targetDate, ranked, digest.Meta{
		Sources: strings.Join(p.config.FeedNames(), ", "),
		Profile: profile,
		TopN:    p.config.TopN,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:      runID,
		TargetDate: targetDate,
		Digest:     d,
		MergeStats: merged.Stats,
		Candidates: len(merged.Candidates),
		Duration:   time.Since(start),
	}

	logger.Info("Run complete",
		"run_id", runID,
		"entries", len(d.Entries),
		"duration", res.Duration.String())

	return res, nil
}

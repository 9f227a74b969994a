// Package merge combines per-feed listings into one candidate per paper.
package merge

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"arxivreco/internal/core"
	"arxivreco/internal/logger"
)

// Stats describes what the merger saw and discarded.
type Stats struct {
	Batches       int // Batches received
	StaleBatches  int // Batches whose listing date is older than the target date
	Records       int // Records considered from current batches
	DroppedNoID   int // Records without an identifier
	DroppedNoFeed int // Records whose feed is unknown on both record and batch
	Duplicates    int // Records folded into an existing candidate
}

// Result is the canonical candidate set for one listing date.
type Result struct {
	TargetDate time.Time
	Candidates []core.Candidate
	Stats      Stats
}

// TargetDate returns the most recent listing date declared by any batch.
// The zero time is returned for an empty input.
func TargetDate(batches []core.FeedBatch) time.Time {
	var latest time.Time
	for _, b := range batches {
		d := core.Day(b.ListingDate)
		if d.After(latest) {
			latest = d
		}
	}
	return latest
}

type entry struct {
	base    core.RawCandidate
	textLen int
	sources map[string]struct{}
}

// Merge folds feed batches into the candidate set for the most recent listing date.
//
// Batches are processed in slice order and records in listing order. When an id
// repeats, the record with the strictly longest text becomes the base record; on
// equal length the earlier record is kept. Output order is first-seen order.
//
// A record is attributed to its own FeedName, or to the batch's when that is
// empty. Records with neither are dropped, so every candidate has at least one
// source.
func Merge(batches []core.FeedBatch) Result {
	res := Result{
		TargetDate: TargetDate(batches),
		Stats:      Stats{Batches: len(batches)},
	}

	byID := make(map[string]*entry)
	var order []string

	for _, batch := range batches {
		if !core.Day(batch.ListingDate).Equal(res.TargetDate) {
			res.Stats.StaleBatches++
			logger.Debug("Skipping stale feed batch",
				"feed", batch.FeedName,
				"listing_date", core.FormatDay(batch.ListingDate),
				"target_date", core.FormatDay(res.TargetDate))
			continue
		}

		for _, rec := range batch.Records {
			res.Stats.Records++

			id := strings.TrimSpace(rec.ID)
			if id == "" {
				res.Stats.DroppedNoID++
				continue
			}

			feed := strings.TrimSpace(rec.FeedName)
			if feed == "" {
				feed = strings.TrimSpace(batch.FeedName)
			}
			if feed == "" {
				res.Stats.DroppedNoFeed++
				continue
			}

			n := utf8.RuneCountInString(rec.Text)
			e, seen := byID[id]
			if !seen {
				e = &entry{base: rec, textLen: n, sources: make(map[string]struct{})}
				e.base.ID = id
				byID[id] = e
				order = append(order, id)
			} else {
				res.Stats.Duplicates++
				if n > e.textLen {
					e.base = rec
					e.base.ID = id
					e.textLen = n
				}
			}
			e.sources[feed] = struct{}{}
		}
	}

	res.Candidates = make([]core.Candidate, 0, len(order))
	for _, id := range order {
		res.Candidates = append(res.Candidates, finalize(byID[id]))
	}

	return res
}

func finalize(e *entry) core.Candidate {
	sources := make([]string, 0, len(e.sources))
	for s := range e.sources {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	authors := make([]string, 0, len(e.base.Authors))
	for _, a := range e.base.Authors {
		if a = collapseSpace(a); a != "" {
			authors = append(authors, a)
		}
	}

	return core.Candidate{
		ID:      e.base.ID,
		Title:   collapseSpace(e.base.Title),
		Authors: authors,
		Link:    strings.TrimSpace(e.base.Link),
		Text:    e.base.Text,
		Sources: sources,
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

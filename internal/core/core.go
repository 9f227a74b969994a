package core

import (
	"strings"
	"time"
)

// DayLayout is the calendar-day format used for archive names and display.
const DayLayout = "2006-01-02"

// RawCandidate represents one paper as listed by one feed.
type RawCandidate struct {
	ID          string    `json:"id"`           // Canonical paper identifier, e.g. "2512.01234"
	Title       string    `json:"title"`        // Paper title
	Authors     []string  `json:"authors"`      // Authors in listing order
	Link        string    `json:"link"`         // Absolute URL of the abstract page
	Text        string    `json:"text"`         // Free-form descriptive text used as similarity signal
	FeedName    string    `json:"feed_name"`    // Feed that listed the paper
	ListingDate time.Time `json:"listing_date"` // Day the feed declares as "new"
}

// FeedBatch is everything one feed produced for a run.
type FeedBatch struct {
	FeedName    string         `json:"feed_name"`
	ListingDate time.Time      `json:"listing_date"`
	Records     []RawCandidate `json:"records"`
	FetchedAt   time.Time      `json:"fetched_at"`
}

// Candidate is the merged, deduplicated view of a paper for the target date.
type Candidate struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
	Link    string   `json:"link"`
	Text    string   `json:"text"`
	Sources []string `json:"sources"` // Sorted feed names that listed the paper
}

// SourcesLabel joins the contributing feed names for display.
func (c Candidate) SourcesLabel() string {
	return strings.Join(c.Sources, ", ")
}

// ScoredCandidate attaches a similarity score to a Candidate.
type ScoredCandidate struct {
	Candidate
	Score float64 `json:"score"` // Cosine similarity in [-1, 1]
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// CalendarDay returns the day t falls on in its own location, as UTC midnight.
// Use it for dates a feed declares with an explicit offset.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDay renders a day as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return Day(t).Format(DayLayout)
}

// ParseDay parses a YYYY-MM-DD string into a UTC day.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DayLayout, strings.TrimSpace(s), time.UTC)
}

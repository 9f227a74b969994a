// Package textprep builds the bounded text sent to the embedding service.
package textprep

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"arxivreco/internal/core"
)

const (
	// DefaultMaxChars bounds a candidate's embedding input.
	DefaultMaxChars = 6000
	// DefaultMaxProfileChars is the hard limit for the profile text.
	DefaultMaxProfileChars = 30000
	// TruncationMarker is appended whenever text was cut.
	TruncationMarker = " …"
)

// Preparer composes candidate and profile texts for embedding.
type Preparer struct {
	MaxChars        int // Character budget per candidate
	MaxProfileChars int // Hard limit for the profile, never truncated
}

// New creates a Preparer, falling back to defaults for non-positive limits.
func New(maxChars, maxProfileChars int) Preparer {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if maxProfileChars <= 0 {
		maxProfileChars = DefaultMaxProfileChars
	}
	return Preparer{MaxChars: maxChars, MaxProfileChars: maxProfileChars}
}

// Candidate renders a candidate as "Title/Authors/Text" lines within the budget.
// Only the free-form text is shortened; the header is kept whole unless it alone
// exceeds the budget.
func (p Preparer) Candidate(c core.Candidate) string {
	header := fmt.Sprintf("Title: %s\nAuthors: %s\nText: ", c.Title, strings.Join(c.Authors, ", "))
	headerLen := utf8.RuneCountInString(header)

	if headerLen > p.MaxChars {
		return truncateRunes(header+c.Text, p.MaxChars)
	}

	return header + truncateRunes(c.Text, p.MaxChars-headerLen)
}

// Candidates prepares every candidate, preserving order.
func (p Preparer) Candidates(cs []core.Candidate) []string {
	texts := make([]string, len(cs))
	for i, c := range cs {
		texts[i] = p.Candidate(c)
	}
	return texts
}

// Profile validates the profile text and returns it trimmed of surrounding space.
func (p Preparer) Profile(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &core.ConfigurationError{Field: "profile", Err: core.ErrEmptyProfile}
	}
	if n := utf8.RuneCountInString(text); n > p.MaxProfileChars {
		return "", &core.ConfigurationError{
			Field: "profile",
			Err:   fmt.Errorf("%w: %d characters, limit %d", core.ErrProfileTooLarge, n, p.MaxProfileChars),
		}
	}
	return text, nil
}

// truncateRunes cuts s to max characters and appends the marker when it was cut.
func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 0 {
		return TruncationMarker
	}
	runes := []rune(s)
	return string(runes[:max]) + TruncationMarker
}

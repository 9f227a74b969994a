// Package digest writes and reads the dated JSON archive of ranked papers.
package digest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"arxivreco/internal/core"
	"arxivreco/internal/logger"
)

// DataDir is the archive directory below the output root
const DataDir = "data"

// stagingSuffix marks an archive whose renderers have not finished
const stagingSuffix = ".tmp"

// ErrNoArchives is returned when the output directory holds no digest yet
var ErrNoArchives = errors.New("no archived digests")

// FixedScore is a similarity score that always marshals with six decimals
type FixedScore float64

// MarshalJSON renders the score as a fixed-point number, e.g. 0.812345
func (s FixedScore) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(s), 'f', 6, 64)), nil
}

// Entry is one archived recommendation. Field order is the on-disk key order.
type Entry struct {
	Source  string     `json:"source"`
	ArxivID string     `json:"arxiv_id"`
	Title   string     `json:"title"`
	Authors []string   `json:"authors"`
	Link    string     `json:"link"`
	Score   FixedScore `json:"score"`
}

// Digest is the result of one run as handed to renderers
type Digest struct {
	Date        time.Time // Target listing day
	Sources     string    // Configured feed names, comma separated
	Profile     string    // Interest profile text (markdown)
	TopN        int       // Configured digest size
	Entries     []Entry   // Ranked entries, best first
	ArchivePath string    // Path of the written JSON archive
}

// Meta carries run-level information that is not part of the ranked entries
type Meta struct {
	Sources string
	Profile string
	TopN    int
}

// Renderer turns a written digest into another artifact
type Renderer interface {
	Render(ctx context.Context, d *Digest) error
}

// FromRanked converts ranked candidates into archive entries, keeping order
func FromRanked(ranked []core.ScoredCandidate) []Entry {
	entries := make([]Entry, len(ranked))
	for i, sc := range ranked {
		authors := sc.Authors
		if authors == nil {
			authors = []string{}
		}
		entries[i] = Entry{
			Source:  sc.SourcesLabel(),
			ArxivID: sc.ID,
			Title:   sc.Title,
			Authors: authors,
			Link:    sc.Link,
			Score:   FixedScore(sc.Score),
		}
	}
	return entries
}

// Encode serializes entries as an indented JSON array. Non-ASCII text and HTML
// characters are written verbatim; identical input yields identical bytes.
func Encode(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return nil, fmt.Errorf("failed to encode digest: %w", err)
	}
	return buf.Bytes(), nil
}

// ArchivePath returns <outputDir>/data/<YYYY-MM-DD>.json
func ArchivePath(outputDir string, date time.Time) string {
	return filepath.Join(outputDir, DataDir, core.FormatDay(date)+".json")
}

// Emitter writes the archive for a run and invokes the configured renderers
type Emitter struct {
	outputDir string
	renderers []Renderer
}

// NewEmitter creates an emitter rooted at outputDir
func NewEmitter(outputDir string, renderers ...Renderer) *Emitter {
	return &Emitter{outputDir: outputDir, renderers: renderers}
}

// Emit stages data/<date>.json, runs every renderer in order and only then moves
// the archive into place. When a renderer fails the staged file is removed and
// an archive already present for the date is left untouched.
func (e *Emitter) Emit(ctx context.Context, date time.Time, ranked []core.ScoredCandidate, meta Meta) (*Digest, error) {
	entries := FromRanked(ranked)

	data, err := Encode(entries)
	if err != nil {
		return nil, err
	}

	path := ArchivePath(e.outputDir, date)
	staged := path + stagingSuffix
	if err := writeFile(staged, data); err != nil {
		return nil, err
	}

	d := &Digest{
		Date:        core.Day(date),
		Sources:     meta.Sources,
		Profile:     meta.Profile,
		TopN:        meta.TopN,
		Entries:     entries,
		ArchivePath: path,
	}

	if err := e.render(ctx, d); err != nil {
		if rmErr := os.Remove(staged); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logger.Warn("Failed to remove staged archive", "path", staged, "error", rmErr)
		}
		return nil, err
	}

	if err := os.Rename(staged, path); err != nil {
		return nil, fmt.Errorf("failed to publish %s: %w", path, err)
	}

	logger.Info("Digest written",
		"date", core.FormatDay(date),
		"entries", len(entries),
		"path", path)

	return d, nil
}

func (e *Emitter) render(ctx context.Context, d *Digest) error {
	for _, r := range e.renderers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.Render(ctx, d); err != nil {
			return fmt.Errorf("failed to render digest: %w", err)
		}
	}
	return nil
}

// Load reads an archived JSON file
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read digest %s: %w", path, err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse digest %s: %w", path, err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// LoadDate reads the archive of the given day below outputDir
func LoadDate(outputDir string, date time.Time) (*Digest, error) {
	path := ArchivePath(outputDir, date)
	entries, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Digest{Date: core.Day(date), Entries: entries, ArchivePath: path}, nil
}

// LoadLatest reads the newest archive below outputDir
func LoadLatest(outputDir string) (*Digest, error) {
	dates, err := ListArchives(outputDir)
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return nil, ErrNoArchives
	}
	return LoadDate(outputDir, dates[0])
}

// ListArchives returns the days that have an archive, newest first. A missing
// data directory yields an empty list.
func ListArchives(outputDir string) ([]time.Time, error) {
	dir := filepath.Join(outputDir, DataDir)
	files, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []time.Time{}, nil
		}
		return nil, fmt.Errorf("failed to list archives in %s: %w", dir, err)
	}

	dates := make([]time.Time, 0, len(files))
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		day, err := core.ParseDay(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		dates = append(dates, day)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
	return dates, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

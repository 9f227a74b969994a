// Package render publishes a digest as a static HTML page.
package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"arxivreco/internal/core"
	"arxivreco/internal/digest"
)

//go:embed templates/*.tmpl
var templateFiles embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFiles, "templates/index.html.tmpl"))

const (
	// IndexFile is the page written next to the data directory
	IndexFile = "index.html"
	// NoJekyllFile disables Jekyll processing on GitHub Pages
	NoJekyllFile = ".nojekyll"
)

// PageRenderer writes <outputDir>/index.html and <outputDir>/.nojekyll
type PageRenderer struct {
	outputDir   string
	profileName string
	model       string
}

// Option configures a PageRenderer
type Option func(*PageRenderer)

// WithProfileName sets the profile file name shown in the method line
func WithProfileName(name string) Option {
	return func(r *PageRenderer) { r.profileName = name }
}

// WithModel shows the embedding model in the method line
func WithModel(model string) Option {
	return func(r *PageRenderer) { r.model = model }
}

// NewPageRenderer creates a renderer rooted at outputDir
func NewPageRenderer(outputDir string, opts ...Option) *PageRenderer {
	r := &PageRenderer{outputDir: outputDir, profileName: "profile.md"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type pageEntry struct {
	ArxivID     string
	Score       string
	Source      string
	Title       string
	Link        string
	Authors     string
	AuthorsData string
}

type pageData struct {
	Date        string
	Sources     string
	ProfileName string
	Model       string
	TopN        int
	ProfileHTML template.HTML
	Entries     []pageEntry
}

// Render implements digest.Renderer
func (r *PageRenderer) Render(ctx context.Context, d *digest.Digest) error {
	page, err := RenderPage(d, r.profileName, r.model)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", r.outputDir, err)
	}

	indexPath := filepath.Join(r.outputDir, IndexFile)
	if err := os.WriteFile(indexPath, page, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", indexPath, err)
	}

	markerPath := filepath.Join(r.outputDir, NoJekyllFile)
	if err := os.WriteFile(markerPath, nil, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", markerPath, err)
	}
	return nil
}

// RenderPage executes the page template for a digest
func RenderPage(d *digest.Digest, profileName, model string) ([]byte, error) {
	data := pageData{
		Date:        core.FormatDay(d.Date),
		Sources:     d.Sources,
		ProfileName: profileName,
		Model:       model,
		TopN:        d.TopN,
		ProfileHTML: renderMarkdown(d.Profile),
		Entries:     make([]pageEntry, len(d.Entries)),
	}
	if data.TopN == 0 {
		data.TopN = len(d.Entries)
	}

	for i, e := range d.Entries {
		data.Entries[i] = pageEntry{
			ArxivID:     e.ArxivID,
			Score:       strconv.FormatFloat(float64(e.Score), 'f', 3, 64),
			Source:      e.Source,
			Title:       e.Title,
			Link:        e.Link,
			Authors:     strings.Join(e.Authors, ", "),
			AuthorsData: strings.Join(e.Authors, "|"),
		}
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}
	return buf.Bytes(), nil
}

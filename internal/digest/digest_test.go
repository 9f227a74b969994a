package digest

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"arxivreco/internal/core"
)

func sampleRanked() []core.ScoredCandidate {
	return []core.ScoredCandidate{
		{
			Candidate: core.Candidate{
				ID:      "2512.01234",
				Title:   "Ringdown <tests> & Schwarzschild–de Sitter",
				Authors: []string{"Jürgen Müller", "李雷"},
				Link:    "https://arxiv.org/abs/2512.01234",
				Sources: []string{"astro-ph", "gr-qc"},
			},
			Score: 0.8123456789,
		},
		{
			Candidate: core.Candidate{ID: "2512.05678", Title: "No authors", Sources: []string{"gr-qc"}},
			Score:     -0.25,
		},
	}
}

func TestEncode_Format(t *testing.T) {
	data, err := Encode(FromRanked(sampleRanked()))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	out := string(data)

	for _, want := range []string{
		`"score": 0.812346`,
		`"score": -0.250000`,
		`"source": "astro-ph, gr-qc"`,
		`"Jürgen Müller"`,
		`"李雷"`,
		`Ringdown <tests> & Schwarzschild–de Sitter`,
		`"authors": []`,
		"\n  {\n    \"source\"",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q\n%s", want, out)
		}
	}

	keys := []string{`"source"`, `"arxiv_id"`, `"title"`, `"authors"`, `"link"`, `"score"`}
	last := -1
	for _, k := range keys {
		idx := strings.Index(out, k)
		if idx <= last {
			t.Errorf("Key %s out of order", k)
		}
		last = idx
	}
}

func TestEncode_Deterministic(t *testing.T) {
	a, _ := Encode(FromRanked(sampleRanked()))
	b, _ := Encode(FromRanked(sampleRanked()))
	if !bytes.Equal(a, b) {
		t.Error("Expected identical bytes for identical input")
	}
}

func TestEncode_Empty(t *testing.T) {
	for _, entries := range [][]Entry{nil, {}} {
		data, err := Encode(entries)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if string(data) != "[]\n" {
			t.Errorf("Expected empty array, got %q", data)
		}
	}
}

type recordingRenderer struct {
	got *Digest
	err error
}

func (r *recordingRenderer) Render(ctx context.Context, d *Digest) error {
	r.got = d
	return r.err
}

func TestEmitter_Emit(t *testing.T) {
	dir := t.TempDir()
	rec := &recordingRenderer{}
	e := NewEmitter(dir, rec)
	date := time.Date(2025, 12, 12, 0, 0, 0, 0, time.UTC)

	d, err := e.Emit(context.Background(), date, sampleRanked(), Meta{Sources: "gr-qc, astro-ph", TopN: 40})
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	wantPath := filepath.Join(dir, "data", "2025-12-12.json")
	if d.ArchivePath != wantPath {
		t.Errorf("Expected archive %s, got %s", wantPath, d.ArchivePath)
	}
	if _, err := os.Stat(wantPath); err != nil {
		t.Fatalf("Archive not written: %v", err)
	}
	if rec.got != d {
		t.Error("Renderer did not receive the digest")
	}

	entries, err := Load(wantPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(entries) != 2 || entries[0].ArxivID != "2512.01234" {
		t.Errorf("Unexpected entries: %+v", entries)
	}
	if float64(entries[0].Score) != 0.812346 {
		t.Errorf("Expected rounded score 0.812346, got %v", entries[0].Score)
	}
}

func TestEmitter_EmptyDigest(t *testing.T) {
	dir := t.TempDir()
	date := time.Date(2025, 12, 12, 0, 0, 0, 0, time.UTC)

	if _, err := NewEmitter(dir).Emit(context.Background(), date, nil, Meta{}); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	data, err := os.ReadFile(ArchivePath(dir, date))
	if err != nil {
		t.Fatalf("Archive not written: %v", err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("Expected [], got %q", data)
	}
}

func TestEmitter_RendererError(t *testing.T) {
	dir := t.TempDir()
	date := time.Date(2025, 12, 12, 0, 0, 0, 0, time.UTC)
	e := NewEmitter(dir, &recordingRenderer{err: errors.New("disk full")})

	_, err := e.Emit(context.Background(), date, sampleRanked(), Meta{})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Expected renderer error, got %v", err)
	}

	// Neither the archive nor its staged copy may survive a failed render
	path := ArchivePath(dir, date)
	for _, p := range []string{path, path + stagingSuffix} {
		if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Expected %s to be absent, stat error %v", p, err)
		}
	}
	dates, err := ListArchives(dir)
	if err != nil {
		t.Fatalf("ListArchives failed: %v", err)
	}
	if len(dates) != 0 {
		t.Errorf("Expected no archives after a failed render, got %v", dates)
	}
}

func TestEmitter_RendererErrorKeepsPreviousArchive(t *testing.T) {
	dir := t.TempDir()
	date := time.Date(2025, 12, 12, 0, 0, 0, 0, time.UTC)

	if _, err := NewEmitter(dir).Emit(context.Background(), date, sampleRanked(), Meta{}); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	before, err := os.ReadFile(ArchivePath(dir, date))
	if err != nil {
		t.Fatal(err)
	}

	failing := NewEmitter(dir, &recordingRenderer{err: errors.New("disk full")})
	if _, err := failing.Emit(context.Background(), date, nil, Meta{}); err == nil {
		t.Fatal("Expected renderer error")
	}

	after, err := os.ReadFile(ArchivePath(dir, date))
	if err != nil {
		t.Fatalf("Previous archive removed: %v", err)
	}
	if string(after) != string(before) {
		t.Errorf("Previous archive overwritten:\n%s", after)
	}
}

func TestEmitter_RendererSeesNoFinalArchive(t *testing.T) {
	dir := t.TempDir()
	date := time.Date(2025, 12, 12, 0, 0, 0, 0, time.UTC)

	var existed bool
	check := rendererFunc(func(ctx context.Context, d *Digest) error {
		_, err := os.Stat(d.ArchivePath)
		existed = err == nil
		return nil
	})
	if _, err := NewEmitter(dir, check).Emit(context.Background(), date, sampleRanked(), Meta{}); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if existed {
		t.Error("Archive was published before renderers finished")
	}
	if _, err := os.Stat(ArchivePath(dir, date)); err != nil {
		t.Errorf("Archive missing after successful emit: %v", err)
	}
}

type rendererFunc func(ctx context.Context, d *Digest) error

func (f rendererFunc) Render(ctx context.Context, d *Digest) error { return f(ctx, d) }

func TestListArchives(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, DataDir)
	if err := os.MkdirAll(data, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"2025-12-10.json", "2025-12-12.json", "2025-12-11.json", "notes.txt", "latest.json"} {
		if err := os.WriteFile(filepath.Join(data, name), []byte("[]"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	dates, err := ListArchives(dir)
	if err != nil {
		t.Fatalf("ListArchives failed: %v", err)
	}
	var got []string
	for _, d := range dates {
		got = append(got, core.FormatDay(d))
	}
	if strings.Join(got, ",") != "2025-12-12,2025-12-11,2025-12-10" {
		t.Errorf("Unexpected archive order: %v", got)
	}

	latest, err := LoadLatest(dir)
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if core.FormatDay(latest.Date) != "2025-12-12" {
		t.Errorf("Expected latest 2025-12-12, got %s", core.FormatDay(latest.Date))
	}
}

func TestLoadLatest_NoArchives(t *testing.T) {
	_, err := LoadLatest(t.TempDir())
	if !errors.Is(err, ErrNoArchives) {
		t.Errorf("Expected ErrNoArchives, got %v", err)
	}
}

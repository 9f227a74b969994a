package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"arxivreco/internal/digest"
)

func sampleDigest(n int) *digest.Digest {
	d := &digest.Digest{Date: time.Date(2025, 12, 12, 0, 0, 0, 0, time.UTC)}
	for i := 0; i < n; i++ {
		d.Entries = append(d.Entries, digest.Entry{
			ArxivID: "2512.0000" + string(rune('0'+i)),
			Title:   "Paper " + string(rune('A'+i)),
			Authors: []string{"Jane Doe"},
			Source:  "gr-qc",
			Score:   digest.FixedScore(0.9 - float64(i)/10),
		})
	}
	return d
}

func press(m tea.Model, key string) tea.Model {
	var msg tea.KeyMsg
	switch key {
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next
}

func TestModel_Navigation(t *testing.T) {
	var m tea.Model = newModel(sampleDigest(3))

	m = press(m, "down")
	m = press(m, "j")
	m = press(m, "j") // clamped at the last entry
	if got := m.(model).selectedIdx; got != 2 {
		t.Errorf("Expected selection 2, got %d", got)
	}

	m = press(m, "up")
	m = press(m, "k")
	m = press(m, "k") // clamped at the first entry
	if got := m.(model).selectedIdx; got != 0 {
		t.Errorf("Expected selection 0, got %d", got)
	}
}

func TestModel_ToggleAuthors(t *testing.T) {
	var m tea.Model = newModel(sampleDigest(1))
	if strings.Contains(m.View(), "Jane Doe") {
		t.Error("Authors should be hidden initially")
	}

	m = press(m, "a")
	if !strings.Contains(m.View(), "Jane Doe") {
		t.Error("Authors should be visible after toggle")
	}
}

func TestModel_Quit(t *testing.T) {
	m := newModel(sampleDigest(1))
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil || !next.(model).quitting {
		t.Error("Expected quit command")
	}
}

func TestModel_EmptyDigest(t *testing.T) {
	view := newModel(sampleDigest(0)).View()
	if !strings.Contains(view, "No recommendations for this listing.") {
		t.Errorf("Expected empty notice, got %q", view)
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(sampleDigest(2), true, 120)
	for _, want := range []string{"2025-12-12", "2 recommendations", "2512.00000", "0.900", "Paper B", "Jane Doe"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected table to contain %q\n%s", want, out)
		}
	}

	if strings.Contains(RenderTable(sampleDigest(1), false, 120), "Jane Doe") {
		t.Error("Authors should be omitted when not requested")
	}
}

func TestWindowStart(t *testing.T) {
	if got := windowStart(5, 4, 40); got != 0 {
		t.Errorf("Expected no scrolling for short lists, got %d", got)
	}
	if got := windowStart(100, 99, 20); got != 90 {
		t.Errorf("Expected window to end at the last entry, got %d", got)
	}
}

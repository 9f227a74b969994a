package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"arxivreco/internal/core"
	"arxivreco/internal/digest"
)

// model is the state of the archive browser
type model struct {
	date        string
	entries     []digest.Entry
	selectedIdx int  // Index of the selected entry
	showAuthors bool // Authors are hidden until toggled, like on the page
	width       int  // Terminal width
	height      int  // Terminal height
	quitting    bool
}

// newModel returns the initial state for a digest
func newModel(d *digest.Digest) model {
	return model{
		date:    core.FormatDay(d.Date),
		entries: d.Entries,
		width:   100,
	}
}

// Init is the first command that will be run. We don't need any for now.
func (m model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model accordingly.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.selectedIdx > 0 {
				m.selectedIdx--
			}
		case "down", "j":
			if m.selectedIdx < len(m.entries)-1 {
				m.selectedIdx++
			}
		case "home", "g":
			m.selectedIdx = 0
		case "end", "G":
			if len(m.entries) > 0 {
				m.selectedIdx = len(m.entries) - 1
			}
		case "a":
			m.showAuthors = !m.showAuthors
		}
	}

	return m, nil
}

// View renders the TUI.
func (m model) View() string {
	if m.quitting {
		return "Quitting...\n"
	}

	paneWidth := max(m.width/2-5, 20)
	docStyle := lipgloss.NewStyle().Margin(1, 2)
	listStyle := lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true).Padding(1).Width(paneWidth)
	detailStyle := lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true).Padding(1).Width(paneWidth)

	var list strings.Builder
	list.WriteString(headerStyle.Render(fmt.Sprintf("arXiv Recommender (%s)", m.date)))
	list.WriteString("\n\n")
	if len(m.entries) == 0 {
		list.WriteString("No recommendations for this listing.")
	} else {
		for i, e := range visibleWindow(m.entries, m.selectedIdx, m.height) {
			idx := i + windowStart(len(m.entries), m.selectedIdx, m.height)
			score := fmt.Sprintf("%.3f", float64(e.Score))
			title := truncate(e.Title, paneWidth-16)
			if idx == m.selectedIdx {
				list.WriteString(selectedStyle.Render(fmt.Sprintf("> %2d. %s  %s", idx+1, score, title)) + "\n")
				continue
			}
			list.WriteString(fmt.Sprintf("  %2d. %s  %s\n", idx+1, scoreStyle.Render(score), title))
		}
	}

	detail := "Nothing selected."
	if m.selectedIdx < len(m.entries) {
		detail = renderDetail(m.entries[m.selectedIdx], m.showAuthors)
	}

	mainContent := lipgloss.JoinHorizontal(lipgloss.Top, listStyle.Render(list.String()), detailStyle.Render(detail))

	help := helpStyle.Render("\n\n[↑/k] Up | [↓/j] Down | [a] Authors | [q] Quit")

	return docStyle.Render(mainContent + help)
}

func renderDetail(e digest.Entry, showAuthors bool) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(e.Title))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("arXiv:"), e.ArxivID)
	fmt.Fprintf(&b, "%s %.6f\n", labelStyle.Render("Score:"), float64(e.Score))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Sources:"), e.Source)
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Link:"), e.Link)
	if showAuthors {
		fmt.Fprintf(&b, "\n%s %s\n", labelStyle.Render("Authors:"), strings.Join(e.Authors, ", "))
	} else {
		b.WriteString(helpStyle.Render("\n(press a to show authors)"))
	}
	return b.String()
}

// windowStart keeps the selection visible when the list is taller than the terminal
func windowStart(total, selected, height int) int {
	rows := height - 10
	if rows <= 0 || total <= rows {
		return 0
	}
	start := selected - rows/2
	start = max(start, 0)
	start = min(start, total-rows)
	return start
}

func visibleWindow(entries []digest.Entry, selected, height int) []digest.Entry {
	start := windowStart(len(entries), selected, height)
	rows := height - 10
	if rows <= 0 || len(entries) <= rows {
		return entries
	}
	return entries[start : start+rows]
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 1 || len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

// Run starts the archive browser for a digest
func Run(d *digest.Digest) error {
	p := tea.NewProgram(newModel(d), tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

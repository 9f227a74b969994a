package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"arxivreco/internal/core"
	"arxivreco/internal/digest"
)

// RenderTable formats a digest for non-interactive output
func RenderTable(d *digest.Digest, showAuthors bool, width int) string {
	if width <= 0 {
		width = 100
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("arXiv Recommender (%s)", core.FormatDay(d.Date))))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("%d recommendations", len(d.Entries))))
	b.WriteString("\n\n")

	if len(d.Entries) == 0 {
		b.WriteString("No recommendations for this listing.\n")
		return b.String()
	}

	titleWidth := max(width-34, 20)
	for i, e := range d.Entries {
		row := lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(5).Render(fmt.Sprintf("%d.", i+1)),
			lipgloss.NewStyle().Width(14).Render(e.ArxivID),
			scoreStyle.Width(8).Render(fmt.Sprintf("%.3f", float64(e.Score))),
			lipgloss.NewStyle().Width(titleWidth).Render(e.Title),
		)
		b.WriteString(row)
		b.WriteString("\n")

		meta := "     " + labelStyle.Render(e.Source)
		if showAuthors && len(e.Authors) > 0 {
			meta += labelStyle.Render(" · " + strings.Join(e.Authors, ", "))
		}
		b.WriteString(meta)
		b.WriteString("\n")
	}
	return b.String()
}

package render

import (
	"html/template"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// renderMarkdown converts markdown text to HTML for the profile section.
// Raw HTML in the source is dropped.
func renderMarkdown(text string) template.HTML {
	if text == "" {
		return template.HTML("")
	}

	mdParser := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank | html.SkipHTML,
	})

	return template.HTML(markdown.ToHTML([]byte(text), mdParser, renderer))
}

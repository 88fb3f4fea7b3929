package ui

import (
	"strings"

	markdown "github.com/MichaelMure/go-term-markdown"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"
	"github.com/mattn/go-runewidth"
)

// renderMarkdown renders content for the terminal. Autolinks stay disabled so
// the terminal emulator handles plain URLs itself.
func renderMarkdown(content string, width int) string {
	if width < 20 {
		width = 20
	}
	ext := markdown.Extensions() &^ parser.Autolink
	doc := parser.NewWithExtensions(ext).Parse([]byte(content))
	rendered := gomarkdown.Render(doc, markdown.NewRenderer(width, 0))
	return strings.TrimRight(string(rendered), "\n")
}

// truncate cuts s to width display cells. CJK prompts take two cells per
// rune, so byte or rune counts are not enough.
func truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// padRight pads s with spaces to width display cells.
func padRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

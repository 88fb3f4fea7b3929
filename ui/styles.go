package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ANSI palette indexes, so the UI follows the terminal theme. No style sets a
// background.
var (
	dimColor       = lipgloss.Color("7")
	accentColor    = lipgloss.Color("12")
	successColor   = lipgloss.Color("10")
	warningColor   = lipgloss.Color("11")
	dangerColor    = lipgloss.Color("9")
	highlightColor = lipgloss.Color("13")
)

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

var (
	ResultStyle = fg(accentColor)
	InputStyle  = fg(successColor).Bold(true)

	TitleStyle     = lipgloss.NewStyle().Bold(true)
	SelectedStyle  = fg(warningColor).Bold(true)
	HighlightStyle = fg(highlightColor).Bold(true)
	ErrorStyle     = fg(dangerColor).Bold(true)

	// Chrome: rules, status line, footers and secondary text.
	DimStyle    = fg(dimColor)
	BorderStyle = DimStyle
	StatusStyle = DimStyle
	HelpStyle   = DimStyle

	footerKeyStyle = fg(accentColor).Bold(true)
)

// FormatFooter renders key/label pairs, e.g. FormatFooter("Enter", "Run",
// "Esc", "Cancel"). Labels are accented; an odd trailing key is dropped.
func FormatFooter(pairs ...string) string {
	items := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		items = append(items, pairs[i]+" "+footerKeyStyle.Render(pairs[i+1]))
	}
	return strings.Join(items, "  ")
}

// overlayBox frames a picker or browser in the center of the screen.
func overlayBox(content string, width, height int) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1).
		Width(min(width-10, 90)).
		Render(content)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

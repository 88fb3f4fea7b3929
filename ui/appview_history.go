package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"promptsmith/history"
)

// loadHistory lists records, newest first, or fuzzy-searches them when a
// query is given.
func (a AppView) loadHistory(query string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if query == "" {
			records, err := a.app.History.List(ctx, "")
			return historyLoadedMsg{records: records, err: err}
		}
		matches, err := a.app.History.Search(ctx, query)
		if err != nil {
			return historyLoadedMsg{err: err}
		}
		records := make([]history.Record, len(matches))
		for i, m := range matches {
			records[i] = m.Record
		}
		return historyLoadedMsg{records: records}
	}
}

func (a AppView) deleteRecord(id string) tea.Cmd {
	query := a.historyFilterInput.Value()
	return func() tea.Msg {
		if err := a.app.History.Delete(context.Background(), id); err != nil {
			return historyLoadedMsg{err: err}
		}
		return a.loadHistory(query)()
	}
}

func (a AppView) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.historyFilterInput.Focused() {
		switch msg.String() {
		case "esc":
			a.historyFilterInput.Blur()
			a.historyFilterInput.SetValue("")
			a.selectedRecordIdx = 0
			return a, a.loadHistory("")
		case "enter":
			return a.openRecord()
		case "alt+j", "alt+down", "down":
			if a.selectedRecordIdx < len(a.records)-1 {
				a.selectedRecordIdx++
			}
			return a, nil
		case "alt+k", "alt+up", "up":
			if a.selectedRecordIdx > 0 {
				a.selectedRecordIdx--
			}
			return a, nil
		}

		before := a.historyFilterInput.Value()
		var cmd tea.Cmd
		a.historyFilterInput, cmd = a.historyFilterInput.Update(msg)
		if query := a.historyFilterInput.Value(); query != before {
			a.selectedRecordIdx = 0
			return a, tea.Batch(cmd, a.loadHistory(query))
		}
		return a, cmd
	}

	switch msg.String() {
	case "/":
		a.historyFilterInput.Focus()
		a.historyFilterInput.SetValue("")
		return a, textinput.Blink
	case "esc", "alt+h":
		a.showHistory = false
		return a, nil
	case "j", "down":
		if a.selectedRecordIdx < len(a.records)-1 {
			a.selectedRecordIdx++
		}
		return a, nil
	case "k", "up":
		if a.selectedRecordIdx > 0 {
			a.selectedRecordIdx--
		}
		return a, nil
	case "d":
		if a.selectedRecordIdx < len(a.records) {
			return a, a.deleteRecord(a.records[a.selectedRecordIdx].ID)
		}
		return a, nil
	case "enter":
		return a.openRecord()
	}
	return a, nil
}

// openRecord shows the selected record in the main view.
func (a AppView) openRecord() (tea.Model, tea.Cmd) {
	if a.selectedRecordIdx < 0 || a.selectedRecordIdx >= len(a.records) {
		return a, nil
	}
	rec := a.records[a.selectedRecordIdx]
	a.showHistory = false
	a.historyFilterInput.Blur()
	a.input = rec.Input()
	a.result = rec.Output()
	a.output = ""
	a.err = nil
	a.status = fmt.Sprintf("From history: %s", recordLabel(rec))
	if rec.Type == history.TypeImageToPrompt {
		a.mode = modeImage
	} else {
		a.mode = modeText
	}
	a.updateViewport()
	return a, nil
}

func recordLabel(rec history.Record) string {
	when := time.UnixMilli(rec.Timestamp).Format("Jan 02 15:04")
	name := rec.ModelName
	if name == "" {
		name = rec.ModelKey
	}
	return when + " " + name
}

func renderHistoryBrowser(a AppView) string {
	width := min(a.width-10, 90) - 4

	var b strings.Builder
	b.WriteString(TitleStyle.Render("History"))
	b.WriteString("\n")
	if a.historyFilterInput.Focused() {
		b.WriteString(a.historyFilterInput.View())
	} else {
		b.WriteString(DimStyle.Render(fmt.Sprintf("%d records", len(a.records))))
	}
	b.WriteString("\n\n")

	if len(a.records) == 0 {
		empty := "Nothing optimized yet"
		if a.historyFilterInput.Value() != "" {
			empty = "No matches found"
		}
		b.WriteString(DimStyle.Italic(true).Render(empty))
	}

	start, end := visibleRange(len(a.records), a.selectedRecordIdx, a.height-12)
	for i := start; i < end; i++ {
		rec := a.records[i]
		indicator := "  "
		if i == a.selectedRecordIdx {
			indicator = "▶ "
		}
		kind := "txt"
		if rec.Type == history.TypeImageToPrompt {
			kind = "img"
		}
		label := padRight(truncate(recordLabel(rec), 28), 28)
		textWidth := max(width-len(indicator)-len(kind)-32, 10)
		line := fmt.Sprintf("%s%s %s  %s", indicator, kind, label, truncate(rec.Output(), textWidth))

		style := lipgloss.NewStyle()
		if i == a.selectedRecordIdx {
			style = style.Foreground(successColor).Bold(true)
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if a.historyFilterInput.Focused() {
		b.WriteString(FormatFooter("Type", "to search", "Alt+J/K", "Navigate", "Enter", "Open", "Esc", "Cancel"))
	} else {
		b.WriteString(FormatFooter("/", "Search", "j/k", "Navigate", "Enter", "Open", "d", "Delete", "Esc", "Exit"))
	}
	return overlayBox(b.String(), a.width, a.height)
}

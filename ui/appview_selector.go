package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"promptsmith/model"
)

// modelList is what the picker shows: the filtered models while a filter is
// active, otherwise all enabled models.
func (a AppView) modelList() []model.ModelConfig {
	if a.modelFilterInput.Focused() {
		return a.filteredModels
	}
	return a.models
}

func filterModels(models []model.ModelConfig, filter string) []model.ModelConfig {
	if filter == "" {
		return models
	}
	targets := make([]string, len(models))
	for i, m := range models {
		targets[i] = m.ID + " " + m.Name
	}

	matches := fuzzy.Find(filter, targets)
	filtered := make([]model.ModelConfig, len(matches))
	for i, match := range matches {
		filtered[i] = models[match.Index]
	}
	return filtered
}

func (a AppView) handleModelSelectorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.modelFilterInput.Focused() {
		switch msg.String() {
		case "esc":
			a.modelFilterInput.Blur()
			a.modelFilterInput.SetValue("")
			a.filteredModels = nil
			a.selectedModelIdx = 0
			return a, nil
		case "enter":
			return a.selectModel()
		case "alt+j", "alt+down", "down":
			if a.selectedModelIdx < len(a.modelList())-1 {
				a.selectedModelIdx++
			}
			return a, nil
		case "alt+k", "alt+up", "up":
			if a.selectedModelIdx > 0 {
				a.selectedModelIdx--
			}
			return a, nil
		}

		var cmd tea.Cmd
		a.modelFilterInput, cmd = a.modelFilterInput.Update(msg)
		a.filteredModels = filterModels(a.models, a.modelFilterInput.Value())
		if a.selectedModelIdx >= len(a.filteredModels) {
			a.selectedModelIdx = max(0, len(a.filteredModels)-1)
		}
		return a, cmd
	}

	switch msg.String() {
	case "/":
		a.modelFilterInput.Focus()
		a.modelFilterInput.SetValue("")
		a.filteredModels = a.models
		return a, textinput.Blink
	case "esc", "alt+m":
		a.showModelSelector = false
		return a, nil
	case "j", "down":
		if a.selectedModelIdx < len(a.models)-1 {
			a.selectedModelIdx++
		}
		return a, nil
	case "k", "up":
		if a.selectedModelIdx > 0 {
			a.selectedModelIdx--
		}
		return a, nil
	case "enter":
		return a.selectModel()
	}
	return a, nil
}

func (a AppView) selectModel() (tea.Model, tea.Cmd) {
	list := a.modelList()
	if a.selectedModelIdx < 0 || a.selectedModelIdx >= len(list) {
		return a, nil
	}
	selected := list[a.selectedModelIdx]
	a.modelKey = selected.ID
	a.showModelSelector = false
	a.modelFilterInput.Blur()
	a.modelFilterInput.SetValue("")
	a.filteredModels = nil
	a.status = "Model: " + selected.Name
	a.err = nil
	return a, nil
}

func renderModelSelector(a AppView) string {
	width := min(a.width-10, 90) - 4
	list := a.modelList()

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Select Model"))
	b.WriteString("\n")
	if a.modelFilterInput.Focused() {
		b.WriteString(a.modelFilterInput.View())
	} else if len(list) == 1 {
		b.WriteString(DimStyle.Render("1 enabled model"))
	} else {
		b.WriteString(DimStyle.Render(fmt.Sprintf("%d enabled models", len(list))))
	}
	b.WriteString("\n\n")

	if len(list) == 0 {
		empty := "No enabled models. Add one with `promptsmith models add`."
		if a.modelFilterInput.Focused() {
			empty = "No matches found"
		}
		b.WriteString(DimStyle.Italic(true).Render(empty))
	}

	start, end := visibleRange(len(list), a.selectedModelIdx, a.height-12)
	for i := start; i < end; i++ {
		m := list[i]
		indicator := "  "
		if i == a.selectedModelIdx {
			indicator = "▶ "
		}
		marker := ""
		if m.ID == a.modelKey {
			marker = " (current)"
		}
		vision := ""
		if m.Model.Capabilities.SupportsVision {
			vision = " [vision]"
		}

		nameWidth := max(width-len(indicator)-30, 12)
		line := indicator + padRight(truncate(m.Name+vision+marker, nameWidth), nameWidth) + "  " + truncate(m.ID, 28)

		style := lipgloss.NewStyle()
		switch {
		case i == a.selectedModelIdx:
			style = style.Foreground(successColor).Bold(true)
		case m.ID == a.modelKey:
			style = style.Foreground(accentColor).Bold(true)
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if a.modelFilterInput.Focused() {
		b.WriteString(FormatFooter("Type", "to filter", "Alt+J/K", "Navigate", "Enter", "Select", "Esc", "Cancel"))
	} else {
		b.WriteString(FormatFooter("/", "Filter", "j/k", "Navigate", "Enter", "Select", "Esc", "Exit"))
	}
	return overlayBox(b.String(), a.width, a.height)
}

// visibleRange returns the window of a scrolled list that keeps selected
// roughly centered.
func visibleRange(total, selected, maxLines int) (int, int) {
	if maxLines < 1 {
		maxLines = 1
	}
	if total <= maxLines {
		return 0, total
	}
	switch {
	case selected < maxLines/2:
		return 0, maxLines
	case selected >= total-maxLines/2:
		return total - maxLines, total
	default:
		start := selected - maxLines/2
		return start, start + maxLines
	}
}

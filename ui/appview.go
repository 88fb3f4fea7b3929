// Package ui is the terminal front end: type an idea, pick a style and model,
// and watch the optimized prompt stream in.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"promptsmith/app"
	"promptsmith/history"
	"promptsmith/model"
	"promptsmith/prompt"
)

type inputMode int

const (
	modeText inputMode = iota
	modeImage
)

type AppView struct {
	app     *app.App
	version string

	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model

	width  int
	height int
	ready  bool

	mode     inputMode
	styleIdx int
	modelKey string

	streaming bool
	streamID  int
	cancel    context.CancelFunc
	input     string
	output    string
	result    string
	status    string
	err       error

	// model picker
	showModelSelector bool
	models            []model.ModelConfig
	filteredModels    []model.ModelConfig
	selectedModelIdx  int
	modelFilterInput  textinput.Model

	// history browser
	showHistory        bool
	records            []history.Record
	selectedRecordIdx  int
	historyFilterInput textinput.Model
}

func NewAppView(a *app.App, version string) AppView {
	ta := textarea.New()
	ta.Placeholder = "Describe the image you want, then press Enter..."
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.SetWidth(80)

	// Alt+Enter for newline, Enter submits
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(successColor)

	modelFilterInput := textinput.New()
	modelFilterInput.Placeholder = "filter models"
	modelFilterInput.CharLimit = 64

	historyFilterInput := textinput.New()
	historyFilterInput.Placeholder = "search history"
	historyFilterInput.CharLimit = 100

	styleIdx := 0
	for i, s := range prompt.Styles() {
		if string(s) == a.Config.Defaults.Style {
			styleIdx = i
		}
	}

	return AppView{
		app:                a,
		version:            version,
		textarea:           ta,
		viewport:           viewport.New(80, 20),
		spinner:            sp,
		styleIdx:           styleIdx,
		modelKey:           a.DefaultModel(),
		modelFilterInput:   modelFilterInput,
		historyFilterInput: historyFilterInput,
	}
}

func (a AppView) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, a.loadModels())
}

func (a AppView) style() prompt.Style {
	return prompt.Styles()[a.styleIdx]
}

func (a AppView) View() string {
	if !a.ready {
		return "Loading promptsmith..."
	}
	if a.showModelSelector {
		return renderModelSelector(a)
	}
	if a.showHistory {
		return renderHistoryBrowser(a)
	}

	var b strings.Builder
	b.WriteString(a.renderHeader())
	b.WriteString("\n")
	b.WriteString(BorderStyle.Render(strings.Repeat("─", a.width)))
	b.WriteString("\n")
	b.WriteString(a.viewport.View())
	b.WriteString("\n")
	b.WriteString(a.renderStatus())
	b.WriteString("\n")
	b.WriteString(a.textarea.View())
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render(FormatFooter(
		"Enter", "Run", "Alt+S", "Style", "Alt+M", "Model", "Alt+I", "Image", "Alt+Y", "Copy", "Alt+H", "History", "Alt+Q", "Quit",
	)))
	return b.String()
}

func (a AppView) renderHeader() string {
	mode := "text → prompt"
	if a.mode == modeImage {
		mode = "image → prompt"
	}
	modelKey := a.modelKey
	if modelKey == "" {
		modelKey = "(no model)"
	}
	left := TitleStyle.Render("promptsmith " + a.version)
	right := fmt.Sprintf("%s  style %s  model %s",
		HighlightStyle.Render(mode),
		SelectedStyle.Render(string(a.style())),
		SelectedStyle.Render(modelKey))
	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (a AppView) renderStatus() string {
	switch {
	case a.streaming:
		return a.spinner.View() + StatusStyle.Render(" optimizing... Esc to cancel")
	case a.err != nil:
		return ErrorStyle.Render("✗ " + a.err.Error())
	case a.status != "":
		return StatusStyle.Render(a.status)
	}
	return ""
}

// renderOutput lays out the last input and the (possibly partial) result.
func (a AppView) renderOutput() string {
	if a.input == "" {
		return DimStyle.Render("Nothing yet. Type an idea below, or switch to image mode with Alt+I.")
	}
	var b strings.Builder
	b.WriteString(InputStyle.Render("> " + truncate(a.input, a.width-4)))
	b.WriteString("\n\n")
	if a.streaming {
		b.WriteString(ResultStyle.Render(a.output))
		return b.String()
	}
	if a.result != "" {
		b.WriteString(renderMarkdown(a.result, a.width-4))
	}
	return b.String()
}

func (a *AppView) updateViewport() {
	a.viewport.SetContent(a.renderOutput())
	a.viewport.GotoBottom()
}

package ui

import (
	"context"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"promptsmith/config"
	"promptsmith/image"
	"promptsmith/model"
	"promptsmith/prompt"
)

const (
	headerHeight = 2
	footerHeight = 6
)

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.viewport.Width = a.width
		a.viewport.Height = max(3, a.height-headerHeight-footerHeight-a.textarea.Height())
		a.textarea.SetWidth(a.width)
		a.updateViewport()
		return a, nil

	case streamMsg:
		return a.handleStream(msg)

	case spinner.TickMsg:
		if !a.streaming {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case modelsLoadedMsg:
		if msg.err != nil {
			config.Logf("[UI] Failed to load models: %v", msg.err)
			a.err = msg.err
			return a, nil
		}
		a.models = msg.models
		a.filteredModels = nil
		if a.modelKey == "" && len(a.models) > 0 {
			a.modelKey = a.models[0].ID
		}
		return a, nil

	case historyLoadedMsg:
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		a.records = msg.records
		if a.selectedRecordIdx >= len(a.records) {
			a.selectedRecordIdx = max(0, len(a.records)-1)
		}
		return a, nil

	case clipboardMsg:
		if msg.err != nil {
			a.err = msg.err
		} else {
			a.status = "Copied to clipboard"
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "alt+q" {
			if a.cancel != nil {
				a.cancel()
			}
			return a, tea.Quit
		}
		if a.showModelSelector {
			return a.handleModelSelectorKey(msg)
		}
		if a.showHistory {
			return a.handleHistoryKey(msg)
		}
		return a.handleMainKey(msg)
	}

	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	return a, cmd
}

func (a AppView) handleMainKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if a.streaming && a.cancel != nil {
			a.cancel()
			a.streaming = false
			a.status = "Cancelled"
			a.updateViewport()
		}
		return a, nil

	case "enter":
		if a.streaming {
			return a, nil
		}
		return a.submit()

	case "alt+s":
		a.styleIdx = (a.styleIdx + 1) % len(prompt.Styles())
		a.status = "Style: " + string(a.style())
		return a, nil

	case "alt+i":
		if a.mode == modeText {
			a.mode = modeImage
			a.textarea.Placeholder = "Path or URL of an image, then press Enter..."
		} else {
			a.mode = modeText
			a.textarea.Placeholder = "Describe the image you want, then press Enter..."
		}
		return a, nil

	case "alt+m":
		a.showModelSelector = true
		a.modelFilterInput.SetValue("")
		a.filteredModels = nil
		a.selectedModelIdx = 0
		for i, m := range a.models {
			if m.ID == a.modelKey {
				a.selectedModelIdx = i
			}
		}
		return a, a.loadModels()

	case "alt+h":
		a.showHistory = true
		a.historyFilterInput.SetValue("")
		a.historyFilterInput.Blur()
		a.selectedRecordIdx = 0
		return a, a.loadHistory("")

	case "alt+y":
		if a.result == "" {
			return a, nil
		}
		return a, copyToClipboard(a.result)

	case "pgup", "pgdown":
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	return a, cmd
}

// submit starts an optimization for the textarea content.
func (a AppView) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(a.textarea.Value())
	if text == "" {
		return a, nil
	}

	var req func(ctx context.Context, handlers model.StreamHandlers) error
	switch a.mode {
	case modeImage:
		src, err := image.ResolveSource(text)
		if err != nil {
			a.err = err
			return a, nil
		}
		r := image.Request{ImageURL: src, ModelKey: a.modelKey}
		req = func(ctx context.Context, handlers model.StreamHandlers) error {
			return a.app.ImageToPromptStream(ctx, r, handlers)
		}
	default:
		r := prompt.Request{TargetPrompt: text, ModelKey: a.modelKey, Style: a.style()}
		req = func(ctx context.Context, handlers model.StreamHandlers) error {
			return a.app.OptimizeStream(ctx, r, handlers)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.streamID++
	a.cancel = cancel
	a.streaming = true
	a.input = text
	a.output = ""
	a.result = ""
	a.err = nil
	a.status = ""
	a.textarea.Reset()
	a.updateViewport()

	return a, tea.Batch(a.spinner.Tick, startStream(ctx, a.streamID, req))
}

// startStream runs req in the background and feeds its events to the update
// loop through a channel.
func startStream(ctx context.Context, id int, req func(context.Context, model.StreamHandlers) error) tea.Cmd {
	ch := make(chan streamMsg, 64)
	go func() {
		defer close(ch)
		err := req(ctx, model.StreamHandlers{
			OnChunk: func(chunk string) {
				ch <- streamMsg{id: id, chunk: chunk}
			},
			OnComplete: func(content string) {
				ch <- streamMsg{id: id, done: true, content: content}
			},
		})
		if err != nil {
			ch <- streamMsg{id: id, done: true, err: err}
		}
	}()
	return waitForStream(ch)
}

func (a AppView) handleStream(msg streamMsg) (tea.Model, tea.Cmd) {
	stale := msg.id != a.streamID || !a.streaming
	if stale {
		if msg.ch != nil {
			return a, waitForStream(msg.ch)
		}
		return a, nil
	}

	if !msg.done {
		a.output += msg.chunk
		a.updateViewport()
		return a, waitForStream(msg.ch)
	}

	a.streaming = false
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if msg.err != nil {
		config.Logf("[UI] Optimization failed: %v", msg.err)
		a.err = msg.err
		a.result = ""
	} else {
		a.result = strings.TrimSpace(msg.content)
		a.status = "Done. Alt+Y copies the result"
	}
	a.updateViewport()
	return a, waitForStream(msg.ch)
}

func (a AppView) loadModels() tea.Cmd {
	return func() tea.Msg {
		models, err := a.app.Models.EnabledModels(context.Background())
		return modelsLoadedMsg{models: models, err: err}
	}
}

func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		return clipboardMsg{err: clipboard.WriteAll(text)}
	}
}

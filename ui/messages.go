package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"promptsmith/history"
	"promptsmith/model"
)

// streamMsg carries one event of a running optimization. id ties it to the
// request that produced it; events of a cancelled request are drained and
// dropped.
type streamMsg struct {
	id      int
	ch      <-chan streamMsg
	chunk   string
	done    bool
	content string
	err     error
}

type modelsLoadedMsg struct {
	models []model.ModelConfig
	err    error
}

type historyLoadedMsg struct {
	records []history.Record
	err     error
}

type clipboardMsg struct {
	err error
}

// waitForStream reads the next event; a closed channel yields no message.
func waitForStream(ch <-chan streamMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		msg.ch = ch
		return msg
	}
}

package provider

import (
	"strings"
	"sync"

	"promptsmith/model"
)

// streamGuard enforces the streaming callback protocol on top of a raw
// vendor stream: empty deltas are dropped, OnComplete and OnError are
// mutually exclusive and fire at most once, and nothing fires after the
// stream has finished.
type streamGuard struct {
	handlers model.StreamHandlers

	mu       sync.Mutex
	content  strings.Builder
	finished bool
}

func newStreamGuard(handlers model.StreamHandlers) *streamGuard {
	return &streamGuard{handlers: handlers}
}

func (g *streamGuard) chunk(text string) {
	if text == "" {
		return
	}
	g.mu.Lock()
	if g.finished {
		g.mu.Unlock()
		return
	}
	g.content.WriteString(text)
	g.mu.Unlock()

	if g.handlers.OnChunk != nil {
		g.handlers.OnChunk(text)
	}
}

// complete fires OnComplete with everything chunked so far.
func (g *streamGuard) complete() error {
	g.mu.Lock()
	if g.finished {
		g.mu.Unlock()
		return nil
	}
	g.finished = true
	full := g.content.String()
	g.mu.Unlock()

	if g.handlers.OnComplete != nil {
		g.handlers.OnComplete(full)
	}
	return nil
}

// fail fires OnError once and returns the annotated error so adapters can
// return it directly.
func (g *streamGuard) fail(err error) error {
	err = annotateError(err)

	g.mu.Lock()
	if g.finished {
		g.mu.Unlock()
		return err
	}
	g.finished = true
	g.mu.Unlock()

	if g.handlers.OnError != nil {
		g.handlers.OnError(err)
	}
	return err
}

// finish completes or fails the stream depending on err.
func (g *streamGuard) finish(err error) error {
	if err != nil {
		return g.fail(err)
	}
	return g.complete()
}

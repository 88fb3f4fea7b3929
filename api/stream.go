package api

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"

	"promptsmith/config"
	"promptsmith/model"
)

// sseWriter turns stream callbacks into server-sent events. Headers are only
// written with the first event, so an error raised before any output can
// still be answered with a plain JSON status.
type sseWriter struct {
	w       http.ResponseWriter
	bw      *bufio.Writer
	flusher http.Flusher
	started bool
	failed  bool
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	return &sseWriter{w: w, bw: bufio.NewWriter(w), flusher: flusher}, true
}

func (s *sseWriter) start() {
	if s.started {
		return
	}
	s.started = true
	h := s.w.Header()
	h.Set(headerContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	s.w.WriteHeader(http.StatusOK)
}

func (s *sseWriter) event(name string, payload any) {
	s.start()
	b, err := json.Marshal(payload)
	if err != nil {
		config.Logf("[API] Failed to encode %s event: %v", name, err)
		return
	}
	if _, err := fmt.Fprintf(s.bw, "event: %s\ndata: %s\n\n", name, b); err != nil {
		return
	}
	_ = s.bw.Flush()
	s.flusher.Flush()
}

func (s *sseWriter) handlers() model.StreamHandlers {
	return model.StreamHandlers{
		OnChunk: func(chunk string) {
			s.event("chunk", map[string]string{"content": chunk})
		},
		OnComplete: func(content string) {
			s.event("complete", map[string]string{"content": content})
		},
		OnError: func(err error) {
			s.failed = true
			s.event("error", map[string]string{"error": err.Error()})
		},
	}
}

// finish reports an error the stream did not deliver through OnError.
func (s *sseWriter) finish(err error) {
	if err == nil || s.failed {
		return
	}
	if !s.started {
		writeServiceError(s.w, err)
		return
	}
	s.event("error", map[string]string{"error": err.Error()})
}

func wantsStream(r *http.Request) bool {
	v := r.URL.Query().Get("stream")
	return v == "1" || v == "true"
}

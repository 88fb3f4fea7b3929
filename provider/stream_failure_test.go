package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"promptsmith/provider/testutil"
)

// failingStreams writes one "partial" chunk in each vendor's wire format and
// then breaks the stream.
var failingStreams = map[string]http.HandlerFunc{
	IDOpenAI:      openAIFailingStream,
	IDZhipu:       openAIFailingStream,
	IDDeepSeek:    openAIFailingStream,
	IDSiliconFlow: openAIFailingStream,
	IDOpenRouter:  openAIFailingStream,
	IDAnthropic: func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: message_start\ndata: {\"type\":\"message_start\",\"message\":{\"id\":\"msg_1\",\"type\":\"message\",\"role\":\"assistant\",\"model\":\"x\",\"content\":[],\"usage\":{\"input_tokens\":1,\"output_tokens\":1}}}\n\n")
		fmt.Fprint(w, "event: content_block_start\ndata: {\"type\":\"content_block_start\",\"index\":0,\"content_block\":{\"type\":\"text\",\"text\":\"\"}}\n\n")
		fmt.Fprint(w, "event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":\"partial\"}}\n\n")
		fmt.Fprint(w, "event: error\ndata: {\"type\":\"error\",\"error\":{\"type\":\"overloaded_error\",\"message\":\"Overloaded\"}}\n\n")
	},
	IDOllama: func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprint(w, `{"model":"m","created_at":"2024-01-01T00:00:00Z","message":{"role":"assistant","content":"partial"},"done":false}`+"\n")
		fmt.Fprint(w, `{"error":"model crashed"}`+"\n")
	},
	IDGemini: func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"partial\"}]}}]}\n\n")
		fmt.Fprint(w, "data: {not json\n\n")
	},
}

func openAIFailingStream(w http.ResponseWriter, r *http.Request) {
	writeSSE(w, chunkJSON("partial"), "{not json")
}

func TestSendMessageStreamMidStreamFailure(t *testing.T) {
	for _, a := range BuiltinAdapters() {
		id := a.Provider().ID
		t.Run(id, func(t *testing.T) {
			handler, ok := failingStreams[id]
			if !ok {
				t.Fatalf("no failing stream for %s", id)
			}
			srv := httptest.NewServer(handler)
			defer srv.Close()

			rec := &recorder{}
			cfg := testutil.TestModelConfig(id, "m", srv.URL)
			err := a.SendMessageStream(context.Background(), testutil.SingleUserMessage("hi"), cfg, rec.handlers())
			if err == nil {
				t.Fatal("expected error")
			}

			if len(rec.chunks) != 1 || rec.chunks[0] != "partial" {
				t.Errorf("chunks = %q, want [partial]", rec.chunks)
			}
			if len(rec.errs) != 1 {
				t.Fatalf("OnError called %d times, want 1", len(rec.errs))
			}
			if rec.errs[0] != err {
				t.Errorf("returned error %v differs from OnError argument %v", err, rec.errs[0])
			}
			if len(rec.completes) != 0 {
				t.Errorf("OnComplete fired %d times after an error", len(rec.completes))
			}
		})
	}
}

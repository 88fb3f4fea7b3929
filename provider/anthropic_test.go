package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"promptsmith/provider/testutil"
)

func TestAnthropicSendMessage(t *testing.T) {
	var gotKey string
	var gotBody struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		System    []struct {
			Text string `json:"text"`
		} `json:"system"`
		Messages []struct {
			Role    string `json:"role"`
			Content []struct {
				Type   string `json:"type"`
				Text   string `json:"text"`
				Source struct {
					Type      string `json:"type"`
					MediaType string `json:"media_type"`
					Data      string `json:"data"`
				} `json:"source"`
			} `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotKey = r.Header.Get("X-Api-Key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-sonnet-20241022",
			"content":[{"type":"text","text":"a red fox"}],"stop_reason":"end_turn",
			"usage":{"input_tokens":20,"output_tokens":4}}`)
	}))
	defer srv.Close()

	cfg := testutil.TestModelConfig(IDAnthropic, "claude-3-5-sonnet-20241022", srv.URL)
	msgs := testutil.ImageMessages("what is this", testutil.TinyPNGDataURI)

	resp, err := NewAnthropicAdapter().SendMessage(context.Background(), msgs, cfg)
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	if resp.Content != "a red fox" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 24 {
		t.Errorf("Usage = %+v", resp.Usage)
	}
	if gotKey != "test-key" {
		t.Errorf("X-Api-Key = %q", gotKey)
	}
	if gotBody.MaxTokens != DefaultMaxTokens {
		t.Errorf("max_tokens = %d, want %d", gotBody.MaxTokens, DefaultMaxTokens)
	}
	if len(gotBody.System) != 1 || gotBody.System[0].Text != "Describe images." {
		t.Errorf("system = %+v", gotBody.System)
	}
	if len(gotBody.Messages) != 1 || len(gotBody.Messages[0].Content) != 2 {
		t.Fatalf("messages = %+v", gotBody.Messages)
	}
	img := gotBody.Messages[0].Content[1]
	if img.Type != "image" || img.Source.MediaType != "image/png" || img.Source.Data != testutil.TinyPNG {
		t.Errorf("image block = %+v", img)
	}
}

func TestAnthropicMaxTokensOverride(t *testing.T) {
	var gotMax int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			MaxTokens int `json:"max_tokens"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotMax = body.MaxTokens
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"m","type":"message","role":"assistant","model":"x","content":[{"type":"text","text":"ok"}],"usage":{"input_tokens":1,"output_tokens":1}}`)
	}))
	defer srv.Close()

	cfg := testutil.TestModelConfig(IDAnthropic, "claude-3-haiku-20240307", srv.URL)
	cfg.Params = map[string]any{"max_tokens": 512}

	if _, err := NewAnthropicAdapter().SendMessage(context.Background(), testutil.SingleUserMessage("hi"), cfg); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if gotMax != 512 {
		t.Errorf("max_tokens = %d, want 512", gotMax)
	}
}

func TestAnthropicNoResponse(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no content blocks", `[]`},
		{"non text first block", `[{"type":"tool_use","id":"tu_1","name":"lookup","input":{}}]`},
		{"empty text block", `[{"type":"text","text":""}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprintf(w, `{"id":"m","type":"message","role":"assistant","model":"x",
					"content":%s,
					"usage":{"input_tokens":1,"output_tokens":1}}`, tt.content)
			}))
			defer srv.Close()

			cfg := testutil.TestModelConfig(IDAnthropic, "claude-3-haiku-20240307", srv.URL)
			resp, err := NewAnthropicAdapter().SendMessage(context.Background(), testutil.SingleUserMessage("hi"), cfg)
			if !errors.Is(err, ErrNoResponse) {
				t.Errorf("error = %v, want ErrNoResponse", err)
			}
			if resp != nil {
				t.Errorf("resp = %+v, want nil", resp)
			}
		})
	}
}

func TestAnthropicErrorAnnotation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
	}))
	defer srv.Close()

	cfg := testutil.TestModelConfig(IDAnthropic, "claude-3-haiku-20240307", srv.URL)
	_, err := NewAnthropicAdapter().SendMessage(context.Background(), testutil.SingleUserMessage("hi"), cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "invalid x-api-key (HTTP 401)" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestAnthropicSendMessageStream(t *testing.T) {
	events := []struct{ name, data string }{
		{"message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"x","content":[],"usage":{"input_tokens":5,"output_tokens":1}}}`},
		{"content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`},
		{"ping", `{"type":"ping"}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hello"}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":" world"}}`},
		{"content_block_stop", `{"type":"content_block_stop","index":0}`},
		{"message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":2}}`},
		{"message_stop", `{"type":"message_stop"}`},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, e := range events {
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.name, e.data)
		}
	}))
	defer srv.Close()

	rec := &recorder{}
	cfg := testutil.TestModelConfig(IDAnthropic, "claude-3-5-haiku-20241022", srv.URL)
	err := NewAnthropicAdapter().SendMessageStream(context.Background(), testutil.SingleUserMessage("hi"), cfg, rec.handlers())
	if err != nil {
		t.Fatalf("SendMessageStream() error = %v", err)
	}

	if strings.Join(rec.chunks, "") != "Hello world" {
		t.Errorf("chunks = %q", rec.chunks)
	}
	if len(rec.completes) != 1 || rec.completes[0] != "Hello world" {
		t.Errorf("completes = %q", rec.completes)
	}
}

func TestAnthropicListModelsUnsupported(t *testing.T) {
	a := NewAnthropicAdapter()
	if !a.Provider().SupportsDynamicModels {
		t.Error("descriptor should declare dynamic models")
	}
	cfg := testutil.TestModelConfig(IDAnthropic, "claude-3-haiku-20240307", "")
	if _, err := a.ListModels(context.Background(), cfg); !errors.Is(err, ErrDynamicModelsUnsupported) {
		t.Errorf("error = %v, want ErrDynamicModelsUnsupported", err)
	}
}

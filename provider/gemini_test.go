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

	"promptsmith/model"
	"promptsmith/provider/testutil"
)

// geminiWireRequest is the subset of the generateContent body the tests
// inspect.
type geminiWireRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text       string `json:"text"`
			InlineData *struct {
				MIMEType string `json:"mimeType"`
				Data     string `json:"data"`
			} `json:"inlineData"`
		} `json:"parts"`
	} `json:"contents"`
	SystemInstruction *struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"systemInstruction"`
	GenerationConfig map[string]any `json:"generationConfig"`
}

func geminiKey(r *http.Request) string {
	if key := r.Header.Get("x-goog-api-key"); key != "" {
		return key
	}
	return r.URL.Query().Get("key")
}

func TestGeminiSendMessage(t *testing.T) {
	var gotReq geminiWireRequest
	var gotKey, gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = geminiKey(r)
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "a cat "}, {"text": "on a mat"}]}}],
			"usageMetadata": {"promptTokenCount": 9, "candidatesTokenCount": 4, "totalTokenCount": 13}
		}`)
	}))
	defer srv.Close()

	cfg := testutil.TestModelConfig(IDGemini, "gemini-1.5-flash", srv.URL)
	cfg.Params = map[string]any{"temperature": 0.5, "max_tokens": 100}

	msgs := append(testutil.ImageMessages("describe", testutil.TinyPNGDataURI),
		model.NewMessage(model.RoleAssistant, "ok"))

	resp, err := NewGeminiAdapter().SendMessage(context.Background(), msgs, cfg)
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	if resp.Content != "a cat on a mat" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Usage == nil || resp.Usage.PromptTokens != 9 || resp.Usage.CompletionTokens != 4 || resp.Usage.TotalTokens != 13 {
		t.Errorf("Usage = %+v", resp.Usage)
	}
	if !strings.HasSuffix(gotPath, "/models/gemini-1.5-flash:generateContent") {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("key = %q", gotKey)
	}
	if gotReq.SystemInstruction == nil || len(gotReq.SystemInstruction.Parts) == 0 || gotReq.SystemInstruction.Parts[0].Text != "Describe images." {
		t.Errorf("systemInstruction = %+v", gotReq.SystemInstruction)
	}
	if len(gotReq.Contents) != 2 {
		t.Fatalf("len(contents) = %d, want 2", len(gotReq.Contents))
	}
	if gotReq.Contents[1].Role != "model" {
		t.Errorf("assistant role = %q, want model", gotReq.Contents[1].Role)
	}
	if len(gotReq.Contents[0].Parts) != 2 {
		t.Fatalf("len(parts) = %d, want 2", len(gotReq.Contents[0].Parts))
	}
	inline := gotReq.Contents[0].Parts[1].InlineData
	if inline == nil || inline.MIMEType != "image/png" || inline.Data != testutil.TinyPNG {
		t.Errorf("inlineData = %+v", inline)
	}
	if gotReq.GenerationConfig["temperature"] != 0.5 || gotReq.GenerationConfig["maxOutputTokens"] != float64(100) {
		t.Errorf("generationConfig = %v", gotReq.GenerationConfig)
	}
}

func TestGeminiGenerationConfigExtras(t *testing.T) {
	cfg := testutil.TestModelConfig(IDGemini, "gemini-2.0-flash", "")
	cfg.Params = map[string]any{
		"top_k":  40,
		"seed":   7,
		"stop":   []any{"END", 3},
		"unused": true,
	}

	gc := generationConfig(cfg, nil)
	if gc.TopK == nil || *gc.TopK != 40 {
		t.Errorf("TopK = %v", gc.TopK)
	}
	if gc.Seed == nil || *gc.Seed != 7 {
		t.Errorf("Seed = %v", gc.Seed)
	}
	if len(gc.StopSequences) != 1 || gc.StopSequences[0] != "END" {
		t.Errorf("StopSequences = %v", gc.StopSequences)
	}
	if gc.Temperature != nil {
		t.Errorf("Temperature = %v, want unset", *gc.Temperature)
	}
}

func TestGeminiErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    error
		wantStatus int
		wantMsg    string
	}{
		{
			name:    "no candidates",
			status:  http.StatusOK,
			body:    `{"candidates": []}`,
			wantErr: ErrNoResponse,
		},
		{
			name:    "only thought parts",
			status:  http.StatusOK,
			body:    `{"candidates": [{"content": {"parts": [{"text": "hmm", "thought": true}]}}]}`,
			wantErr: ErrNoResponse,
		},
		{
			name:       "invalid key",
			status:     http.StatusBadRequest,
			body:       `{"error": {"code": 400, "message": "API key not valid", "status": "INVALID_ARGUMENT"}}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "API key not valid (HTTP 400)",
		},
		{
			name:       "non JSON error body",
			status:     http.StatusServiceUnavailable,
			body:       `upstream down`,
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			cfg := testutil.TestModelConfig(IDGemini, "gemini-2.0-flash", srv.URL)
			_, err := NewGeminiAdapter().SendMessage(context.Background(), testutil.SingleUserMessage("hi"), cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantStatus != 0 {
				var se *StatusError
				if !errors.As(err, &se) || se.StatusCode != tt.wantStatus {
					t.Fatalf("error = %v, want StatusError %d", err, tt.wantStatus)
				}
				if !strings.HasSuffix(err.Error(), fmt.Sprintf("(HTTP %d)", tt.wantStatus)) {
					t.Errorf("Error() = %q", err.Error())
				}
			}
			if tt.wantMsg != "" && err.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestGeminiSendMessageStream(t *testing.T) {
	var gotAlt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAlt = r.URL.Query().Get("alt")
		if !strings.HasSuffix(r.URL.Path, ":streamGenerateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"foggy \"}]}}]}\n\n")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"harbor\"}]}}]}\n\n")
	}))
	defer srv.Close()

	rec := &recorder{}
	cfg := testutil.TestModelConfig(IDGemini, "gemini-1.5-pro", srv.URL)
	err := NewGeminiAdapter().SendMessageStream(context.Background(), testutil.SingleUserMessage("hi"), cfg, rec.handlers())
	if err != nil {
		t.Fatalf("SendMessageStream() error = %v", err)
	}

	if gotAlt != "sse" {
		t.Errorf("alt = %q, want sse", gotAlt)
	}
	if strings.Join(rec.chunks, "|") != "foggy |harbor" {
		t.Errorf("chunks = %q", rec.chunks)
	}
	if len(rec.completes) != 1 || rec.completes[0] != "foggy harbor" {
		t.Errorf("completes = %q", rec.completes)
	}
}

func TestGeminiListModels(t *testing.T) {
	t.Run("filters and strips prefix", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasSuffix(r.URL.Path, "/models") {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if geminiKey(r) != "test-key" {
				t.Errorf("key = %q", geminiKey(r))
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"models": [
				{"name": "models/gemini-1.5-pro", "displayName": "Gemini 1.5 Pro", "inputTokenLimit": 2000000, "supportedGenerationMethods": ["generateContent", "countTokens"]},
				{"name": "models/text-embedding-004", "supportedGenerationMethods": ["embedContent"]}
			]}`)
		}))
		defer srv.Close()

		cfg := testutil.TestModelConfig(IDGemini, "x", srv.URL)
		models, err := NewGeminiAdapter().ListModels(context.Background(), cfg)
		if err != nil {
			t.Fatalf("ListModels() error = %v", err)
		}
		if len(models) != 1 {
			t.Fatalf("got %d models, want 1", len(models))
		}
		if models[0].ID != "gemini-1.5-pro" || models[0].Name != "Gemini 1.5 Pro" {
			t.Errorf("model = %+v", models[0])
		}
		if models[0].Capabilities.MaxContextLength != 2000000 || !models[0].Capabilities.SupportsVision {
			t.Errorf("capabilities = %+v", models[0].Capabilities)
		}
	})

	t.Run("missing models array", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{}`)
		}))
		defer srv.Close()

		cfg := testutil.TestModelConfig(IDGemini, "x", srv.URL)
		if _, err := NewGeminiAdapter().ListModels(context.Background(), cfg); !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("error = %v, want ErrMalformedResponse", err)
		}
	})
}

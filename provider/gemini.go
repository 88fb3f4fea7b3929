package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"

	"promptsmith/config"
	"promptsmith/model"
)

const geminiAPIVersion = "v1beta"

// GeminiAdapter implements model.Adapter and model.ModelLister on the genai
// SDK against the Gemini API backend. Gemini names the assistant role
// "model", takes system prompts as SystemInstruction and images as inline
// blobs.
type GeminiAdapter struct {
	provider model.Provider
	models   []model.Model
}

func NewGeminiAdapter() *GeminiAdapter {
	caps := func(ctxLen int) model.Capabilities {
		return model.Capabilities{SupportsTools: true, SupportsVision: true, MaxContextLength: ctxLen}
	}
	return &GeminiAdapter{
		provider: model.Provider{
			ID:                    IDGemini,
			Name:                  "Google Gemini",
			Description:           "Gemini models through the Generative Language API",
			RequiresAPIKey:        true,
			DefaultBaseURL:        "https://generativelanguage.googleapis.com",
			SupportsDynamicModels: true,
			ConnectionSchema:      compatSchema(),
		},
		models: []model.Model{
			staticModel(IDGemini, "gemini-2.0-flash", "Gemini 2.0 Flash", caps(1048576)),
			staticModel(IDGemini, "gemini-1.5-pro", "Gemini 1.5 Pro", caps(2097152)),
			staticModel(IDGemini, "gemini-1.5-flash", "Gemini 1.5 Flash", caps(1048576)),
		},
	}
}

// Provider implements model.Adapter.
func (a *GeminiAdapter) Provider() model.Provider {
	return a.provider
}

// Models implements model.Adapter.
func (a *GeminiAdapter) Models() []model.Model {
	return copyModels(a.models)
}

// BuildDefaultModel implements model.Adapter.
func (a *GeminiAdapter) BuildDefaultModel(modelID string) model.Model {
	return buildDefaultModel(a.provider.ID, modelID)
}

// newClient builds a genai client for one call. transport, when set, wraps
// the HTTP transport.
func (a *GeminiAdapter) newClient(ctx context.Context, cfg *model.ModelConfig, transport http.RoundTripper) (*genai.Client, error) {
	httpClient := &http.Client{Timeout: requestTimeout(cfg), Transport: transport}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.Connection.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    strings.TrimRight(cfg.BaseURLOr(a.provider.DefaultBaseURL), "/") + "/",
			APIVersion: geminiAPIVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// generationConfig maps the typed call parameters plus the extras Gemini has
// fields for. Other extras are dropped with a log line.
func generationConfig(cfg *model.ModelConfig, system *genai.Content) *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{SystemInstruction: system}

	if v, ok := cfg.FloatParam(ParamTemperature); ok {
		gc.Temperature = genai.Ptr(float32(v))
	}
	if v, ok := cfg.FloatParam(ParamTopP); ok {
		gc.TopP = genai.Ptr(float32(v))
	}
	if v, ok := cfg.IntParam(ParamMaxTokens); ok {
		gc.MaxOutputTokens = int32(v)
	}

	for key := range extraParams(cfg) {
		switch key {
		case "top_k", "topK":
			if v, ok := cfg.FloatParam(key); ok {
				gc.TopK = genai.Ptr(float32(v))
			}
		case "seed":
			if v, ok := cfg.IntParam(key); ok {
				gc.Seed = genai.Ptr(int32(v))
			}
		case "presence_penalty", "presencePenalty":
			if v, ok := cfg.FloatParam(key); ok {
				gc.PresencePenalty = genai.Ptr(float32(v))
			}
		case "frequency_penalty", "frequencyPenalty":
			if v, ok := cfg.FloatParam(key); ok {
				gc.FrequencyPenalty = genai.Ptr(float32(v))
			}
		case "stop", "stopSequences":
			gc.StopSequences = stringList(cfg.Params[key])
		default:
			config.Logf("[Provider] gemini: ignoring unsupported parameter %q", key)
		}
	}
	return gc
}

func stringList(v any) []string {
	switch s := v.(type) {
	case string:
		return []string{s}
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// geminiText concatenates the non-thought text parts of the first candidate.
func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// SendMessage implements model.Adapter.
func (a *GeminiAdapter) SendMessage(ctx context.Context, messages []model.Message, cfg *model.ModelConfig) (*model.LLMResponse, error) {
	client, err := a.newClient(ctx, cfg, nil)
	if err != nil {
		return nil, err
	}

	config.Logf("[Provider] gemini: sending %d messages to %s", len(messages), cfg.Model.ID)

	contents, system := ConvertToGeminiContents(messages)
	resp, err := client.Models.GenerateContent(ctx, cfg.Model.ID, contents, generationConfig(cfg, system))
	if err != nil {
		return nil, annotateError(err)
	}

	text := geminiText(resp)
	if text == "" {
		return nil, ErrNoResponse
	}

	result := &model.LLMResponse{Content: text}
	if u := resp.UsageMetadata; u != nil {
		result.Usage = &model.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return result, nil
}

// SendMessageStream implements model.Adapter.
func (a *GeminiAdapter) SendMessageStream(ctx context.Context, messages []model.Message, cfg *model.ModelConfig, handlers model.StreamHandlers) error {
	guard := newStreamGuard(handlers)

	client, err := a.newClient(ctx, cfg, nil)
	if err != nil {
		return guard.fail(err)
	}

	config.Logf("[Provider] gemini: streaming %d messages to %s", len(messages), cfg.Model.ID)

	contents, system := ConvertToGeminiContents(messages)
	for resp, err := range client.Models.GenerateContentStream(ctx, cfg.Model.ID, contents, generationConfig(cfg, system)) {
		if err != nil {
			return guard.fail(err)
		}
		guard.chunk(geminiText(resp))
	}

	return guard.complete()
}

// listingCheck remembers whether the first models page carried a models
// array. The SDK decodes a missing array and an empty one alike.
type listingCheck struct {
	base http.RoundTripper

	mu      sync.Mutex
	checked bool
	missing bool
}

func (c *listingCheck) RoundTrip(req *http.Request) (*http.Response, error) {
	base := c.base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil || resp.StatusCode/100 != 2 {
		return resp, err
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.checked {
		c.checked = true
		var shape map[string]json.RawMessage
		if err := json.Unmarshal(body, &shape); err != nil {
			c.missing = true
		} else if _, ok := shape["models"]; !ok {
			c.missing = true
		}
	}
	return resp, nil
}

func (c *listingCheck) malformed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.missing
}

// ListModels implements model.ModelLister. Only models that support
// generateContent are returned, with the "models/" prefix stripped.
func (a *GeminiAdapter) ListModels(ctx context.Context, cfg *model.ModelConfig) ([]model.Model, error) {
	check := &listingCheck{}
	client, err := a.newClient(ctx, cfg, check)
	if err != nil {
		return nil, err
	}

	page, err := client.Models.List(ctx, &genai.ListModelsConfig{QueryBase: genai.Ptr(true)})
	if err != nil {
		return nil, annotateError(err)
	}
	if check.malformed() {
		return nil, fmt.Errorf("%w: gemini listing has no models array", ErrMalformedResponse)
	}

	var models []model.Model
	for {
		for _, m := range page.Items {
			if m == nil || !supportsGenerateContent(m.SupportedActions) {
				continue
			}
			id := strings.TrimPrefix(m.Name, "models/")
			desc := describeModel(a.models, a.provider.ID, id)
			if m.DisplayName != "" {
				desc.Name = m.DisplayName
			}
			if m.Description != "" {
				desc.Description = m.Description
			}
			if m.InputTokenLimit > 0 {
				desc.Capabilities.MaxContextLength = int(m.InputTokenLimit)
			}
			models = append(models, desc)
		}

		if page.NextPageToken == "" {
			break
		}
		page, err = page.Next(ctx)
		if errors.Is(err, genai.ErrPageDone) {
			break
		}
		if err != nil {
			return nil, annotateError(err)
		}
	}

	config.Logf("[Provider] gemini: listed %d models", len(models))
	if models == nil {
		models = []model.Model{}
	}
	return models, nil
}

func supportsGenerateContent(actions []string) bool {
	for _, a := range actions {
		if a == "generateContent" {
			return true
		}
	}
	return false
}

package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ollama/ollama/api"

	"promptsmith/config"
	"promptsmith/model"
	"promptsmith/ollama"
)

// OllamaAdapter implements model.Adapter and model.ModelLister for a local
// Ollama daemon through its native API.
//
// The configured base URL may point at the OpenAI-compatible /v1 endpoint
// (the default); the suffix is stripped before the native routes are used.
// No API key is needed.
//
// Parameter mapping to Ollama options:
//   - temperature -> temperature
//   - top_p -> top_p
//   - max_tokens -> num_predict
//
// Any other parameter is passed through as an option unchanged.
type OllamaAdapter struct {
	provider model.Provider
	models   []model.Model
}

// NewOllamaAdapter creates the Ollama adapter.
//
// Example:
//
//	adapter := NewOllamaAdapter()
//	cfg := &model.ModelConfig{Model: model.Model{ID: "llava"}}
//	resp, err := adapter.SendMessage(ctx, messages, cfg)
func NewOllamaAdapter() *OllamaAdapter {
	text := model.Capabilities{SupportsTools: true, MaxContextLength: 128000}
	vision := model.Capabilities{SupportsVision: true, MaxContextLength: 128000}
	return &OllamaAdapter{
		provider: model.Provider{
			ID:                    IDOllama,
			Name:                  "Ollama",
			Description:           "Models served by a local Ollama daemon",
			RequiresAPIKey:        false,
			DefaultBaseURL:        ollama.DefaultBaseURL,
			SupportsDynamicModels: true,
			ConnectionSchema: model.ConnectionSchema{
				Optional: []string{"baseURL", "timeout"},
				FieldTypes: map[string]model.FieldType{
					"baseURL": model.FieldString,
					"timeout": model.FieldNumber,
				},
			},
		},
		models: []model.Model{
			staticModel(IDOllama, "llama3.2", "Llama 3.2", text),
			staticModel(IDOllama, "llama3.1", "Llama 3.1", text),
			staticModel(IDOllama, "llama3", "Llama 3", model.Capabilities{MaxContextLength: 8192}),
			staticModel(IDOllama, "llama3.2-vision", "Llama 3.2 Vision", vision),
			staticModel(IDOllama, "llava", "LLaVA", model.Capabilities{SupportsVision: true, MaxContextLength: 4096}),
			staticModel(IDOllama, "qwen2.5", "Qwen 2.5", text),
			staticModel(IDOllama, "qwen2.5-vision", "Qwen 2.5 Vision", vision),
		},
	}
}

// Provider implements model.Adapter.
func (a *OllamaAdapter) Provider() model.Provider {
	return a.provider
}

// Models implements model.Adapter.
func (a *OllamaAdapter) Models() []model.Model {
	return copyModels(a.models)
}

// BuildDefaultModel implements model.Adapter.
func (a *OllamaAdapter) BuildDefaultModel(modelID string) model.Model {
	m := buildDefaultModel(a.provider.ID, modelID)
	m.Capabilities.SupportsTools = ollama.ModelSupportsToolCalling(modelID)
	return m
}

func (a *OllamaAdapter) newClient(cfg *model.ModelConfig) (*ollama.Client, error) {
	httpClient := http.DefaultClient
	if timeout := requestTimeout(cfg); timeout > 0 {
		httpClient = &http.Client{Timeout: timeout}
	}

	client, err := ollama.NewClient(cfg.BaseURLOr(a.provider.DefaultBaseURL), httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}
	return client, nil
}

func ollamaOptions(cfg *model.ModelConfig) map[string]any {
	opts := make(map[string]any)
	if v, ok := cfg.FloatParam(ParamTemperature); ok {
		opts["temperature"] = v
	}
	if v, ok := cfg.FloatParam(ParamTopP); ok {
		opts["top_p"] = v
	}
	if v, ok := cfg.IntParam(ParamMaxTokens); ok {
		opts["num_predict"] = v
	}
	for k, v := range extraParams(cfg) {
		opts[k] = v
	}
	if len(opts) == 0 {
		return nil
	}
	return opts
}

// SendMessage implements model.Adapter with a non-streaming chat request.
func (a *OllamaAdapter) SendMessage(ctx context.Context, messages []model.Message, cfg *model.ModelConfig) (*model.LLMResponse, error) {
	client, err := a.newClient(cfg)
	if err != nil {
		return nil, err
	}

	config.Logf("[Provider] ollama: sending %d messages to %s at %s", len(messages), cfg.Model.ID, client.BaseURL())

	var content strings.Builder
	var final api.ChatResponse
	err = client.Chat(ctx, cfg.Model.ID, ConvertToOllamaMessages(messages), ollamaOptions(cfg), false, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		if resp.Done {
			final = resp
		}
		return nil
	})
	if err != nil {
		return nil, annotateError(err)
	}

	if content.Len() == 0 {
		return nil, ErrNoResponse
	}

	result := &model.LLMResponse{Content: content.String()}
	if final.PromptEvalCount > 0 || final.EvalCount > 0 {
		result.Usage = &model.Usage{
			PromptTokens:     final.PromptEvalCount,
			CompletionTokens: final.EvalCount,
			TotalTokens:      final.PromptEvalCount + final.EvalCount,
		}
	}
	return result, nil
}

// SendMessageStream implements model.Adapter.
func (a *OllamaAdapter) SendMessageStream(ctx context.Context, messages []model.Message, cfg *model.ModelConfig, handlers model.StreamHandlers) error {
	guard := newStreamGuard(handlers)

	client, err := a.newClient(cfg)
	if err != nil {
		return guard.fail(err)
	}

	config.Logf("[Provider] ollama: streaming %d messages to %s at %s", len(messages), cfg.Model.ID, client.BaseURL())

	err = client.Chat(ctx, cfg.Model.ID, ConvertToOllamaMessages(messages), ollamaOptions(cfg), true, func(resp api.ChatResponse) error {
		guard.chunk(resp.Message.Content)
		return nil
	})

	return guard.finish(err)
}

// ListModels implements model.ModelLister using the daemon's tag listing.
// Vision support comes from the daemon's projector metadata when present,
// otherwise from the name heuristic.
func (a *OllamaAdapter) ListModels(ctx context.Context, cfg *model.ModelConfig) ([]model.Model, error) {
	client, err := a.newClient(cfg)
	if err != nil {
		return nil, err
	}

	infos, err := client.ListModels(ctx)
	if err != nil {
		if errors.Is(err, ollama.ErrMissingModels) {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return nil, annotateError(err)
	}

	models := make([]model.Model, 0, len(infos))
	for _, info := range infos {
		m := a.BuildDefaultModel(info.Name)
		if vision, ok := info.ReportsVision(); ok {
			m.Capabilities.SupportsVision = vision
		}
		if info.ParameterSize != "" {
			m.Description = fmt.Sprintf("%s, %s", info.Family, info.ParameterSize)
		}
		models = append(models, m)
	}

	config.Logf("[Provider] ollama: listed %d models", len(models))
	return models, nil
}

package provider

import (
	"context"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"promptsmith/config"
	"promptsmith/model"
)

const (
	openAIDefaultBaseURL = "https://api.openai.com/v1"

	// localServerAPIKey is sent to OpenAI-compatible local servers (LM Studio,
	// llama.cpp, vLLM) that reject requests without any bearer token.
	localServerAPIKey = "lm-studio"
)

// OpenAICompatibleAdapter implements model.Adapter and model.ModelLister on
// top of the official OpenAI Go SDK. OpenAI itself and every vendor that
// speaks the chat-completions protocol (Zhipu, DeepSeek, SiliconFlow,
// OpenRouter) share this implementation; they differ only in descriptor,
// static model list, and the hooks below.
type OpenAICompatibleAdapter struct {
	provider model.Provider
	models   []model.Model

	// keepListed filters live listings. nil keeps everything.
	keepListed func(cfg *model.ModelConfig, id string) bool

	// apiKey resolves the bearer token. nil uses Connection.APIKey verbatim.
	apiKey func(cfg *model.ModelConfig) string

	// displayName names models found by a live listing. nil uses the id.
	displayName func(id string) string

	headers map[string]string
}

// NewOpenAIAdapter creates the adapter for OpenAI and OpenAI-compatible local
// servers.
//
// Two behaviours only apply when a custom base URL is configured:
//   - an empty API key is replaced by a placeholder, since local servers
//     usually accept any token but reject none
//   - live listings are returned unfiltered; on api.openai.com only ids
//     containing "gpt" are kept, hiding embeddings, audio and image models
func NewOpenAIAdapter() *OpenAICompatibleAdapter {
	reasoning := model.Capabilities{SupportsReasoning: true, MaxContextLength: 128000}
	return &OpenAICompatibleAdapter{
		provider: model.Provider{
			ID:                    IDOpenAI,
			Name:                  "OpenAI",
			Description:           "OpenAI GPT models and OpenAI-compatible servers",
			RequiresAPIKey:        true,
			DefaultBaseURL:        openAIDefaultBaseURL,
			SupportsDynamicModels: true,
			ConnectionSchema:      compatSchema("organization"),
		},
		models: []model.Model{
			staticModel(IDOpenAI, "gpt-4o", "GPT-4o", model.Capabilities{SupportsTools: true, SupportsVision: true, MaxContextLength: 128000}),
			staticModel(IDOpenAI, "gpt-4o-mini", "GPT-4o Mini", model.Capabilities{SupportsTools: true, SupportsVision: true, MaxContextLength: 128000}),
			staticModel(IDOpenAI, "gpt-4-turbo", "GPT-4 Turbo", model.Capabilities{SupportsTools: true, SupportsVision: true, MaxContextLength: 128000}),
			staticModel(IDOpenAI, "gpt-4", "GPT-4", model.Capabilities{SupportsTools: true, MaxContextLength: 8192}),
			staticModel(IDOpenAI, "gpt-3.5-turbo", "GPT-3.5 Turbo", model.Capabilities{SupportsTools: true, MaxContextLength: 16385}),
			staticModel(IDOpenAI, "o1-preview", "o1 Preview", reasoning),
			staticModel(IDOpenAI, "o1-mini", "o1 Mini", reasoning),
		},
		keepListed: func(cfg *model.ModelConfig, id string) bool {
			if isCustomBaseURL(cfg, openAIDefaultBaseURL) {
				return true
			}
			return strings.Contains(id, "gpt")
		},
		apiKey: func(cfg *model.ModelConfig) string {
			if cfg.Connection.APIKey == "" && isCustomBaseURL(cfg, openAIDefaultBaseURL) {
				return localServerAPIKey
			}
			return cfg.Connection.APIKey
		},
	}
}

func isCustomBaseURL(cfg *model.ModelConfig, defaultURL string) bool {
	if cfg == nil || cfg.Connection.BaseURL == "" {
		return false
	}
	return strings.TrimRight(cfg.Connection.BaseURL, "/") != strings.TrimRight(defaultURL, "/")
}

// compatSchema is the connection schema shared by chat-completions vendors.
func compatSchema(optional ...string) model.ConnectionSchema {
	fieldTypes := map[string]model.FieldType{
		"apiKey":  model.FieldString,
		"baseURL": model.FieldString,
		"timeout": model.FieldNumber,
	}
	for _, f := range optional {
		fieldTypes[f] = model.FieldString
	}
	return model.ConnectionSchema{
		Required:   []string{"apiKey"},
		Optional:   append([]string{"baseURL", "timeout"}, optional...),
		FieldTypes: fieldTypes,
	}
}

// Provider implements model.Adapter.
func (a *OpenAICompatibleAdapter) Provider() model.Provider {
	return a.provider
}

// Models implements model.Adapter.
func (a *OpenAICompatibleAdapter) Models() []model.Model {
	return copyModels(a.models)
}

// BuildDefaultModel implements model.Adapter.
func (a *OpenAICompatibleAdapter) BuildDefaultModel(modelID string) model.Model {
	return buildDefaultModel(a.provider.ID, modelID)
}

// newClient builds an SDK client for one call. The SDK's own retry loop is
// disabled; callers decide whether to retry.
func (a *OpenAICompatibleAdapter) newClient(cfg *model.ModelConfig) openai.Client {
	apiKey := cfg.Connection.APIKey
	if a.apiKey != nil {
		apiKey = a.apiKey(cfg)
	}

	opts := []option.RequestOption{
		option.WithBaseURL(cfg.BaseURLOr(a.provider.DefaultBaseURL)),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if org := cfg.Connection.ExtraString("organization"); org != "" {
		opts = append(opts, option.WithOrganization(org))
	}
	if timeout := requestTimeout(cfg); timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	for k, v := range a.headers {
		opts = append(opts, option.WithHeader(k, v))
	}

	return openai.NewClient(opts...)
}

// buildParams maps the typed call parameters and returns the rest as
// per-request JSON overrides.
func (a *OpenAICompatibleAdapter) buildParams(messages []model.Message, cfg *model.ModelConfig) (openai.ChatCompletionNewParams, []option.RequestOption) {
	params := openai.ChatCompletionNewParams{
		Messages: ConvertToOpenAIMessages(messages),
		Model:    openai.ChatModel(cfg.Model.ID),
	}

	if v, ok := cfg.FloatParam(ParamTemperature); ok {
		params.Temperature = openai.Float(v)
	}
	if v, ok := cfg.FloatParam(ParamTopP); ok {
		params.TopP = openai.Float(v)
	}
	if v, ok := cfg.IntParam(ParamMaxTokens); ok {
		params.MaxTokens = openai.Int(v)
	}

	var opts []option.RequestOption
	for k, v := range extraParams(cfg) {
		opts = append(opts, option.WithJSONSet(k, v))
	}

	return params, opts
}

// SendMessage implements model.Adapter.
func (a *OpenAICompatibleAdapter) SendMessage(ctx context.Context, messages []model.Message, cfg *model.ModelConfig) (*model.LLMResponse, error) {
	client := a.newClient(cfg)
	params, opts := a.buildParams(messages, cfg)

	config.Logf("[Provider] %s: sending %d messages to %s", a.provider.ID, len(messages), cfg.Model.ID)

	resp, err := client.Chat.Completions.New(ctx, params, opts...)
	if err != nil {
		return nil, annotateError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, ErrNoResponse
	}

	result := &model.LLMResponse{Content: resp.Choices[0].Message.Content}
	if resp.Usage.TotalTokens > 0 || resp.Usage.PromptTokens > 0 {
		result.Usage = &model.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		}
	}

	return result, nil
}

// SendMessageStream implements model.Adapter.
func (a *OpenAICompatibleAdapter) SendMessageStream(ctx context.Context, messages []model.Message, cfg *model.ModelConfig, handlers model.StreamHandlers) error {
	guard := newStreamGuard(handlers)
	client := a.newClient(cfg)
	params, opts := a.buildParams(messages, cfg)

	config.Logf("[Provider] %s: streaming %d messages to %s", a.provider.ID, len(messages), cfg.Model.ID)

	stream := client.Chat.Completions.NewStreaming(ctx, params, opts...)
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) > 0 {
			guard.chunk(chunk.Choices[0].Delta.Content)
		}
	}

	return guard.finish(stream.Err())
}

// ListModels implements model.ModelLister by calling GET /models.
func (a *OpenAICompatibleAdapter) ListModels(ctx context.Context, cfg *model.ModelConfig) ([]model.Model, error) {
	client := a.newClient(cfg)

	page, err := client.Models.List(ctx)
	if err != nil {
		return nil, annotateError(err)
	}
	if !page.JSON.Data.Valid() {
		return nil, ErrMalformedResponse
	}

	models := make([]model.Model, 0, len(page.Data))
	for _, m := range page.Data {
		if a.keepListed != nil && !a.keepListed(cfg, m.ID) {
			continue
		}
		desc := describeModel(a.models, a.provider.ID, m.ID)
		if a.displayName != nil && desc.Name == m.ID {
			desc.Name = a.displayName(m.ID)
		}
		models = append(models, desc)
	}

	config.Logf("[Provider] %s: listed %d models", a.provider.ID, len(models))
	return models, nil
}

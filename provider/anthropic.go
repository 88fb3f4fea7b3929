package provider

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"promptsmith/config"
	"promptsmith/model"
)

// AnthropicAdapter implements model.Adapter using Anthropic's official SDK.
//
// Anthropic differs from the chat-completions vendors in three ways that the
// adapter hides:
//   - system messages travel in a separate system field
//   - max_tokens is mandatory (DefaultMaxTokens unless Params overrides it)
//   - images must be base64 blocks with an explicit media type
//
// The descriptor advertises dynamic models, but ListModels always returns
// ErrDynamicModelsUnsupported; the static list is the only source.
type AnthropicAdapter struct {
	provider model.Provider
	models   []model.Model
}

func NewAnthropicAdapter() *AnthropicAdapter {
	claude := func(ctxLen int) model.Capabilities {
		return model.Capabilities{SupportsTools: true, SupportsVision: true, MaxContextLength: ctxLen}
	}
	return &AnthropicAdapter{
		provider: model.Provider{
			ID:                    IDAnthropic,
			Name:                  "Anthropic",
			Description:           "Claude models from Anthropic",
			RequiresAPIKey:        true,
			DefaultBaseURL:        "https://api.anthropic.com",
			SupportsDynamicModels: true,
			ConnectionSchema:      compatSchema(),
		},
		models: []model.Model{
			staticModel(IDAnthropic, "claude-3-5-sonnet-20241022", "Claude 3.5 Sonnet", claude(200000)),
			staticModel(IDAnthropic, "claude-3-5-haiku-20241022", "Claude 3.5 Haiku", claude(200000)),
			staticModel(IDAnthropic, "claude-3-opus-20240229", "Claude 3 Opus", claude(200000)),
			staticModel(IDAnthropic, "claude-3-sonnet-20240229", "Claude 3 Sonnet", claude(200000)),
			staticModel(IDAnthropic, "claude-3-haiku-20240307", "Claude 3 Haiku", claude(200000)),
		},
	}
}

// Provider implements model.Adapter.
func (a *AnthropicAdapter) Provider() model.Provider {
	return a.provider
}

// Models implements model.Adapter.
func (a *AnthropicAdapter) Models() []model.Model {
	return copyModels(a.models)
}

// BuildDefaultModel implements model.Adapter.
func (a *AnthropicAdapter) BuildDefaultModel(modelID string) model.Model {
	return buildDefaultModel(a.provider.ID, modelID)
}

// ListModels implements model.ModelLister. Anthropic has no listing the
// adapter can use, so it always fails.
func (a *AnthropicAdapter) ListModels(ctx context.Context, cfg *model.ModelConfig) ([]model.Model, error) {
	return nil, ErrDynamicModelsUnsupported
}

func (a *AnthropicAdapter) newClient(cfg *model.ModelConfig) anthropic.Client {
	opts := []option.RequestOption{
		option.WithBaseURL(cfg.BaseURLOr(a.provider.DefaultBaseURL)),
		option.WithAPIKey(cfg.Connection.APIKey),
		option.WithMaxRetries(0),
	}
	if timeout := requestTimeout(cfg); timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	return anthropic.NewClient(opts...)
}

func (a *AnthropicAdapter) buildParams(messages []model.Message, cfg *model.ModelConfig) anthropic.MessageNewParams {
	anthropicMessages, systemBlocks := ConvertToAnthropicMessages(messages)

	maxTokens := int64(DefaultMaxTokens)
	if v, ok := cfg.IntParam(ParamMaxTokens); ok && v > 0 {
		maxTokens = v
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(cfg.Model.ID),
		Messages:  anthropicMessages,
		MaxTokens: maxTokens,
	}
	if len(systemBlocks) > 0 {
		params.System = systemBlocks
	}
	if v, ok := cfg.FloatParam(ParamTemperature); ok {
		params.Temperature = anthropic.Float(v)
	}
	if v, ok := cfg.FloatParam(ParamTopP); ok {
		params.TopP = anthropic.Float(v)
	}

	return params
}

// SendMessage implements model.Adapter. The reply must open with a non-empty
// text block; anything else is reported as ErrNoResponse.
func (a *AnthropicAdapter) SendMessage(ctx context.Context, messages []model.Message, cfg *model.ModelConfig) (*model.LLMResponse, error) {
	client := a.newClient(cfg)
	params := a.buildParams(messages, cfg)

	config.Logf("[Provider] anthropic: sending %d messages to %s", len(messages), cfg.Model.ID)

	msg, err := client.Messages.New(ctx, params)
	if err != nil {
		return nil, annotateError(err)
	}

	if len(msg.Content) == 0 || msg.Content[0].Type != "text" || msg.Content[0].Text == "" {
		return nil, ErrNoResponse
	}

	input := int(msg.Usage.InputTokens)
	output := int(msg.Usage.OutputTokens)
	return &model.LLMResponse{
		Content: msg.Content[0].Text,
		Usage: &model.Usage{
			PromptTokens:     input,
			CompletionTokens: output,
			TotalTokens:      input + output,
		},
	}, nil
}

// SendMessageStream implements model.Adapter. Only text deltas are
// forwarded; thinking and tool-use deltas are ignored.
func (a *AnthropicAdapter) SendMessageStream(ctx context.Context, messages []model.Message, cfg *model.ModelConfig, handlers model.StreamHandlers) error {
	guard := newStreamGuard(handlers)
	client := a.newClient(cfg)
	params := a.buildParams(messages, cfg)

	config.Logf("[Provider] anthropic: streaming %d messages to %s", len(messages), cfg.Model.ID)

	stream := client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	for stream.Next() {
		event := stream.Current()

		switch eventVariant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch deltaVariant := eventVariant.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				guard.chunk(deltaVariant.Text)
			}
		}
	}

	return guard.finish(stream.Err())
}

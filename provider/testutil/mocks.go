package testutil

import (
	"context"
	"strings"
	"sync"

	"promptsmith/model"
)

// MockAdapter implements model.Adapter and model.ModelLister for testing.
// Each behaviour can be replaced through its Func field; the defaults echo
// the text of the last message back.
type MockAdapter struct {
	// Configurable responses
	SendMessageFunc       func(ctx context.Context, messages []model.Message, cfg *model.ModelConfig) (*model.LLMResponse, error)
	SendMessageStreamFunc func(ctx context.Context, messages []model.Message, cfg *model.ModelConfig, handlers model.StreamHandlers) error
	ListModelsFunc        func(ctx context.Context, cfg *model.ModelConfig) ([]model.Model, error)

	// State
	provider model.Provider
	models   []model.Model

	mu        sync.Mutex
	calls     int
	lastMsgs  []model.Message
	lastCfgID string
}

// NewMockAdapter creates a mock adapter for providerID with default
// implementations and a single static model "mock-model".
func NewMockAdapter(providerID string) *MockAdapter {
	mock := &MockAdapter{
		provider: model.Provider{
			ID:                    providerID,
			Name:                  "Mock " + providerID,
			DefaultBaseURL:        "http://mock.invalid",
			SupportsDynamicModels: true,
		},
		models: []model.Model{
			{ID: "mock-model", Name: "Mock Model", ProviderID: providerID},
		},
	}
	mock.SendMessageFunc = mock.defaultSendMessage
	mock.SendMessageStreamFunc = mock.defaultSendMessageStream
	mock.ListModelsFunc = mock.defaultListModels
	return mock
}

// WithDynamicModels toggles the descriptor's dynamic listing flag.
func (m *MockAdapter) WithDynamicModels(enabled bool) *MockAdapter {
	m.provider.SupportsDynamicModels = enabled
	return m
}

// WithModels replaces the static model list.
func (m *MockAdapter) WithModels(models ...model.Model) *MockAdapter {
	m.models = models
	return m
}

// EchoContent is what the default implementations answer with: the text of
// the last message.
func EchoContent(messages []model.Message) string {
	if len(messages) == 0 {
		return ""
	}
	return messages[len(messages)-1].Text()
}

func (m *MockAdapter) defaultSendMessage(ctx context.Context, messages []model.Message, cfg *model.ModelConfig) (*model.LLMResponse, error) {
	return &model.LLMResponse{Content: EchoContent(messages)}, nil
}

// defaultSendMessageStream emits the echo one word at a time.
func (m *MockAdapter) defaultSendMessageStream(ctx context.Context, messages []model.Message, cfg *model.ModelConfig, handlers model.StreamHandlers) error {
	content := EchoContent(messages)
	for _, chunk := range strings.SplitAfter(content, " ") {
		if chunk != "" && handlers.OnChunk != nil {
			handlers.OnChunk(chunk)
		}
	}
	if handlers.OnComplete != nil {
		handlers.OnComplete(content)
	}
	return nil
}

func (m *MockAdapter) defaultListModels(ctx context.Context, cfg *model.ModelConfig) ([]model.Model, error) {
	return []model.Model{
		{ID: "live-model-1", Name: "live-model-1", ProviderID: m.provider.ID},
		{ID: "live-model-2", Name: "live-model-2", ProviderID: m.provider.ID},
	}, nil
}

func (m *MockAdapter) record(messages []model.Message, cfg *model.ModelConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastMsgs = messages
	if cfg != nil {
		m.lastCfgID = cfg.ID
	}
}

// Calls returns how many send calls (single-shot or streaming) were made.
func (m *MockAdapter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastMessages returns the messages of the most recent send call.
func (m *MockAdapter) LastMessages() []model.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastMsgs
}

// LastConfigID returns the configuration id of the most recent send call.
func (m *MockAdapter) LastConfigID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCfgID
}

func (m *MockAdapter) Provider() model.Provider {
	return m.provider
}

func (m *MockAdapter) Models() []model.Model {
	out := make([]model.Model, len(m.models))
	copy(out, m.models)
	return out
}

func (m *MockAdapter) BuildDefaultModel(modelID string) model.Model {
	return model.Model{ID: modelID, Name: modelID, ProviderID: m.provider.ID}
}

func (m *MockAdapter) SendMessage(ctx context.Context, messages []model.Message, cfg *model.ModelConfig) (*model.LLMResponse, error) {
	m.record(messages, cfg)
	return m.SendMessageFunc(ctx, messages, cfg)
}

func (m *MockAdapter) SendMessageStream(ctx context.Context, messages []model.Message, cfg *model.ModelConfig, handlers model.StreamHandlers) error {
	m.record(messages, cfg)
	return m.SendMessageStreamFunc(ctx, messages, cfg, handlers)
}

func (m *MockAdapter) ListModels(ctx context.Context, cfg *model.ModelConfig) ([]model.Model, error) {
	return m.ListModelsFunc(ctx, cfg)
}

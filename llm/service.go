// Package llm resolves a model key to its stored configuration and dispatches
// the call to the matching provider adapter.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"promptsmith/config"
	"promptsmith/model"
	"promptsmith/modelconfig"
)

var (
	ErrEmptyModelKey = errors.New("model key is empty")
	ErrModelNotFound = modelconfig.ErrModelNotFound
)

// ModelSource returns the configuration stored under a model key.
type ModelSource interface {
	GetModel(ctx context.Context, key string) (*model.ModelConfig, error)
}

// AdapterSource resolves provider ids to adapters.
type AdapterSource interface {
	Adapter(id string) (model.Adapter, error)
	Models(ctx context.Context, providerID string, cfg *model.ModelConfig) ([]model.Model, error)
}

// Service never retries: a failed vendor call surfaces to the caller as is.
type Service struct {
	models   ModelSource
	adapters AdapterSource
}

func NewService(models ModelSource, adapters AdapterSource) *Service {
	return &Service{models: models, adapters: adapters}
}

// resolve performs the fail-fast checks shared by every entry point.
func (s *Service) resolve(ctx context.Context, key string) (*model.ModelConfig, model.Adapter, error) {
	if strings.TrimSpace(key) == "" {
		return nil, nil, ErrEmptyModelKey
	}

	cfg, err := s.models.GetModel(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	if cfg == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrModelNotFound, key)
	}

	adapter, err := s.adapters.Adapter(cfg.Provider.ID)
	if err != nil {
		return nil, nil, err
	}
	return cfg, adapter, nil
}

// SendMessage returns only the completion text.
func (s *Service) SendMessage(ctx context.Context, messages []model.Message, key string) (string, error) {
	resp, err := s.SendMessageStructured(ctx, messages, key)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// SendMessageStructured returns the full response including usage.
func (s *Service) SendMessageStructured(ctx context.Context, messages []model.Message, key string) (*model.LLMResponse, error) {
	cfg, adapter, err := s.resolve(ctx, key)
	if err != nil {
		return nil, err
	}

	config.Logf("[LLM] SendMessage key=%s provider=%s model=%s messages=%d", key, cfg.Provider.ID, cfg.Model.ID, len(messages))
	return adapter.SendMessage(ctx, messages, cfg)
}

// SendMessageStream drives handlers. Resolution errors are returned directly
// without calling OnError.
func (s *Service) SendMessageStream(ctx context.Context, messages []model.Message, key string, handlers model.StreamHandlers) error {
	cfg, adapter, err := s.resolve(ctx, key)
	if err != nil {
		return err
	}

	config.Logf("[LLM] SendMessageStream key=%s provider=%s model=%s messages=%d", key, cfg.Provider.ID, cfg.Model.ID, len(messages))
	return adapter.SendMessageStream(ctx, messages, cfg, handlers)
}

// TestConnection sends a one-line request through the configured model.
func (s *Service) TestConnection(ctx context.Context, key string) error {
	ping := []model.Message{model.NewMessage(model.RoleUser, "Reply with OK.")}
	if _, err := s.SendMessageStructured(ctx, ping, key); err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// FetchModels lists the models a provider reports live for cfg. Providers
// without discovery yield an empty list; unknown ids fail with
// provider.ErrAdapterNotFound.
func (s *Service) FetchModels(ctx context.Context, providerID string, cfg *model.ModelConfig) ([]model.Model, error) {
	return s.adapters.Models(ctx, providerID, cfg)
}

// Package modelconfig persists user model configurations: which provider and
// model a key points at, how to connect, and default call parameters.
package modelconfig

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"promptsmith/config"
	"promptsmith/model"
	"promptsmith/storage"
)

var (
	ErrModelNotFound   = errors.New("model configuration not found")
	ErrProviderUnknown = errors.New("unknown provider")
	ErrInvalidConfig   = errors.New("invalid model configuration")
)

// Manager stores all configurations as one id-keyed JSON document.
type Manager struct {
	store storage.Provider
}

func NewManager(store storage.Provider) *Manager {
	return &Manager{store: store}
}

func (m *Manager) load(ctx context.Context) (map[string]model.ModelConfig, error) {
	return storage.GetData(ctx, m.store, storage.KeyModels, map[string]model.ModelConfig{})
}

// GetModel returns the configuration stored under key.
func (m *Manager) GetModel(ctx context.Context, key string) (*model.ModelConfig, error) {
	models, err := m.load(ctx)
	if err != nil {
		return nil, err
	}
	cfg, ok := models[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, key)
	}
	return &cfg, nil
}

// ListModels returns every configuration sorted by id.
func (m *Manager) ListModels(ctx context.Context) ([]model.ModelConfig, error) {
	models, err := m.load(ctx)
	if err != nil {
		return nil, err
	}

	list := make([]model.ModelConfig, 0, len(models))
	for _, cfg := range models {
		list = append(list, cfg)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// EnabledModels returns the configurations offered for selection.
func (m *Manager) EnabledModels(ctx context.Context) ([]model.ModelConfig, error) {
	all, err := m.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	enabled := all[:0]
	for _, cfg := range all {
		if cfg.Enabled {
			enabled = append(enabled, cfg)
		}
	}
	return enabled, nil
}

// SaveModel inserts or replaces cfg by id.
func (m *Manager) SaveModel(ctx context.Context, cfg model.ModelConfig) error {
	if strings.TrimSpace(cfg.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidConfig)
	}
	if cfg.Provider.ID == "" || cfg.Model.ID == "" {
		return fmt.Errorf("%w: %s has no provider or model", ErrInvalidConfig, cfg.ID)
	}

	_, err := storage.UpdateData(ctx, m.store, storage.KeyModels, map[string]model.ModelConfig{},
		func(models map[string]model.ModelConfig) (map[string]model.ModelConfig, error) {
			models[cfg.ID] = cfg
			return models, nil
		})
	if err != nil {
		return err
	}

	config.Logf("[Models] Saved %s (%s/%s)", cfg.ID, cfg.Provider.ID, cfg.Model.ID)
	return nil
}

// DeleteModel removes the configuration under key.
func (m *Manager) DeleteModel(ctx context.Context, key string) error {
	_, err := storage.UpdateData(ctx, m.store, storage.KeyModels, map[string]model.ModelConfig{},
		func(models map[string]model.ModelConfig) (map[string]model.ModelConfig, error) {
			if _, ok := models[key]; !ok {
				return nil, fmt.Errorf("%w: %s", ErrModelNotFound, key)
			}
			delete(models, key)
			return models, nil
		})
	return err
}

// SetEnabled toggles whether a configuration is offered for selection.
func (m *Manager) SetEnabled(ctx context.Context, key string, enabled bool) error {
	_, err := storage.UpdateData(ctx, m.store, storage.KeyModels, map[string]model.ModelConfig{},
		func(models map[string]model.ModelConfig) (map[string]model.ModelConfig, error) {
			cfg, ok := models[key]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrModelNotFound, key)
			}
			cfg.Enabled = enabled
			models[key] = cfg
			return models, nil
		})
	return err
}

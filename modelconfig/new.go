package modelconfig

import (
	"context"
	"errors"
	"fmt"

	"promptsmith/config"
	"promptsmith/model"
)

// Catalog resolves provider and model descriptors. *provider.Registry
// satisfies it.
type Catalog interface {
	Provider(id string) (model.Provider, bool)
	StaticModels(id string) []model.Model
	Adapter(id string) (model.Adapter, error)
}

// Options are the optional parts of a new configuration.
type Options struct {
	Name     string
	Disabled bool
	Params   map[string]any
}

// NewConfig builds a configuration for providerID/modelID. The model is taken
// from the provider's static list when present, otherwise guessed by the
// adapter.
func NewConfig(cat Catalog, providerID, modelID string, conn model.Connection, opts Options) (*model.ModelConfig, error) {
	p, ok := cat.Provider(providerID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderUnknown, providerID)
	}
	if modelID == "" {
		return nil, fmt.Errorf("%w: model id is required", ErrInvalidConfig)
	}

	m, err := resolveModel(cat, providerID, modelID)
	if err != nil {
		return nil, err
	}

	name := opts.Name
	if name == "" {
		name = fmt.Sprintf("%s %s", p.Name, m.Name)
	}

	return &model.ModelConfig{
		ID:         model.ConfigID(providerID, modelID),
		Name:       name,
		Enabled:    !opts.Disabled,
		Provider:   p,
		Model:      m,
		Connection: conn,
		Params:     opts.Params,
	}, nil
}

func resolveModel(cat Catalog, providerID, modelID string) (model.Model, error) {
	for _, m := range cat.StaticModels(providerID) {
		if m.ID == modelID {
			return m, nil
		}
	}
	adapter, err := cat.Adapter(providerID)
	if err != nil {
		return model.Model{}, err
	}
	return adapter.BuildDefaultModel(modelID), nil
}

// SeedFromConfig saves a configuration for each [[models]] entry that is not
// stored yet. API keys come from creds; an existing configuration without a
// key picks one up when creds has it. Returns the ids that were written.
func (m *Manager) SeedFromConfig(ctx context.Context, cat Catalog, entries []config.ModelEntry, creds *config.CredentialStore) ([]string, error) {
	var written []string
	for _, entry := range entries {
		apiKey := ""
		if creds != nil {
			apiKey = creds.Get(entry.Provider)
		}

		id := model.ConfigID(entry.Provider, entry.Model)
		existing, err := m.GetModel(ctx, id)
		switch {
		case err == nil:
			if existing.Connection.APIKey != "" || apiKey == "" {
				continue
			}
			existing.Connection.APIKey = apiKey
			if err := m.SaveModel(ctx, *existing); err != nil {
				return written, err
			}
			written = append(written, id)
			continue
		case !errors.Is(err, ErrModelNotFound):
			return written, err
		}

		conn := model.Connection{APIKey: apiKey, BaseURL: entry.BaseURL}
		if len(entry.Extra) > 0 {
			conn.Extra = make(map[string]any, len(entry.Extra))
			for k, v := range entry.Extra {
				conn.Extra[k] = v
			}
		}

		cfg, err := NewConfig(cat, entry.Provider, entry.Model, conn, Options{Name: entry.Name, Params: entry.Params})
		if err != nil {
			config.Logf("[Models] Skipping config.toml entry %s: %v", id, err)
			continue
		}
		if err := m.SaveModel(ctx, *cfg); err != nil {
			return written, err
		}
		written = append(written, id)
	}
	return written, nil
}

package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"promptsmith/config"
	"promptsmith/model"
)

// Registry maps provider ids to adapters. It is safe for concurrent use;
// the HTTP and MCP surfaces read it from many goroutines while the CLI may
// register adapters at startup.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]model.Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]model.Adapter)}
}

// Register adds an adapter under its provider id. A later registration for
// the same id replaces the earlier one.
func (r *Registry) Register(adapter model.Adapter) {
	id := adapter.Provider().ID

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[id]; exists {
		config.Logf("[Provider] Replacing adapter for %s", id)
	}
	r.adapters[id] = adapter
}

// Adapter returns the adapter for id, or an error wrapping
// ErrAdapterNotFound.
func (r *Registry) Adapter(id string) (model.Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, ok := r.adapters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAdapterNotFound, id)
	}
	return adapter, nil
}

// Provider looks up a descriptor without failing.
func (r *Registry) Provider(id string) (model.Provider, bool) {
	adapter, err := r.Adapter(id)
	if err != nil {
		return model.Provider{}, false
	}
	return adapter.Provider(), true
}

// Providers returns every registered descriptor sorted by id.
func (r *Registry) Providers() []model.Provider {
	r.mu.RLock()
	providers := make([]model.Provider, 0, len(r.adapters))
	for _, adapter := range r.adapters {
		providers = append(providers, adapter.Provider())
	}
	r.mu.RUnlock()

	sort.Slice(providers, func(i, j int) bool {
		return providers[i].ID < providers[j].ID
	})
	return providers
}

// StaticModels returns the adapter's fallback list, or an empty list for an
// unknown provider.
func (r *Registry) StaticModels(id string) []model.Model {
	adapter, err := r.Adapter(id)
	if err != nil {
		return []model.Model{}
	}
	return adapter.Models()
}

// Models fetches the live model list for a provider. The lookup only
// reaches the vendor when the provider declares dynamic support, a
// configuration is given and the adapter implements model.ModelLister;
// otherwise it returns an empty list. An unknown id fails with
// ErrAdapterNotFound. Lister results and errors are passed through
// unchanged, with no fallback to the static list.
func (r *Registry) Models(ctx context.Context, id string, cfg *model.ModelConfig) ([]model.Model, error) {
	adapter, err := r.Adapter(id)
	if err != nil {
		return nil, err
	}
	if !adapter.Provider().SupportsDynamicModels || cfg == nil {
		return []model.Model{}, nil
	}
	lister, ok := adapter.(model.ModelLister)
	if !ok {
		return []model.Model{}, nil
	}
	return lister.ListModels(ctx, cfg)
}

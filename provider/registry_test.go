package provider

import (
	"context"
	"errors"
	"sync"
	"testing"

	"promptsmith/model"
	"promptsmith/provider/testutil"
)

// staticOnly hides the ModelLister method of the wrapped adapter.
type staticOnly struct {
	model.Adapter
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	reg := NewRegistry()

	first := testutil.NewMockAdapter("alpha")
	second := testutil.NewMockAdapter("alpha").WithModels(model.Model{ID: "replacement", ProviderID: "alpha"})
	reg.Register(first)
	reg.Register(second)

	got, err := reg.Adapter("alpha")
	if err != nil {
		t.Fatalf("Adapter() error = %v", err)
	}
	if got != model.Adapter(second) {
		t.Error("last registration should win")
	}

	if _, err := reg.Adapter("missing"); !errors.Is(err, ErrAdapterNotFound) {
		t.Errorf("Adapter(missing) error = %v, want ErrAdapterNotFound", err)
	}

	if p, ok := reg.Provider("alpha"); !ok || p.ID != "alpha" {
		t.Errorf("Provider(alpha) = %+v, %v", p, ok)
	}
	if _, ok := reg.Provider("missing"); ok {
		t.Error("Provider(missing) reported found")
	}

	if models := reg.StaticModels("alpha"); len(models) != 1 || models[0].ID != "replacement" {
		t.Errorf("StaticModels(alpha) = %+v", models)
	}
	if models := reg.StaticModels("missing"); models == nil || len(models) != 0 {
		t.Errorf("StaticModels(missing) = %#v, want empty non-nil", models)
	}
}

func TestRegistryModels(t *testing.T) {
	cfg := testutil.TestModelConfig("p", "m", "")
	listErr := errors.New("vendor down")

	tests := []struct {
		name    string
		adapter model.Adapter
		cfg     *model.ModelConfig
		wantIDs []string
		wantErr error
	}{
		{
			name:    "lister results are returned verbatim",
			adapter: testutil.NewMockAdapter("p"),
			cfg:     cfg,
			wantIDs: []string{"live-model-1", "live-model-2"},
		},
		{
			name:    "nil config",
			adapter: testutil.NewMockAdapter("p"),
			cfg:     nil,
			wantIDs: []string{},
		},
		{
			name:    "provider without dynamic support",
			adapter: testutil.NewMockAdapter("p").WithDynamicModels(false),
			cfg:     cfg,
			wantIDs: []string{},
		},
		{
			name:    "adapter without lister",
			adapter: staticOnly{testutil.NewMockAdapter("p")},
			cfg:     cfg,
			wantIDs: []string{},
		},
		{
			name: "lister failure propagates without fallback",
			adapter: func() model.Adapter {
				m := testutil.NewMockAdapter("p")
				m.ListModelsFunc = func(ctx context.Context, cfg *model.ModelConfig) ([]model.Model, error) {
					return nil, listErr
				}
				return m
			}(),
			cfg:     cfg,
			wantErr: listErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			reg.Register(tt.adapter)

			models, err := reg.Models(context.Background(), "p", tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				if models != nil {
					t.Errorf("models = %v, want nil on failure", models)
				}
				return
			}
			if err != nil {
				t.Fatalf("Models() error = %v", err)
			}
			if len(models) != len(tt.wantIDs) {
				t.Fatalf("got %d models, want %d", len(models), len(tt.wantIDs))
			}
			for i, m := range models {
				if m.ID != tt.wantIDs[i] {
					t.Errorf("model %d = %q, want %q", i, m.ID, tt.wantIDs[i])
				}
			}
		})
	}

	t.Run("unknown provider", func(t *testing.T) {
		models, err := NewRegistry().Models(context.Background(), "nope", cfg)
		if !errors.Is(err, ErrAdapterNotFound) {
			t.Errorf("error = %v, want ErrAdapterNotFound", err)
		}
		if models != nil {
			t.Errorf("models = %v, want nil", models)
		}
	})
}

func TestDefaultRegistry(t *testing.T) {
	reg := NewDefaultRegistry()

	want := []string{IDAnthropic, IDDeepSeek, IDGemini, IDOllama, IDOpenAI, IDOpenRouter, IDSiliconFlow, IDZhipu}
	providers := reg.Providers()
	if len(providers) != len(want) {
		t.Fatalf("got %d providers, want %d", len(providers), len(want))
	}
	for i, p := range providers {
		if p.ID != want[i] {
			t.Errorf("provider %d = %q, want %q", i, p.ID, want[i])
		}
	}

	if p, _ := reg.Provider(IDOllama); p.RequiresAPIKey {
		t.Error("ollama must not require an API key")
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := NewDefaultRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			reg.Register(testutil.NewMockAdapter("mock"))
		}()
		go func() {
			defer wg.Done()
			_ = reg.Providers()
			_, _ = reg.Adapter(IDOpenAI)
			_ = reg.StaticModels(IDGemini)
		}()
	}
	wg.Wait()

	if _, err := reg.Adapter("mock"); err != nil {
		t.Errorf("Adapter(mock) error = %v", err)
	}
}

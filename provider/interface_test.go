package provider_test

import (
	"testing"

	"promptsmith/model"
	"promptsmith/provider"
	"promptsmith/provider/testutil"
)

// TestAdapterContract defines the descriptor contract ALL adapters must
// satisfy. Network behaviour is covered per vendor with httptest servers.
func TestAdapterContract(t *testing.T) {
	adapters := append(provider.BuiltinAdapters(), testutil.NewMockAdapter("mock"))

	for _, a := range adapters {
		t.Run(a.Provider().ID, func(t *testing.T) {
			t.Run("Descriptor", func(t *testing.T) {
				testDescriptor(t, a)
			})
			t.Run("StaticModels", func(t *testing.T) {
				testStaticModels(t, a)
			})
			t.Run("BuildDefaultModel", func(t *testing.T) {
				testBuildDefaultModel(t, a)
			})
			t.Run("DynamicImpliesLister", func(t *testing.T) {
				if a.Provider().SupportsDynamicModels {
					if _, ok := a.(model.ModelLister); !ok {
						t.Error("adapter declares dynamic models but does not implement ModelLister")
					}
				}
			})
		})
	}
}

func testDescriptor(t *testing.T, a model.Adapter) {
	p := a.Provider()
	if p.ID == "" || p.Name == "" {
		t.Errorf("descriptor missing id or name: %+v", p)
	}
	if p.DefaultBaseURL == "" {
		t.Error("descriptor has no default base URL")
	}
	if p.ID != a.Provider().ID {
		t.Error("Provider() is not stable across calls")
	}
}

func testStaticModels(t *testing.T, a model.Adapter) {
	models := a.Models()
	if len(models) == 0 {
		t.Fatal("Models() returned an empty fallback list")
	}
	for _, m := range models {
		if m.ProviderID != a.Provider().ID {
			t.Errorf("model %s has ProviderID %q", m.ID, m.ProviderID)
		}
	}

	// Callers must not be able to corrupt the static list.
	models[0].ID = "mutated"
	if a.Models()[0].ID == "mutated" {
		t.Error("Models() exposes internal slice")
	}
}

func testBuildDefaultModel(t *testing.T, a model.Adapter) {
	m := a.BuildDefaultModel("some-unknown-model")
	if m.ID != "some-unknown-model" || m.ProviderID != a.Provider().ID {
		t.Errorf("BuildDefaultModel() = %+v", m)
	}
}

// TestMockAdapterImplementsInterfaces ensures the mock adapter satisfies the
// interfaces it stands in for.
func TestMockAdapterImplementsInterfaces(t *testing.T) {
	var _ model.Adapter = (*testutil.MockAdapter)(nil)
	var _ model.ModelLister = (*testutil.MockAdapter)(nil)
}

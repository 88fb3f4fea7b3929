package provider

import (
	"promptsmith/config"
	"promptsmith/model"
)

// BuiltinAdapters creates one instance of every adapter shipped with
// promptsmith.
func BuiltinAdapters() []model.Adapter {
	return []model.Adapter{
		NewOpenAIAdapter(),
		NewGeminiAdapter(),
		NewAnthropicAdapter(),
		NewOllamaAdapter(),
		NewZhipuAdapter(),
		NewDeepSeekAdapter(),
		NewSiliconFlowAdapter(),
		NewOpenRouterAdapter(),
	}
}

// NewDefaultRegistry creates a registry holding every built-in adapter.
//
// This is the single entry point for adapter initialization; the app
// container calls it once and shares the result with every surface.
//
// Example:
//
//	reg := provider.NewDefaultRegistry()
//	for _, p := range reg.Providers() {
//	    fmt.Println(p.ID, p.Name)
//	}
func NewDefaultRegistry() *Registry {
	reg := NewRegistry()
	for _, adapter := range BuiltinAdapters() {
		reg.Register(adapter)
	}
	config.Logf("[Provider] Registered %d built-in adapters", len(reg.Providers()))
	return reg
}

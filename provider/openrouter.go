package provider

import (
	"strings"

	"promptsmith/model"
)

// NewOpenRouterAdapter creates the adapter for OpenRouter, a gateway that
// fronts many vendors behind one OpenAI-compatible API. Model ids carry the
// upstream vendor as a prefix ("openai/gpt-4o-mini").
//
// Requests carry an X-Title header so usage shows up under the app name in
// the OpenRouter dashboard.
func NewOpenRouterAdapter() *OpenAICompatibleAdapter {
	return &OpenAICompatibleAdapter{
		provider: model.Provider{
			ID:                    IDOpenRouter,
			Name:                  "OpenRouter",
			Description:           "Unified gateway to models from many vendors",
			RequiresAPIKey:        true,
			DefaultBaseURL:        "https://openrouter.ai/api/v1",
			SupportsDynamicModels: true,
			ConnectionSchema:      compatSchema(),
		},
		models: []model.Model{
			staticModel(IDOpenRouter, "openai/gpt-4o-mini", "GPT-4o Mini", model.Capabilities{SupportsTools: true, SupportsVision: true, MaxContextLength: 128000}),
			staticModel(IDOpenRouter, "anthropic/claude-3.5-sonnet", "Claude 3.5 Sonnet", model.Capabilities{SupportsTools: true, SupportsVision: true, MaxContextLength: 200000}),
			staticModel(IDOpenRouter, "google/gemini-flash-1.5", "Gemini Flash 1.5", model.Capabilities{SupportsVision: true, MaxContextLength: 1000000}),
		},
		displayName: stripProviderPrefix,
		headers: map[string]string{
			"X-Title": "promptsmith",
		},
	}
}

// stripProviderPrefix removes the upstream vendor prefix for display
// (e.g., "anthropic/claude-3.5-sonnet" -> "claude-3.5-sonnet").
func stripProviderPrefix(modelName string) string {
	if idx := strings.LastIndex(modelName, "/"); idx != -1 {
		return modelName[idx+1:]
	}
	return modelName
}

package provider

import "testing"

func TestGuessVisionSupport(t *testing.T) {
	tests := []struct {
		provider string
		model    string
		want     bool
	}{
		{IDOpenAI, "gpt-4o", true},
		{IDOpenAI, "gpt-3.5-turbo", false},
		{IDOpenAI, "llava-v1.6", true},
		{IDGemini, "anything", true},
		{IDAnthropic, "claude-3-haiku-20240307", true},
		{IDAnthropic, "other", false},
		{IDOllama, "llama3.2-vision", true},
		{IDOllama, "bakllava", true},
		{IDOllama, "qwen2.5", false},
		{IDZhipu, "glm-4v", true},
		{IDZhipu, "glm-4-plus", true},
		{IDZhipu, "glm-4-air", false},
		{IDZhipu, "glm-3-turbo", false},
		{IDDeepSeek, "deepseek-vl", false},
		{IDSiliconFlow, "Qwen/Qwen2-VL-72B-Instruct", true},
		{IDSiliconFlow, "Qwen/Qwen2.5-7B-Instruct", false},
		{IDOpenRouter, "openai/gpt-4o-mini", true},
		{IDOpenRouter, "mistralai/mistral-7b-instruct", false},
		{"unknown", "some-vision-model", true},
	}

	for _, tt := range tests {
		t.Run(tt.provider+"/"+tt.model, func(t *testing.T) {
			if got := GuessVisionSupport(tt.provider, tt.model); got != tt.want {
				t.Errorf("GuessVisionSupport(%q, %q) = %v, want %v", tt.provider, tt.model, got, tt.want)
			}
		})
	}
}

func TestBuildDefaultModelUsesHeuristics(t *testing.T) {
	m := NewDeepSeekAdapter().BuildDefaultModel("deepseek-reasoner-v2")
	if m.Capabilities.SupportsVision {
		t.Error("deepseek models never support vision")
	}
	if !m.Capabilities.SupportsReasoning {
		t.Error("reasoner should be flagged as reasoning")
	}

	if !NewOllamaAdapter().BuildDefaultModel("llama3.1:8b").Capabilities.SupportsTools {
		t.Error("llama3.1 supports tool calling")
	}
}

package provider

import "promptsmith/model"

// NewZhipuAdapter creates the adapter for Zhipu AI's GLM models, served over
// the OpenAI-compatible /api/paas/v4 endpoint.
func NewZhipuAdapter() *OpenAICompatibleAdapter {
	caps := func(vision bool) model.Capabilities {
		return model.Capabilities{SupportsTools: true, SupportsVision: vision, MaxContextLength: 128000}
	}
	return &OpenAICompatibleAdapter{
		provider: model.Provider{
			ID:                    IDZhipu,
			Name:                  "Zhipu AI",
			Description:           "GLM models from Zhipu AI (bigmodel.cn)",
			RequiresAPIKey:        true,
			DefaultBaseURL:        "https://open.bigmodel.cn/api/paas/v4",
			SupportsDynamicModels: true,
			ConnectionSchema:      compatSchema(),
		},
		models: []model.Model{
			staticModel(IDZhipu, "glm-4-plus", "GLM-4 Plus", caps(true)),
			staticModel(IDZhipu, "glm-4", "GLM-4", caps(true)),
			staticModel(IDZhipu, "glm-4-flash", "GLM-4 Flash", caps(true)),
			staticModel(IDZhipu, "glm-4-air", "GLM-4 Air", caps(false)),
			staticModel(IDZhipu, "glm-4-airx", "GLM-4 AirX", caps(false)),
		},
	}
}

// NewDeepSeekAdapter creates the adapter for DeepSeek. None of its models
// accept images.
func NewDeepSeekAdapter() *OpenAICompatibleAdapter {
	return &OpenAICompatibleAdapter{
		provider: model.Provider{
			ID:                    IDDeepSeek,
			Name:                  "DeepSeek",
			Description:           "DeepSeek chat, reasoning and coding models",
			RequiresAPIKey:        true,
			DefaultBaseURL:        "https://api.deepseek.com",
			SupportsDynamicModels: true,
			ConnectionSchema:      compatSchema(),
		},
		models: []model.Model{
			staticModel(IDDeepSeek, "deepseek-chat", "DeepSeek Chat", model.Capabilities{SupportsTools: true, MaxContextLength: 64000}),
			staticModel(IDDeepSeek, "deepseek-reasoner", "DeepSeek Reasoner", model.Capabilities{SupportsReasoning: true, MaxContextLength: 64000}),
			staticModel(IDDeepSeek, "deepseek-coder", "DeepSeek Coder", model.Capabilities{SupportsTools: true, MaxContextLength: 64000}),
		},
	}
}

// NewSiliconFlowAdapter creates the adapter for SiliconFlow, which hosts open
// weight models behind an OpenAI-compatible API.
func NewSiliconFlowAdapter() *OpenAICompatibleAdapter {
	qwen := model.Capabilities{SupportsTools: true, MaxContextLength: 32768}
	return &OpenAICompatibleAdapter{
		provider: model.Provider{
			ID:                    IDSiliconFlow,
			Name:                  "SiliconFlow",
			Description:           "Open models hosted by SiliconFlow",
			RequiresAPIKey:        true,
			DefaultBaseURL:        "https://api.siliconflow.cn/v1",
			SupportsDynamicModels: true,
			ConnectionSchema:      compatSchema(),
		},
		models: []model.Model{
			staticModel(IDSiliconFlow, "Qwen/Qwen2.5-72B-Instruct", "Qwen2.5 72B Instruct", qwen),
			staticModel(IDSiliconFlow, "Qwen/Qwen2.5-32B-Instruct", "Qwen2.5 32B Instruct", qwen),
			staticModel(IDSiliconFlow, "Qwen/Qwen2.5-14B-Instruct", "Qwen2.5 14B Instruct", qwen),
			staticModel(IDSiliconFlow, "Qwen/Qwen2.5-7B-Instruct", "Qwen2.5 7B Instruct", qwen),
		},
	}
}

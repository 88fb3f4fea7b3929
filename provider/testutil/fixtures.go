package testutil

import (
	"promptsmith/model"
)

// TinyPNG is a 1x1 transparent PNG, base64 encoded.
const TinyPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

// TinyPNGDataURI is TinyPNG as a data URI.
const TinyPNGDataURI = "data:image/png;base64," + TinyPNG

// TestMessages returns a sample conversation for testing
func TestMessages() []model.Message {
	return []model.Message{
		model.NewMessage(model.RoleSystem, "You rewrite prompts."),
		model.NewMessage(model.RoleUser, "Hello, how are you?"),
		model.NewMessage(model.RoleAssistant, "I'm doing well, thank you!"),
		model.NewMessage(model.RoleUser, "Can you help me with a task?"),
	}
}

// SingleUserMessage returns a single user message for simple tests
func SingleUserMessage(content string) []model.Message {
	return []model.Message{model.NewMessage(model.RoleUser, content)}
}

// ImageMessages returns a system prompt followed by a user message holding
// text and one image part.
func ImageMessages(text, imageURL string) []model.Message {
	return []model.Message{
		model.NewMessage(model.RoleSystem, "Describe images."),
		model.NewMultipartMessage(model.RoleUser,
			model.TextPart(text),
			model.ImagePart(imageURL),
		),
	}
}

// TestModelConfig returns an enabled configuration pointing at baseURL.
func TestModelConfig(providerID, modelID, baseURL string) *model.ModelConfig {
	return &model.ModelConfig{
		ID:      model.ConfigID(providerID, modelID),
		Name:    modelID,
		Enabled: true,
		Provider: model.Provider{
			ID:   providerID,
			Name: providerID,
		},
		Model: model.Model{
			ID:         modelID,
			Name:       modelID,
			ProviderID: providerID,
		},
		Connection: model.Connection{
			APIKey:  "test-key",
			BaseURL: baseURL,
		},
	}
}

package provider

import (
	"encoding/base64"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"

	"promptsmith/config"
	"promptsmith/model"
)

// ConvertToOpenAIMessages converts promptsmith messages to the chat-completions
// wire format used by OpenAI and every OpenAI-compatible vendor.
//
// Multipart user messages keep their part order. Image parts are forwarded as
// image_url parts whether they hold a data URI or a remote URL, since the
// compatible APIs accept both. A multipart message left with no usable parts
// is skipped. System and assistant messages are flattened to text.
//
// Example:
//
//	msgs := []model.Message{
//	    model.NewMessage(model.RoleSystem, "You rewrite prompts."),
//	    model.NewMultipartMessage(model.RoleUser,
//	        model.TextPart("describe this"),
//	        model.ImagePart("data:image/png;base64,iVBOR..."),
//	    ),
//	}
//	params.Messages = ConvertToOpenAIMessages(msgs)
func ConvertToOpenAIMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			result = append(result, openai.SystemMessage(msg.Text()))
		case model.RoleAssistant:
			result = append(result, openai.AssistantMessage(msg.Text()))
		default:
			if !msg.IsMultipart() {
				result = append(result, openai.UserMessage(msg.Content))
				continue
			}
			parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(msg.Parts))
			for _, part := range msg.Parts {
				switch part.Type {
				case model.PartText:
					parts = append(parts, openai.TextContentPart(part.Text))
				case model.PartImageURL:
					if part.ImageURL == nil || part.ImageURL.URL == "" {
						continue
					}
					parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
						URL: part.ImageURL.URL,
					}))
				}
			}
			if len(parts) == 0 {
				continue
			}
			result = append(result, openai.UserMessage(parts))
		}
	}
	return result
}

// ConvertToAnthropicMessages converts promptsmith messages to Anthropic format.
// Returns the message array and the system blocks, since Anthropic takes the
// system prompt as a separate request field rather than a message.
//
// Only data URI images can be sent; remote image URLs are dropped because
// they would require a fetch the adapter does not perform. A message left
// with no blocks is skipped entirely.
func ConvertToAnthropicMessages(messages []model.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var systemBlocks []anthropic.TextBlockParam
	anthropicMsgs := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			if text := msg.Text(); text != "" {
				systemBlocks = append(systemBlocks, anthropic.TextBlockParam{Text: text})
			}

		case model.RoleAssistant:
			if text := msg.Text(); text != "" {
				anthropicMsgs = append(anthropicMsgs,
					anthropic.NewAssistantMessage(anthropic.NewTextBlock(text)),
				)
			}

		default:
			blocks := anthropicBlocks(msg)
			if len(blocks) == 0 {
				continue
			}
			anthropicMsgs = append(anthropicMsgs, anthropic.NewUserMessage(blocks...))
		}
	}

	return anthropicMsgs, systemBlocks
}

func anthropicBlocks(msg model.Message) []anthropic.ContentBlockParamUnion {
	if !msg.IsMultipart() {
		if msg.Content == "" {
			return nil
		}
		return []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(msg.Content)}
	}

	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Parts))
	for _, part := range msg.Parts {
		switch part.Type {
		case model.PartText:
			if part.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(part.Text))
			}
		case model.PartImageURL:
			if part.ImageURL == nil {
				continue
			}
			mimeType, data, ok := model.ParseDataURI(part.ImageURL.URL)
			if !ok {
				config.Logf("[Provider] anthropic: skipping non data URI image")
				continue
			}
			blocks = append(blocks, anthropic.NewImageBlockBase64(mimeType, data))
		}
	}
	return blocks
}

// ConvertToGeminiContents converts promptsmith messages to genai contents.
//
// Gemini names the assistant role "model" and takes system messages as a
// separate system instruction, which is returned as the second value (nil
// when there are none). Images travel as inline blobs; remote URLs are
// dropped.
func ConvertToGeminiContents(messages []model.Message) ([]*genai.Content, *genai.Content) {
	var system *genai.Content
	contents := make([]*genai.Content, 0, len(messages))

	for _, msg := range messages {
		if msg.Role == model.RoleSystem {
			text := msg.Text()
			if text == "" {
				continue
			}
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, genai.NewPartFromText(text))
			continue
		}

		role := string(genai.RoleUser)
		if msg.Role == model.RoleAssistant {
			role = string(genai.RoleModel)
		}

		parts := geminiParts(msg)
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	return contents, system
}

func geminiParts(msg model.Message) []*genai.Part {
	if !msg.IsMultipart() {
		if msg.Content == "" {
			return nil
		}
		return []*genai.Part{genai.NewPartFromText(msg.Content)}
	}

	parts := make([]*genai.Part, 0, len(msg.Parts))
	for _, part := range msg.Parts {
		switch part.Type {
		case model.PartText:
			if part.Text != "" {
				parts = append(parts, genai.NewPartFromText(part.Text))
			}
		case model.PartImageURL:
			if part.ImageURL == nil {
				continue
			}
			mimeType, data, ok := model.ParseDataURI(part.ImageURL.URL)
			if !ok {
				config.Logf("[Provider] gemini: skipping non data URI image")
				continue
			}
			raw, err := base64.StdEncoding.DecodeString(data)
			if err != nil {
				config.Logf("[Provider] gemini: skipping undecodable image: %v", err)
				continue
			}
			parts = append(parts, genai.NewPartFromBytes(raw, mimeType))
		}
	}
	return parts
}

// ConvertToOllamaMessages converts promptsmith messages to Ollama api.Message.
//
// Ollama takes text as a single content string and images as raw bytes, so
// multipart messages are split: text parts are joined, data URI images are
// decoded into api.ImageData. Images that fail to decode are skipped.
//
// Example:
//
//	msgs := []model.Message{
//	    {Role: model.RoleUser, Content: "Hello"},
//	    {Role: model.RoleAssistant, Content: "Hi there!"},
//	}
//	ollamaMessages := ConvertToOllamaMessages(msgs)
func ConvertToOllamaMessages(messages []model.Message) []api.Message {
	result := make([]api.Message, len(messages))
	for i, msg := range messages {
		result[i] = api.Message{
			Role:    string(msg.Role),
			Content: msg.Text(),
		}

		for _, url := range msg.Images() {
			_, data, ok := model.ParseDataURI(url)
			if !ok {
				config.Logf("[Provider] ollama: skipping non data URI image")
				continue
			}
			raw, err := base64.StdEncoding.DecodeString(data)
			if err != nil {
				config.Logf("[Provider] ollama: skipping undecodable image: %v", err)
				continue
			}
			result[i].Images = append(result[i].Images, api.ImageData(raw))
		}
	}
	return result
}

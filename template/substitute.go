package template

import (
	"regexp"
	"strings"

	"promptsmith/model"
)

const (
	// ImageMarker is replaced by ImageLeadIn in the first user message that
	// contains it; the image itself follows as a separate content part.
	ImageMarker = "[图像]"
	ImageLeadIn = "请从以下图像中提取提示词："

	InstructionsPlaceholder = "{{instructions}}"
	NoInstructions          = "（无额外指令）"
	InstructionsSuffix      = "\n用户额外指令："
)

var promptPlaceholder = regexp.MustCompile(`{{\s*(originalPrompt|prompt)\s*}}`)

// SubstitutePrompt replaces every {{prompt}} and {{originalPrompt}} token.
func SubstitutePrompt(content, text string) string {
	return promptPlaceholder.ReplaceAllLiteralString(content, text)
}

// BuildPromptMessages renders every template message with text substituted.
func BuildPromptMessages(t *Template, text string) []model.Message {
	messages := make([]model.Message, 0, len(t.Content))
	for _, msg := range t.Content {
		messages = append(messages, model.NewMessage(msg.Role, SubstitutePrompt(msg.Content, text)))
	}
	return messages
}

// BuildImageMessages renders an image template. The first user message
// carrying ImageMarker becomes multipart (text then image); every other
// message passes through unchanged.
func BuildImageMessages(t *Template, imageURL, instructions string) []model.Message {
	instructions = strings.TrimSpace(instructions)

	messages := make([]model.Message, 0, len(t.Content))
	placed := false
	for _, msg := range t.Content {
		if placed || msg.Role != model.RoleUser || !strings.Contains(msg.Content, ImageMarker) {
			messages = append(messages, model.NewMessage(msg.Role, msg.Content))
			continue
		}
		placed = true

		text := strings.Replace(msg.Content, ImageMarker, ImageLeadIn, 1)
		switch {
		case strings.Contains(text, InstructionsPlaceholder):
			fill := instructions
			if fill == "" {
				fill = NoInstructions
			}
			text = strings.Replace(text, InstructionsPlaceholder, fill, 1)
		case instructions != "":
			text += InstructionsSuffix + instructions
		}

		messages = append(messages, model.NewMultipartMessage(msg.Role,
			model.TextPart(text),
			model.ImagePart(imageURL),
		))
	}
	return messages
}

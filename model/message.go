package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PartType tags a piece of multimodal message content.
type PartType string

const (
	PartText     PartType = "text"
	PartImageURL PartType = "image_url"
)

// ImageURL points at an image, either a remote URL or a data URI.
type ImageURL struct {
	URL string `json:"url"`
}

// ContentPart is one element of a multipart message. Unknown part types are
// carried through unchanged and ignored by adapters.
type ContentPart struct {
	Type     PartType  `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// TextPart builds a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: PartText, Text: text}
}

// ImagePart builds an image_url content part.
func ImagePart(url string) ContentPart {
	return ContentPart{Type: PartImageURL, ImageURL: &ImageURL{URL: url}}
}

// Message is a chat message whose content is either plain text (Content) or
// an ordered list of typed parts (Parts). When Parts is non-empty it takes
// precedence over Content.
type Message struct {
	Role    Role
	Content string
	Parts   []ContentPart
}

// NewMessage creates a plain-text message.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// NewMultipartMessage creates a message made of typed parts.
func NewMultipartMessage(role Role, parts ...ContentPart) Message {
	return Message{Role: role, Parts: parts}
}

// IsMultipart reports whether the message carries typed parts.
func (m Message) IsMultipart() bool {
	return len(m.Parts) > 0
}

// Text returns the textual content of the message. For multipart messages
// the text parts are joined with newlines and image parts are skipped.
func (m Message) Text() string {
	if !m.IsMultipart() {
		return m.Content
	}
	var texts []string
	for _, part := range m.Parts {
		if part.Type == PartText && part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// Images returns the URLs of all image parts in order.
func (m Message) Images() []string {
	var urls []string
	for _, part := range m.Parts {
		if part.Type == PartImageURL && part.ImageURL != nil && part.ImageURL.URL != "" {
			urls = append(urls, part.ImageURL.URL)
		}
	}
	return urls
}

type wireMessage struct {
	Role    Role            `json:"role"`
	Content json.RawMessage `json:"content"`
}

// MarshalJSON encodes content as a string or as an array of parts, matching
// the usual chat-completion wire shape.
func (m Message) MarshalJSON() ([]byte, error) {
	var content []byte
	var err error
	if m.IsMultipart() {
		content, err = json.Marshal(m.Parts)
	} else {
		content, err = json.Marshal(m.Content)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireMessage{Role: m.Role, Content: content})
}

// UnmarshalJSON accepts either content shape.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	m.Role = w.Role
	m.Content = ""
	m.Parts = nil

	trimmed := strings.TrimSpace(string(w.Content))
	switch {
	case trimmed == "" || trimmed == "null":
		return nil
	case strings.HasPrefix(trimmed, "["):
		if err := json.Unmarshal(w.Content, &m.Parts); err != nil {
			return fmt.Errorf("invalid message parts: %w", err)
		}
	default:
		if err := json.Unmarshal(w.Content, &m.Content); err != nil {
			return fmt.Errorf("invalid message content: %w", err)
		}
	}
	return nil
}

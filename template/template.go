// Package template holds the message templates that turn a user prompt or
// image into an LLM request. Built-in templates ship embedded as YAML; user
// templates live in the key-value store.
package template

import (
	"fmt"

	"promptsmith/model"
)

// Type classifies what a template is for.
type Type string

const (
	TypeOptimize     Type = "optimize"
	TypeText2Image   Type = "text2image"
	TypeImage2Image  Type = "image2image"
	TypeImage2Prompt Type = "image2prompt"
)

func (t Type) valid() bool {
	switch t {
	case TypeOptimize, TypeText2Image, TypeImage2Image, TypeImage2Prompt:
		return true
	}
	return false
}

// MessageTemplate is one message of a template before substitution.
type MessageTemplate struct {
	Role    model.Role `json:"role" yaml:"role"`
	Content string     `json:"content" yaml:"content"`
}

type Metadata struct {
	Version string `json:"version" yaml:"version"`
	// LastModified is in unix milliseconds.
	LastModified int64  `json:"lastModified" yaml:"lastModified"`
	TemplateType Type   `json:"templateType" yaml:"templateType"`
	Language     string `json:"language" yaml:"language"`
}

type Template struct {
	ID       string            `json:"id" yaml:"id"`
	Name     string            `json:"name" yaml:"name"`
	Content  []MessageTemplate `json:"content" yaml:"content"`
	Metadata Metadata          `json:"metadata" yaml:"metadata"`

	// Builtin is set on templates served from the embedded set. It is never
	// persisted.
	Builtin bool `json:"isBuiltin,omitempty" yaml:"-"`
}

func (t *Template) validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidTemplate)
	}
	if len(t.Content) == 0 {
		return fmt.Errorf("%w: %s has no messages", ErrInvalidTemplate, t.ID)
	}
	for i, msg := range t.Content {
		switch msg.Role {
		case model.RoleSystem, model.RoleUser, model.RoleAssistant:
		default:
			return fmt.Errorf("%w: %s message %d has role %q", ErrInvalidTemplate, t.ID, i, msg.Role)
		}
	}
	if t.Metadata.TemplateType != "" && !t.Metadata.TemplateType.valid() {
		return fmt.Errorf("%w: %s has unknown type %q", ErrInvalidTemplate, t.ID, t.Metadata.TemplateType)
	}
	return nil
}

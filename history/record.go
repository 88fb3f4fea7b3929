// Package history keeps the most recent optimization results as one
// newest-first list in the key-value store.
package history

import (
	"fmt"
	"strings"

	"promptsmith/image"
)

type RecordType string

const (
	TypePromptOptimize RecordType = "prompt-optimize"
	TypeImageToPrompt  RecordType = "image-to-prompt"
)

// Record is a tagged union discriminated by Type. Fields of the other variant
// stay empty.
type Record struct {
	ID   string     `json:"id"`
	Type RecordType `json:"type"`
	// Timestamp is in unix milliseconds.
	Timestamp int64  `json:"timestamp"`
	ModelKey  string `json:"modelKey"`
	ModelName string `json:"modelName,omitempty"`

	// prompt-optimize
	OriginalPrompt  string `json:"originalPrompt,omitempty"`
	OptimizedPrompt string `json:"optimizedPrompt,omitempty"`
	Style           string `json:"style,omitempty"`

	// image-to-prompt
	ImageURL    string            `json:"imageUrl,omitempty"`
	Prompt      string            `json:"prompt,omitempty"`
	Resolution  *image.Resolution `json:"resolution,omitempty"`
	AspectRatio string            `json:"aspectRatio,omitempty"`
}

// NewPromptRecord builds a prompt-optimize record.
func NewPromptRecord(original, optimized, modelKey, modelName, style string) Record {
	return Record{
		Type:            TypePromptOptimize,
		ModelKey:        modelKey,
		ModelName:       modelName,
		OriginalPrompt:  original,
		OptimizedPrompt: optimized,
		Style:           style,
	}
}

// NewImageRecord builds an image-to-prompt record. Resolution and aspect ratio
// are filled in when imageURL is a decodable data URI.
func NewImageRecord(imageURL, prompt, modelKey, modelName string) Record {
	rec := Record{
		Type:      TypeImageToPrompt,
		ModelKey:  modelKey,
		ModelName: modelName,
		ImageURL:  imageURL,
		Prompt:    prompt,
	}
	if desc, err := image.DescribeImage(imageURL); err == nil {
		rec.Resolution = &desc.Resolution
		rec.AspectRatio = desc.AspectRatio
	}
	return rec
}

func (r Record) validate() error {
	switch r.Type {
	case TypePromptOptimize:
		if r.OriginalPrompt == "" {
			return fmt.Errorf("%w: prompt record without original prompt", ErrInvalidRecord)
		}
	case TypeImageToPrompt:
		if r.ImageURL == "" {
			return fmt.Errorf("%w: image record without image", ErrInvalidRecord)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidRecord, r.Type)
	}
	return nil
}

// Input is the text the user submitted; for image records the image itself.
func (r Record) Input() string {
	if r.Type == TypeImageToPrompt {
		return r.ImageURL
	}
	return r.OriginalPrompt
}

// Output is the prompt the model produced.
func (r Record) Output() string {
	if r.Type == TypeImageToPrompt {
		return r.Prompt
	}
	return r.OptimizedPrompt
}

// searchText is what fuzzy search matches against. Image payloads are left
// out.
func (r Record) searchText() string {
	parts := []string{r.Output(), r.ModelKey, r.ModelName, r.Style}
	if r.Type == TypePromptOptimize {
		parts = append(parts, r.OriginalPrompt)
	}
	return strings.Join(parts, " ")
}

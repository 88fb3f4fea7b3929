// Package image extracts text-to-image prompts from pictures with a
// vision-capable model, and prepares images for history storage.
package image

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"promptsmith/config"
	"promptsmith/llm"
	"promptsmith/model"
	"promptsmith/template"
)

var (
	ErrEmptyImage        = errors.New("image is empty")
	ErrVisionUnsupported = errors.New("model does not support vision")
)

type Request struct {
	// ImageURL is a data URI or a remote URL.
	ImageURL     string `json:"imageUrl"`
	ModelKey     string `json:"modelKey"`
	TemplateID   string `json:"templateId,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

type Response struct {
	Prompt   string `json:"prompt"`
	ImageURL string `json:"imageUrl"`
}

// Templates is the slice of the template manager the service needs.
type Templates interface {
	GetTemplate(ctx context.Context, id string) (*template.Template, error)
}

type Service struct {
	llm             *llm.Service
	models          llm.ModelSource
	templates       Templates
	defaultTemplate string
}

// NewService builds the service. defaultTemplate is used when a request names
// none; empty means image2prompt-general.
func NewService(llmService *llm.Service, models llm.ModelSource, templates Templates, defaultTemplate string) *Service {
	if defaultTemplate == "" {
		defaultTemplate = template.IDImage2PromptGeneral
	}
	return &Service{
		llm:             llmService,
		models:          models,
		templates:       templates,
		defaultTemplate: defaultTemplate,
	}
}

// prepare runs every check that must pass before a network call.
func (s *Service) prepare(ctx context.Context, req Request) ([]model.Message, error) {
	if strings.TrimSpace(req.ImageURL) == "" {
		return nil, ErrEmptyImage
	}
	if strings.TrimSpace(req.ModelKey) == "" {
		return nil, llm.ErrEmptyModelKey
	}

	cfg, err := s.models.GetModel(ctx, req.ModelKey)
	if err != nil {
		return nil, err
	}
	if !cfg.Model.Capabilities.SupportsVision {
		return nil, fmt.Errorf("%w: %s", ErrVisionUnsupported, req.ModelKey)
	}

	templateID := req.TemplateID
	if templateID == "" {
		templateID = s.defaultTemplate
	}
	tpl, err := s.templates.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}

	config.Logf("[Image] Extracting prompt with template=%s model=%s", templateID, req.ModelKey)
	return template.BuildImageMessages(tpl, req.ImageURL, req.Instructions), nil
}

// ImageToPrompt returns the trimmed prompt the model extracted.
func (s *Service) ImageToPrompt(ctx context.Context, req Request) (*Response, error) {
	messages, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	out, err := s.llm.SendMessage(ctx, messages, req.ModelKey)
	if err != nil {
		return nil, err
	}

	return &Response{Prompt: strings.TrimSpace(out), ImageURL: req.ImageURL}, nil
}

// ImageToPromptStream resolves like ImageToPrompt and forwards handlers
// unchanged.
func (s *Service) ImageToPromptStream(ctx context.Context, req Request, handlers model.StreamHandlers) error {
	messages, err := s.prepare(ctx, req)
	if err != nil {
		return err
	}
	return s.llm.SendMessageStream(ctx, messages, req.ModelKey, handlers)
}

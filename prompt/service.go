// Package prompt optimizes text-to-image prompts through a template and an
// LLM.
package prompt

import (
	"context"
	"errors"
	"strings"

	"promptsmith/config"
	"promptsmith/llm"
	"promptsmith/model"
	"promptsmith/template"
)

var ErrEmptyPrompt = errors.New("target prompt is empty")

// Style picks a default template when no template id is given.
type Style string

const (
	StyleGeneral           Style = "general"
	StyleCreative          Style = "creative"
	StylePhotography       Style = "photography"
	StyleDesign            Style = "design"
	StyleChineseAesthetics Style = "chinese-aesthetics"
)

var styleTemplates = map[Style]string{
	StyleGeneral:           template.IDGeneralOptimize,
	StyleCreative:          template.IDCreativeOptimize,
	StylePhotography:       template.IDPhotographyOptimize,
	StyleDesign:            template.IDGeneralOptimize,
	StyleChineseAesthetics: template.IDChineseOptimize,
}

// Styles lists the known styles in display order.
func Styles() []Style {
	return []Style{StyleGeneral, StyleCreative, StylePhotography, StyleDesign, StyleChineseAesthetics}
}

// TemplateForStyle maps a style to its default template id. Unknown styles
// use the general template.
func TemplateForStyle(s Style) string {
	if id, ok := styleTemplates[s]; ok {
		return id
	}
	return styleTemplates[StyleGeneral]
}

type Request struct {
	TargetPrompt string `json:"targetPrompt"`
	ModelKey     string `json:"modelKey"`
	TemplateID   string `json:"templateId,omitempty"`
	Style        Style  `json:"style,omitempty"`
}

type Response struct {
	OptimizedPrompt string `json:"optimizedPrompt"`
	OriginalPrompt  string `json:"originalPrompt"`
	Style           Style  `json:"style"`
	TemplateID      string `json:"templateId"`
}

// Templates is the slice of the template manager the service needs.
type Templates interface {
	GetTemplate(ctx context.Context, id string) (*template.Template, error)
}

type Service struct {
	llm       *llm.Service
	models    llm.ModelSource
	templates Templates
}

func NewService(llmService *llm.Service, models llm.ModelSource, templates Templates) *Service {
	return &Service{llm: llmService, models: models, templates: templates}
}

// prepare validates the request and renders the template messages.
func (s *Service) prepare(ctx context.Context, req Request) ([]model.Message, string, error) {
	if strings.TrimSpace(req.TargetPrompt) == "" {
		return nil, "", ErrEmptyPrompt
	}
	if strings.TrimSpace(req.ModelKey) == "" {
		return nil, "", llm.ErrEmptyModelKey
	}
	if _, err := s.models.GetModel(ctx, req.ModelKey); err != nil {
		return nil, "", err
	}

	templateID := req.TemplateID
	if templateID == "" {
		templateID = TemplateForStyle(req.Style)
	}
	tpl, err := s.templates.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, "", err
	}

	config.Logf("[Prompt] Optimizing with template=%s model=%s", templateID, req.ModelKey)
	return template.BuildPromptMessages(tpl, req.TargetPrompt), templateID, nil
}

// Optimize returns the trimmed LLM output for the rendered template.
func (s *Service) Optimize(ctx context.Context, req Request) (*Response, error) {
	messages, templateID, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	out, err := s.llm.SendMessage(ctx, messages, req.ModelKey)
	if err != nil {
		return nil, err
	}

	style := req.Style
	if style == "" {
		style = StyleGeneral
	}
	return &Response{
		OptimizedPrompt: strings.TrimSpace(out),
		OriginalPrompt:  req.TargetPrompt,
		Style:           style,
		TemplateID:      templateID,
	}, nil
}

// OptimizeStream resolves like Optimize and forwards handlers unchanged.
func (s *Service) OptimizeStream(ctx context.Context, req Request, handlers model.StreamHandlers) error {
	messages, _, err := s.prepare(ctx, req)
	if err != nil {
		return err
	}
	return s.llm.SendMessageStream(ctx, messages, req.ModelKey, handlers)
}

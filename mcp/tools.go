package mcp

import (
	"context"
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"promptsmith/image"
	"promptsmith/model"
	"promptsmith/prompt"
	"promptsmith/template"
)

const (
	ToolOptimizePrompt = "optimize_prompt"
	ToolImageToPrompt  = "image_to_prompt"
	ToolListModels     = "list_models"
	ToolListTemplates  = "list_templates"
)

var toolNames = []string{ToolOptimizePrompt, ToolImageToPrompt, ToolListModels, ToolListTemplates}

func styleNames() []string {
	styles := prompt.Styles()
	names := make([]string, len(styles))
	for i, s := range styles {
		names[i] = string(s)
	}
	return names
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcptypes.NewTool(ToolOptimizePrompt,
		mcptypes.WithDescription("Rewrite a text-to-image prompt with an LLM using a style or template."),
		mcptypes.WithString("prompt", mcptypes.Required(), mcptypes.Description("The idea or prompt to optimize")),
		mcptypes.WithString("model", mcptypes.Description("Model key, e.g. openai-gpt-4o. Defaults to the configured model.")),
		mcptypes.WithString("style", mcptypes.Enum(styleNames()...), mcptypes.Description("Optimization style")),
		mcptypes.WithString("template", mcptypes.Description("Template id; overrides style")),
	), s.handleOptimizePrompt)

	s.mcp.AddTool(mcptypes.NewTool(ToolImageToPrompt,
		mcptypes.WithDescription("Extract a text-to-image prompt from an image with a vision model."),
		mcptypes.WithString("image_url", mcptypes.Required(), mcptypes.Description("Data URI or http(s) URL of the image")),
		mcptypes.WithString("model", mcptypes.Description("Vision-capable model key")),
		mcptypes.WithString("instructions", mcptypes.Description("Extra instructions for the extraction")),
		mcptypes.WithString("template", mcptypes.Description("Template id")),
	), s.handleImageToPrompt)

	s.mcp.AddTool(mcptypes.NewTool(ToolListModels,
		mcptypes.WithDescription("List the enabled model configurations."),
		mcptypes.WithReadOnlyHintAnnotation(true),
	), s.handleListModels)

	s.mcp.AddTool(mcptypes.NewTool(ToolListTemplates,
		mcptypes.WithDescription("List prompt templates, optionally of one type."),
		mcptypes.WithString("type", mcptypes.Enum(
			string(template.TypeOptimize),
			string(template.TypeText2Image),
			string(template.TypeImage2Image),
			string(template.TypeImage2Prompt),
		)),
		mcptypes.WithReadOnlyHintAnnotation(true),
	), s.handleListTemplates)
}

func (s *Server) handleOptimizePrompt(ctx context.Context, req mcptypes.CallToolRequest) (*mcptypes.CallToolResult, error) {
	text, err := req.RequireString("prompt")
	if err != nil {
		return mcptypes.NewToolResultError(err.Error()), nil
	}

	resp, err := s.app.Optimize(ctx, prompt.Request{
		TargetPrompt: text,
		ModelKey:     req.GetString("model", ""),
		Style:        prompt.Style(req.GetString("style", "")),
		TemplateID:   req.GetString("template", ""),
	})
	if err != nil {
		return mcptypes.NewToolResultErrorFromErr("optimization failed", err), nil
	}
	return mcptypes.NewToolResultStructured(resp, resp.OptimizedPrompt), nil
}

func (s *Server) handleImageToPrompt(ctx context.Context, req mcptypes.CallToolRequest) (*mcptypes.CallToolResult, error) {
	imageURL, err := req.RequireString("image_url")
	if err != nil {
		return mcptypes.NewToolResultError(err.Error()), nil
	}

	resp, err := s.app.ImageToPrompt(ctx, image.Request{
		ImageURL:     imageURL,
		ModelKey:     req.GetString("model", ""),
		Instructions: req.GetString("instructions", ""),
		TemplateID:   req.GetString("template", ""),
	})
	if err != nil {
		return mcptypes.NewToolResultErrorFromErr("image to prompt failed", err), nil
	}
	return mcptypes.NewToolResultText(resp.Prompt), nil
}

type modelSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Vision   bool   `json:"vision"`
}

func summarize(cfg model.ModelConfig) modelSummary {
	return modelSummary{
		ID:       cfg.ID,
		Name:     cfg.Name,
		Provider: cfg.Provider.ID,
		Vision:   cfg.Model.Capabilities.SupportsVision,
	}
}

func (s *Server) handleListModels(ctx context.Context, req mcptypes.CallToolRequest) (*mcptypes.CallToolResult, error) {
	configs, err := s.app.Models.EnabledModels(ctx)
	if err != nil {
		return mcptypes.NewToolResultErrorFromErr("failed to list models", err), nil
	}

	summaries := make([]modelSummary, len(configs))
	lines := make([]string, len(configs))
	for i, cfg := range configs {
		summaries[i] = summarize(cfg)
		lines[i] = cfg.ID + "\t" + cfg.Name
	}
	return mcptypes.NewToolResultStructured(map[string]any{"models": summaries}, strings.Join(lines, "\n")), nil
}

type templateSummary struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Type    template.Type `json:"type"`
	Builtin bool          `json:"builtin"`
}

func (s *Server) handleListTemplates(ctx context.Context, req mcptypes.CallToolRequest) (*mcptypes.CallToolResult, error) {
	var (
		list []template.Template
		err  error
	)
	if typ := req.GetString("type", ""); typ != "" {
		list, err = s.app.Templates.ListTemplatesByType(ctx, template.Type(typ))
	} else {
		list, err = s.app.Templates.ListTemplates(ctx)
	}
	if err != nil {
		return mcptypes.NewToolResultErrorFromErr("failed to list templates", err), nil
	}

	summaries := make([]templateSummary, len(list))
	lines := make([]string, len(list))
	for i, t := range list {
		summaries[i] = templateSummary{ID: t.ID, Name: t.Name, Type: t.Metadata.TemplateType, Builtin: t.Builtin}
		lines[i] = t.ID + "\t" + t.Name
	}
	return mcptypes.NewToolResultStructured(map[string]any{"templates": summaries}, strings.Join(lines, "\n")), nil
}

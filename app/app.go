// Package app wires the storage backend, the adapter registry and the
// services into one container shared by the CLI, TUI, HTTP and MCP surfaces.
package app

import (
	"context"
	"fmt"
	"strings"

	"promptsmith/config"
	"promptsmith/history"
	"promptsmith/image"
	"promptsmith/llm"
	"promptsmith/model"
	"promptsmith/modelconfig"
	"promptsmith/prompt"
	"promptsmith/provider"
	"promptsmith/storage"
	"promptsmith/template"
)

type App struct {
	Config    *config.Config
	Store     storage.Provider
	Registry  *provider.Registry
	Models    *modelconfig.Manager
	LLM       *llm.Service
	Templates *template.Manager
	Prompt    *prompt.Service
	Image     *image.Service
	History   *history.Manager
}

// New loads credentials, opens the configured backend and seeds the
// [[models]] entries from config.toml.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg.CredentialStore != nil {
		if err := cfg.CredentialStore.Load(cfg.DataDir()); err != nil {
			return nil, fmt.Errorf("failed to load credentials: %w", err)
		}
	}

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}

	a, err := Assemble(cfg, store, provider.NewDefaultRegistry())
	if err != nil {
		_ = storage.Close(store)
		return nil, err
	}

	seeded, err := a.Models.SeedFromConfig(ctx, a.Registry, cfg.Models, cfg.CredentialStore)
	if err != nil {
		_ = storage.Close(store)
		return nil, fmt.Errorf("failed to seed models: %w", err)
	}
	if len(seeded) > 0 {
		config.Logf("[App] Seeded model configurations: %s", strings.Join(seeded, ", "))
	}

	return a, nil
}

// Assemble builds the services on top of an already opened store and
// registry.
func Assemble(cfg *config.Config, store storage.Provider, reg *provider.Registry) (*App, error) {
	templates, err := template.NewManager(store)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	models := modelconfig.NewManager(store)
	llmService := llm.NewService(models, reg)

	return &App{
		Config:    cfg,
		Store:     store,
		Registry:  reg,
		Models:    models,
		LLM:       llmService,
		Templates: templates,
		Prompt:    prompt.NewService(llmService, models, templates),
		Image:     image.NewService(llmService, models, templates, cfg.Defaults.ImageTemplate),
		History:   history.NewManager(store),
	}, nil
}

func (a *App) Close() error {
	return storage.Close(a.Store)
}

// DefaultModel returns the model key used when a request names none.
func (a *App) DefaultModel() string {
	return a.Config.Defaults.Model
}

func (a *App) modelName(ctx context.Context, key string) string {
	cfg, err := a.Models.GetModel(ctx, key)
	if err != nil {
		return ""
	}
	return cfg.Name
}

func (a *App) withDefaults(req prompt.Request) prompt.Request {
	if req.ModelKey == "" {
		req.ModelKey = a.DefaultModel()
	}
	if req.Style == "" && req.TemplateID == "" {
		req.Style = prompt.Style(a.Config.Defaults.Style)
	}
	return req
}

// Optimize runs the prompt service and records the result in history.
func (a *App) Optimize(ctx context.Context, req prompt.Request) (*prompt.Response, error) {
	req = a.withDefaults(req)
	resp, err := a.Prompt.Optimize(ctx, req)
	if err != nil {
		return nil, err
	}
	a.recordPrompt(ctx, req, resp.OptimizedPrompt, resp.Style)
	return resp, nil
}

// OptimizeStream streams through handlers and records the completed text.
func (a *App) OptimizeStream(ctx context.Context, req prompt.Request, handlers model.StreamHandlers) error {
	req = a.withDefaults(req)
	onComplete := handlers.OnComplete
	handlers.OnComplete = func(content string) {
		style := req.Style
		if style == "" {
			style = prompt.StyleGeneral
		}
		a.recordPrompt(ctx, req, strings.TrimSpace(content), style)
		if onComplete != nil {
			onComplete(content)
		}
	}
	return a.Prompt.OptimizeStream(ctx, req, handlers)
}

func (a *App) recordPrompt(ctx context.Context, req prompt.Request, optimized string, style prompt.Style) {
	rec := history.NewPromptRecord(req.TargetPrompt, optimized, req.ModelKey, a.modelName(ctx, req.ModelKey), string(style))
	if _, err := a.History.Add(ctx, rec); err != nil {
		config.Logf("[App] Prompt result not recorded: %v", err)
	}
}

// ImageToPrompt runs the image service and records the result in history.
func (a *App) ImageToPrompt(ctx context.Context, req image.Request) (*image.Response, error) {
	if req.ModelKey == "" {
		req.ModelKey = a.DefaultModel()
	}
	resp, err := a.Image.ImageToPrompt(ctx, req)
	if err != nil {
		return nil, err
	}
	a.recordImage(ctx, req, resp.Prompt)
	return resp, nil
}

func (a *App) ImageToPromptStream(ctx context.Context, req image.Request, handlers model.StreamHandlers) error {
	if req.ModelKey == "" {
		req.ModelKey = a.DefaultModel()
	}
	onComplete := handlers.OnComplete
	handlers.OnComplete = func(content string) {
		a.recordImage(ctx, req, strings.TrimSpace(content))
		if onComplete != nil {
			onComplete(content)
		}
	}
	return a.Image.ImageToPromptStream(ctx, req, handlers)
}

func (a *App) recordImage(ctx context.Context, req image.Request, extracted string) {
	rec := history.NewImageRecord(req.ImageURL, extracted, req.ModelKey, a.modelName(ctx, req.ModelKey))
	if _, err := a.History.Add(ctx, rec); err != nil {
		config.Logf("[App] Image result not recorded: %v", err)
	}
}

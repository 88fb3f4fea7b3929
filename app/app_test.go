package app_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"promptsmith/app"
	"promptsmith/app/apptest"
	"promptsmith/config"
	"promptsmith/history"
	"promptsmith/image"
	"promptsmith/model"
	"promptsmith/prompt"
	"promptsmith/provider/testutil"
)

func TestOptimizeRecordsHistory(t *testing.T) {
	a, _ := apptest.New(t)
	ctx := context.Background()

	resp, err := a.Optimize(ctx, prompt.Request{TargetPrompt: "a cat in rain"})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if !strings.HasSuffix(resp.OptimizedPrompt, "a cat in rain") {
		t.Errorf("OptimizedPrompt = %q", resp.OptimizedPrompt)
	}

	records, _ := a.History.List(ctx, history.TypePromptOptimize)
	if len(records) != 1 {
		t.Fatalf("history has %d records", len(records))
	}
	rec := records[0]
	if rec.ModelKey != apptest.VisionModel || rec.ModelName != "GPT-4o" || rec.Style != "general" {
		t.Errorf("record = %+v", rec)
	}
}

func TestOptimizeFailureRecordsNothing(t *testing.T) {
	a, mock := apptest.New(t)
	ctx := context.Background()
	mock.SendMessageFunc = func(ctx context.Context, messages []model.Message, cfg *model.ModelConfig) (*model.LLMResponse, error) {
		return nil, errors.New("vendor down")
	}

	if _, err := a.Optimize(ctx, prompt.Request{TargetPrompt: "x"}); err == nil {
		t.Fatal("expected error")
	}
	if records, _ := a.History.List(ctx, ""); len(records) != 0 {
		t.Errorf("history has %d records", len(records))
	}
}

func TestOptimizeStreamRecordsOnComplete(t *testing.T) {
	a, _ := apptest.New(t)
	ctx := context.Background()

	var completed string
	err := a.OptimizeStream(ctx, prompt.Request{TargetPrompt: "neon city", Style: prompt.StyleCreative},
		model.StreamHandlers{OnComplete: func(s string) { completed = s }})
	if err != nil {
		t.Fatal(err)
	}
	if completed == "" {
		t.Fatal("OnComplete was not forwarded")
	}

	records, _ := a.History.List(ctx, "")
	if len(records) != 1 || records[0].Style != "creative" {
		t.Errorf("records = %+v", records)
	}
}

func TestImageToPromptRecordsHistory(t *testing.T) {
	a, _ := apptest.New(t)
	ctx := context.Background()

	if _, err := a.ImageToPrompt(ctx, image.Request{ImageURL: testutil.TinyPNGDataURI}); err != nil {
		t.Fatal(err)
	}
	records, _ := a.History.List(ctx, history.TypeImageToPrompt)
	if len(records) != 1 || records[0].AspectRatio != "1:1" {
		t.Errorf("records = %+v", records)
	}

	_, err := a.ImageToPrompt(ctx, image.Request{ImageURL: testutil.TinyPNGDataURI, ModelKey: apptest.TextModel})
	if !errors.Is(err, image.ErrVisionUnsupported) {
		t.Errorf("err = %v", err)
	}
}

func TestNewSeedsModelsFromConfig(t *testing.T) {
	dir := t.TempDir()
	creds := config.NewCredentialStore(config.SecurityPlainText, "")
	if err := creds.Load(dir); err != nil {
		t.Fatal(err)
	}
	creds.Set("deepseek", "sk-test")
	if err := creds.Save(dir); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		DataDirectory:   dir,
		Storage:         config.StorageConfig{Backend: "sqlite", Path: filepath.Join(dir, "kv.db")},
		Models:          []config.ModelEntry{{Provider: "deepseek", Model: "deepseek-chat"}},
		CredentialStore: config.NewCredentialStore(config.SecurityPlainText, ""),
	}

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	got, err := a.Models.GetModel(context.Background(), "deepseek-deepseek-chat")
	if err != nil {
		t.Fatal(err)
	}
	if got.Connection.APIKey != "sk-test" {
		t.Errorf("API key not merged: %+v", got.Connection)
	}
	if _, err := os.Stat(filepath.Join(dir, "kv.db")); err != nil {
		t.Errorf("sqlite database not created: %v", err)
	}
}

func TestNewUnknownBackend(t *testing.T) {
	cfg := &config.Config{
		DataDirectory: t.TempDir(),
		Storage:       config.StorageConfig{Backend: "etcd"},
	}
	if _, err := app.New(context.Background(), cfg); err == nil {
		t.Error("expected error for unknown backend")
	}
}

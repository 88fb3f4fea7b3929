// Package apptest builds an app.App over an in-memory store with a mock
// adapter registered as the openai provider.
package apptest

import (
	"context"
	"testing"

	"promptsmith/app"
	"promptsmith/config"
	"promptsmith/model"
	"promptsmith/provider"
	"promptsmith/provider/testutil"
	"promptsmith/storage"
)

const (
	// TextModel has no vision support.
	TextModel = "openai-gpt-3.5-turbo"
	// VisionModel supports images and is the default model.
	VisionModel = "openai-gpt-4o"
)

// New returns a container whose openai adapter is a mock. Two model
// configurations are saved: TextModel and VisionModel.
func New(t *testing.T) (*app.App, *testutil.MockAdapter) {
	t.Helper()

	cfg := &config.Config{
		DataDirectory:   t.TempDir(),
		Storage:         config.StorageConfig{Backend: "memory"},
		Defaults:        config.DefaultsConfig{Model: VisionModel, Style: "general"},
		CredentialStore: config.NewCredentialStore(config.SecurityPlainText, ""),
	}

	mock := testutil.NewMockAdapter(provider.IDOpenAI)
	reg := provider.NewRegistry()
	reg.Register(mock)

	a, err := app.Assemble(cfg, storage.NewMemoryStore(0), reg)
	if err != nil {
		t.Fatal(err)
	}

	text := testutil.TestModelConfig(provider.IDOpenAI, "gpt-3.5-turbo", "")
	text.Name = "GPT-3.5 Turbo"
	vision := testutil.TestModelConfig(provider.IDOpenAI, "gpt-4o", "")
	vision.Name = "GPT-4o"
	vision.Model.Capabilities.SupportsVision = true
	for _, c := range []*model.ModelConfig{text, vision} {
		if err := a.Models.SaveModel(context.Background(), *c); err != nil {
			t.Fatal(err)
		}
	}

	return a, mock
}

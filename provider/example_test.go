package provider_test

import (
	"context"
	"fmt"
	"log"

	"promptsmith/model"
	"promptsmith/provider"
)

// ExampleNewDefaultRegistry lists the built-in providers.
func ExampleNewDefaultRegistry() {
	reg := provider.NewDefaultRegistry()

	for _, p := range reg.Providers() {
		fmt.Printf("%s requires key: %v\n", p.ID, p.RequiresAPIKey)
	}
	// Output:
	// anthropic requires key: true
	// deepseek requires key: true
	// gemini requires key: true
	// ollama requires key: false
	// openai requires key: true
	// openrouter requires key: true
	// siliconflow requires key: true
	// zhipu requires key: true
}

// ExampleGuessVisionSupport shows the per-vendor vision heuristic.
func ExampleGuessVisionSupport() {
	fmt.Println(provider.GuessVisionSupport(provider.IDOllama, "llava:13b"))
	fmt.Println(provider.GuessVisionSupport(provider.IDDeepSeek, "deepseek-chat"))
	fmt.Println(provider.GuessVisionSupport(provider.IDZhipu, "glm-4v"))
	// Output:
	// true
	// false
	// true
}

// ExampleRegistry_Adapter demonstrates a streaming call through the
// registry.
//
// Note: This example doesn't actually run because it requires a live Ollama
// server. It's provided for documentation purposes.
func ExampleRegistry_Adapter() {
	reg := provider.NewDefaultRegistry()

	adapter, err := reg.Adapter(provider.IDOllama)
	if err != nil {
		log.Fatal(err)
	}

	cfg := &model.ModelConfig{
		ID:    model.ConfigID(provider.IDOllama, "llama3.2"),
		Model: adapter.BuildDefaultModel("llama3.2"),
	}
	messages := []model.Message{
		model.NewMessage(model.RoleUser, "Rewrite: a cat on a mat"),
	}

	err = adapter.SendMessageStream(context.Background(), messages, cfg, model.StreamHandlers{
		OnChunk:    func(chunk string) { fmt.Print(chunk) },
		OnComplete: func(full string) { fmt.Println() },
		OnError:    func(err error) { log.Println("stream failed:", err) },
	})
	if err != nil {
		log.Fatal(err)
	}
}

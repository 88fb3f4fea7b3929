// Package provider implements the vendor adapters and the adapter registry.
//
// promptsmith talks to several LLM vendors (OpenAI, Gemini, Anthropic, Ollama,
// Zhipu, DeepSeek, SiliconFlow, OpenRouter) through the common model.Adapter
// interface. The services above this package never see a vendor SDK type;
// each adapter owns the translation between model.Message and its wire format.
//
// # Why Adapters Are Stateless
//
// An adapter holds no credentials and no client. Everything a call needs
// (API key, base URL, extra connection fields, default parameters) arrives
// with the model.ModelConfig, and the SDK client is built per call. This
// lets one adapter instance serve every configuration of its vendor
// concurrently, and lets users change keys without re-registering anything.
//
// # Streaming Protocol
//
// SendMessageStream reports through model.StreamHandlers:
//   - OnChunk fires for each non-empty text delta
//   - OnComplete fires exactly once with the concatenated text on success
//   - OnError fires at most once on failure, and nothing fires after it
//
// Every adapter routes its callbacks through streamGuard (stream.go) so the
// protocol holds even when a vendor stream misbehaves.
//
// # Model Discovery
//
// Models returns a hard-coded fallback list. Adapters that can query the
// vendor also implement model.ModelLister; its results are returned verbatim
// and never merged with the static list. BuildDefaultModel fills in a
// descriptor for an id the adapter has never seen, using the vendor's vision
// heuristic (heuristics.go).
//
// # Usage
//
//	reg := provider.NewDefaultRegistry()
//	adapter, err := reg.Adapter(provider.IDOpenAI)
//	if err != nil {
//	    // handle error
//	}
//	resp, err := adapter.SendMessage(ctx, messages, cfg)
package provider

// Note: The Adapter and ModelLister interfaces are defined in the model package
// (model/provider.go) to avoid import cycles. This package implements them.

// Provider ids of the built-in adapters.
const (
	IDOpenAI      = "openai"
	IDGemini      = "gemini"
	IDAnthropic   = "anthropic"
	IDOllama      = "ollama"
	IDZhipu       = "zhipu"
	IDDeepSeek    = "deepseek"
	IDSiliconFlow = "siliconflow"
	IDOpenRouter  = "openrouter"
)

// DefaultMaxTokens is sent to vendors that require an explicit output limit.
const DefaultMaxTokens = 4096

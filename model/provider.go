package model

import "context"

// FieldType is the primitive type of a connection field.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
)

// ConnectionSchema describes the connection fields a provider accepts.
type ConnectionSchema struct {
	Required   []string             `json:"required"`
	Optional   []string             `json:"optional"`
	FieldTypes map[string]FieldType `json:"fieldTypes"`
}

// Provider is the static descriptor of an LLM vendor. It is defined once per
// adapter and never mutated.
type Provider struct {
	ID                    string           `json:"id"`
	Name                  string           `json:"name"`
	Description           string           `json:"description,omitempty"`
	RequiresAPIKey        bool             `json:"requiresApiKey"`
	DefaultBaseURL        string           `json:"defaultBaseURL"`
	SupportsDynamicModels bool             `json:"supportsDynamicModels"`
	ConnectionSchema      ConnectionSchema `json:"connectionSchema"`
}

// Capabilities lists what a model can do. MaxContextLength is zero when
// unknown.
type Capabilities struct {
	SupportsTools     bool `json:"supportsTools"`
	SupportsVision    bool `json:"supportsVision"`
	SupportsReasoning bool `json:"supportsReasoning"`
	MaxContextLength  int  `json:"maxContextLength,omitempty"`
}

// Model is an immutable model descriptor, either from a static fallback list,
// a live vendor listing, or a heuristic guess.
type Model struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	ProviderID   string       `json:"providerId"`
	Capabilities Capabilities `json:"capabilities"`
}

// Usage reports token consumption for one call. Vendors that only report a
// total leave the other fields zero.
type Usage struct {
	PromptTokens     int `json:"promptTokens,omitempty"`
	CompletionTokens int `json:"completionTokens,omitempty"`
	TotalTokens      int `json:"totalTokens,omitempty"`
}

// LLMResponse is the uniform result of a single-shot call.
type LLMResponse struct {
	Content string `json:"content"`
	Usage   *Usage `json:"usage,omitempty"`
}

// StreamHandlers receives an incremental response. OnChunk fires per delta,
// then exactly one of OnComplete (with the concatenated text) or OnError.
// Any handler may be nil.
type StreamHandlers struct {
	OnChunk    func(chunk string)
	OnComplete func(content string)
	OnError    func(err error)
}

// Adapter translates the uniform message contract into one vendor's wire
// format and back.
//
// This interface is defined in the model package (not provider package) so
// the services can depend on it without importing the vendor SDKs.
type Adapter interface {
	// Provider returns the immutable vendor descriptor.
	Provider() Provider

	// Models returns the hard-coded fallback model list.
	Models() []Model

	// BuildDefaultModel guesses a descriptor for an unknown model id.
	BuildDefaultModel(modelID string) Model

	// SendMessage performs a single-shot completion.
	SendMessage(ctx context.Context, messages []Message, cfg *ModelConfig) (*LLMResponse, error)

	// SendMessageStream streams a completion through handlers. The returned
	// error is the one passed to OnError, or nil on success.
	SendMessageStream(ctx context.Context, messages []Message, cfg *ModelConfig, handlers StreamHandlers) error
}

// ModelLister is implemented by adapters that can query the vendor for its
// live model list. Results are never backfilled from the static list.
type ModelLister interface {
	ListModels(ctx context.Context, cfg *ModelConfig) ([]Model, error)
}

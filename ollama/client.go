package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// DefaultBaseURL is the daemon's OpenAI-compatible endpoint. Native routes
// (/api/tags, /api/chat) live one level up.
const DefaultBaseURL = "http://127.0.0.1:11434/v1"

// ErrMissingModels is returned when the tag listing has no models array.
var ErrMissingModels = errors.New("ollama tag listing has no models array")

type Client struct {
	client  *api.Client
	baseURL string
}

// NativeBaseURL strips a trailing /v1 so the native API can be reached from
// an OpenAI-style base URL.
func NativeBaseURL(baseURL string) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	trimmed := strings.TrimRight(baseURL, "/")
	return strings.TrimSuffix(trimmed, "/v1")
}

func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	native := NativeBaseURL(baseURL)

	parsedURL, err := url.Parse(native)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid Ollama URL: %q", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		client:  api.NewClient(parsedURL, httpClient),
		baseURL: native,
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Chat sends a chat request. With stream set, fn is called once per chunk;
// otherwise it is called once with the whole response.
func (c *Client) Chat(ctx context.Context, model string, messages []api.Message, options map[string]any, stream bool, fn func(api.ChatResponse) error) error {
	req := &api.ChatRequest{
		Model:    model,
		Messages: messages,
		Options:  options,
		Stream:   &stream,
	}
	return c.client.Chat(ctx, req, fn)
}

type ModelInfo struct {
	Name          string
	Size          int64
	Family        string
	Families      []string
	ParameterSize string
}

// ListModels reads the daemon's tag listing.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	resp, err := c.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	if resp.Models == nil {
		return nil, ErrMissingModels
	}

	models := make([]ModelInfo, len(resp.Models))
	for i, m := range resp.Models {
		models[i] = ModelInfo{
			Name:          m.Name,
			Size:          m.Size,
			Family:        m.Details.Family,
			Families:      m.Details.Families,
			ParameterSize: m.Details.ParameterSize,
		}
	}

	return models, nil
}

func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := c.client.List(ctx)
	return err
}

// StatusCode extracts the HTTP status from an Ollama API error, or 0.
func StatusCode(err error) int {
	var se api.StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// familyRule maps a model-name prefix to tool-calling support. Rules are
// checked in order, so "llama3.2" must come before "llama3".
type familyRule struct {
	prefix string
	tools  bool
}

var familyRules = []familyRule{
	{"llama3.3", true},
	{"llama3.2", true},
	{"llama3.1", true},
	{"llama3-gradient", false},
	{"llama3", false},
	{"command-r", true},
	{"qwen", true},
	{"mistral", true},
	{"nemotron", true},
	{"granite3", true},
	{"codellama", false},
	{"llava", false},
	{"deepseek", false},
	{"phi", false},
	{"gemma", false},
}

// ModelSupportsToolCalling reports whether the model's family accepts the
// tools field on /api/chat. Unknown families report false.
func ModelSupportsToolCalling(modelName string) bool {
	name := strings.ToLower(modelName)
	for _, r := range familyRules {
		if strings.HasPrefix(name, r.prefix) {
			return r.tools
		}
	}
	return false
}

// visionFamilies are projector families the daemon reports for multimodal
// models in the tag listing details.
var visionFamilies = map[string]bool{
	"clip":   true,
	"mllama": true,
}

// ReportsVision reports whether the daemon's own metadata marks the model
// as multimodal. ok is false when the metadata says nothing either way.
func (m ModelInfo) ReportsVision() (vision bool, ok bool) {
	if len(m.Families) == 0 {
		return false, false
	}
	for _, f := range m.Families {
		if visionFamilies[strings.ToLower(f)] {
			return true, true
		}
	}
	return false, true
}

package model

import (
	"fmt"
	"strconv"
)

// Connection holds the secrets and endpoint used to reach a vendor. Extra
// carries vendor-specific fields such as "organization".
type Connection struct {
	APIKey  string         `json:"apiKey,omitempty"`
	BaseURL string         `json:"baseURL,omitempty"`
	Extra   map[string]any `json:"extra,omitempty"`
}

// ExtraString returns a string-valued extra field.
func (c Connection) ExtraString(key string) string {
	if v, ok := c.Extra[key].(string); ok {
		return v
	}
	return ""
}

// ModelConfig binds a provider and model to connection settings and default
// call parameters. It is what users persist and what the LLM service resolves
// model keys to.
type ModelConfig struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Enabled    bool           `json:"enabled"`
	Provider   Provider       `json:"providerMeta"`
	Model      Model          `json:"modelMeta"`
	Connection Connection     `json:"connectionConfig"`
	Params     map[string]any `json:"llmParams,omitempty"`
}

// ConfigID returns the conventional model key for a provider/model pair,
// e.g. "openai-gpt-4o".
func ConfigID(providerID, modelID string) string {
	return fmt.Sprintf("%s-%s", providerID, modelID)
}

// BaseURLOr returns the configured base URL or fallback when none is set.
func (c *ModelConfig) BaseURLOr(fallback string) string {
	if c.Connection.BaseURL != "" {
		return c.Connection.BaseURL
	}
	return fallback
}

// FloatParam reads a numeric call parameter. JSON-decoded configs carry
// numbers as float64, TOML and hand-built ones may carry ints or strings.
func (c *ModelConfig) FloatParam(key string) (float64, bool) {
	if c == nil {
		return 0, false
	}
	switch v := c.Params[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

// IntParam reads an integral call parameter.
func (c *ModelConfig) IntParam(key string) (int64, bool) {
	f, ok := c.FloatParam(key)
	return int64(f), ok
}

package provider

import (
	"strconv"
	"time"

	"promptsmith/model"
)

// Parameter keys with a typed home in every vendor request. Anything else in
// ModelConfig.Params is forwarded verbatim where the transport allows it.
const (
	ParamTemperature = "temperature"
	ParamTopP        = "top_p"
	ParamMaxTokens   = "max_tokens"
)

var typedParams = map[string]bool{
	ParamTemperature: true,
	ParamTopP:        true,
	ParamMaxTokens:   true,
}

// extraParams returns the call parameters without a typed request field.
func extraParams(cfg *model.ModelConfig) map[string]any {
	if cfg == nil || len(cfg.Params) == 0 {
		return nil
	}
	extra := make(map[string]any)
	for k, v := range cfg.Params {
		if !typedParams[k] {
			extra[k] = v
		}
	}
	return extra
}

// requestTimeout reads Connection.Extra["timeout"], given in seconds.
func requestTimeout(cfg *model.ModelConfig) time.Duration {
	if cfg == nil {
		return 0
	}
	var seconds float64
	switch v := cfg.Connection.Extra["timeout"].(type) {
	case float64:
		seconds = v
	case int:
		seconds = float64(v)
	case int64:
		seconds = float64(v)
	case string:
		seconds, _ = strconv.ParseFloat(v, 64)
	}
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

// staticModel builds an entry for a hard-coded model list.
func staticModel(providerID, id, name string, caps model.Capabilities) model.Model {
	return model.Model{
		ID:           id,
		Name:         name,
		ProviderID:   providerID,
		Capabilities: caps,
	}
}

// buildDefaultModel guesses a descriptor for an id that no list knows.
func buildDefaultModel(providerID, modelID string) model.Model {
	return model.Model{
		ID:         modelID,
		Name:       modelID,
		ProviderID: providerID,
		Capabilities: model.Capabilities{
			SupportsVision:    GuessVisionSupport(providerID, modelID),
			SupportsReasoning: guessReasoningSupport(modelID),
		},
	}
}

// describeModel prefers the static descriptor for a known id and falls back
// to the heuristic one.
func describeModel(static []model.Model, providerID, modelID string) model.Model {
	for _, m := range static {
		if m.ID == modelID {
			return m
		}
	}
	return buildDefaultModel(providerID, modelID)
}

func copyModels(models []model.Model) []model.Model {
	out := make([]model.Model, len(models))
	copy(out, models)
	return out
}

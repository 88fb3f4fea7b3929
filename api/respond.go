package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"promptsmith/config"
	"promptsmith/history"
	"promptsmith/image"
	"promptsmith/llm"
	"promptsmith/modelconfig"
	"promptsmith/prompt"
	"promptsmith/provider"
	"promptsmith/template"
)

const (
	headerContentType = "Content-Type"
	mimeJSON          = "application/json"
	mimeYAML          = "application/yaml"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(headerContentType, mimeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		config.Logf("[API] Failed to encode response: %v", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps a service error to its HTTP status.
func writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		config.Logf("[API] %d: %v", status, err)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, prompt.ErrEmptyPrompt),
		errors.Is(err, image.ErrEmptyImage),
		errors.Is(err, llm.ErrEmptyModelKey),
		errors.Is(err, image.ErrVisionUnsupported),
		errors.Is(err, template.ErrInvalidTemplate),
		errors.Is(err, modelconfig.ErrInvalidConfig),
		errors.Is(err, modelconfig.ErrProviderUnknown),
		errors.Is(err, history.ErrInvalidRecord),
		errors.Is(err, provider.ErrDynamicModelsUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, llm.ErrModelNotFound),
		errors.Is(err, template.ErrTemplateNotFound),
		errors.Is(err, history.ErrRecordNotFound),
		errors.Is(err, provider.ErrAdapterNotFound):
		return http.StatusNotFound
	case errors.Is(err, template.ErrBuiltinImmutable):
		return http.StatusConflict
	}

	var statusErr *provider.StatusError
	if errors.As(err, &statusErr) ||
		errors.Is(err, provider.ErrNoResponse) ||
		errors.Is(err, provider.ErrMalformedResponse) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

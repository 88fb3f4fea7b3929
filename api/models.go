package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"promptsmith/model"
	"promptsmith/modelconfig"
)

// redactedKey replaces stored API keys in responses.
const redactedKey = "********"

func redact(cfg model.ModelConfig) model.ModelConfig {
	if cfg.Connection.APIKey != "" {
		cfg.Connection.APIKey = redactedKey
	}
	return cfg
}

type createModelRequest struct {
	Provider string         `json:"provider"`
	Model    string         `json:"model"`
	Name     string         `json:"name,omitempty"`
	APIKey   string         `json:"apiKey,omitempty"`
	BaseURL  string         `json:"baseURL,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
	Params   map[string]any `json:"params,omitempty"`
	Disabled bool           `json:"disabled,omitempty"`
}

// ListModels handles GET /api/models. ?enabled=1 restricts the list to
// enabled configurations.
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	list := h.app.Models.ListModels
	if r.URL.Query().Get("enabled") == "1" {
		list = h.app.Models.EnabledModels
	}

	configs, err := list(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	for i := range configs {
		configs[i] = redact(configs[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": configs})
}

// CreateModel handles POST /api/models. An existing configuration with the
// same key is replaced.
func (h *Handler) CreateModel(w http.ResponseWriter, r *http.Request) {
	var req createModelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Provider) == "" || strings.TrimSpace(req.Model) == "" {
		writeError(w, http.StatusBadRequest, "provider and model are required")
		return
	}

	conn := model.Connection{APIKey: req.APIKey, BaseURL: req.BaseURL, Extra: req.Extra}
	cfg, err := modelconfig.NewConfig(h.app.Registry, req.Provider, req.Model, conn, modelconfig.Options{
		Name:     req.Name,
		Disabled: req.Disabled,
		Params:   req.Params,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.app.Models.SaveModel(r.Context(), *cfg); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, redact(*cfg))
}

// GetModel handles GET /api/models/{id}.
func (h *Handler) GetModel(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.app.Models.GetModel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, redact(*cfg))
}

// DeleteModel handles DELETE /api/models/{id}.
func (h *Handler) DeleteModel(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Models.DeleteModel(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TestModel handles POST /api/models/{id}/test.
func (h *Handler) TestModel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.app.LLM.TestConnection(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "model": id})
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"promptsmith/model"
)

// ListProviders handles GET /api/providers.
func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"providers": h.app.Registry.Providers()})
}

type providerModelsResponse struct {
	Provider string        `json:"provider"`
	Dynamic  bool          `json:"dynamic"`
	Models   []model.Model `json:"models"`
}

// ListProviderModels handles GET /api/providers/{id}/models. With
// ?config=<model key> the vendor is queried live using that configuration's
// connection; otherwise the static list is returned.
func (h *Handler) ListProviderModels(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.app.Registry.Provider(id); !ok {
		writeError(w, http.StatusNotFound, "unknown provider: "+id)
		return
	}

	key := r.URL.Query().Get("config")
	if key == "" {
		writeJSON(w, http.StatusOK, providerModelsResponse{
			Provider: id,
			Models:   h.app.Registry.StaticModels(id),
		})
		return
	}

	cfg, err := h.app.Models.GetModel(r.Context(), key)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	models, err := h.app.LLM.FetchModels(r.Context(), id, cfg)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, providerModelsResponse{Provider: id, Dynamic: true, Models: models})
}

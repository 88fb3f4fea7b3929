package api

import (
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"promptsmith/template"
)

const maxTemplateBody = 1 << 20

// ListTemplates handles GET /api/templates, optionally filtered by ?type=.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	var (
		list []template.Template
		err  error
	)
	if typ := r.URL.Query().Get("type"); typ != "" {
		list, err = h.app.Templates.ListTemplatesByType(r.Context(), template.Type(typ))
	} else {
		list, err = h.app.Templates.ListTemplates(r.Context())
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": list})
}

// GetTemplate handles GET /api/templates/{id}.
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := h.app.Templates.GetTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// SaveTemplate handles POST /api/templates. A YAML body is imported the same
// way the CLI imports a file; anything else is decoded as JSON.
func (h *Handler) SaveTemplate(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxTemplateBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get(headerContentType))
	if mediaType == mimeYAML || mediaType == "text/yaml" {
		data, err := io.ReadAll(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read request body")
			return
		}
		saved, err := h.app.Templates.ImportYAML(r.Context(), data)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, saved)
		return
	}

	r.Body = body
	var t template.Template
	if err := decodeJSON(r, &t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	saved, err := h.app.Templates.SaveTemplate(r.Context(), t)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// DeleteTemplate handles DELETE /api/templates/{id}. ?reset=1 drops the user
// override of a built-in instead.
func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var err error
	if r.URL.Query().Get("reset") == "1" {
		err = h.app.Templates.ResetTemplate(r.Context(), id)
	} else {
		err = h.app.Templates.DeleteTemplate(r.Context(), id)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportTemplate handles GET /api/templates/{id}/export.
func (h *Handler) ExportTemplate(w http.ResponseWriter, r *http.Request) {
	data, err := h.app.Templates.ExportYAML(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set(headerContentType, mimeYAML)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

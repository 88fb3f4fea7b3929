package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"promptsmith/history"
)

// ListHistory handles GET /api/history. ?q= runs a fuzzy search, ?type=
// restricts the plain listing to one record type.
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if q := query.Get("q"); q != "" {
		matches, err := h.app.History.Search(r.Context(), q)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		records := make([]history.Record, len(matches))
		for i, m := range matches {
			records[i] = m.Record
		}
		writeJSON(w, http.StatusOK, map[string]any{"records": records})
		return
	}

	records, err := h.app.History.List(r.Context(), history.RecordType(query.Get("type")))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

// GetHistory handles GET /api/history/{id}.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	rec, err := h.app.History.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// DeleteHistory handles DELETE /api/history/{id}.
func (h *Handler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.app.History.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearHistory handles DELETE /api/history, optionally only one ?type=.
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	typ := history.RecordType(r.URL.Query().Get("type"))
	if err := h.app.History.Clear(r.Context(), typ); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package api

import (
	"net/http"

	"promptsmith/image"
	"promptsmith/model"
	"promptsmith/prompt"
)

const maxImageBody = 16 << 20

// Optimize handles POST /api/optimize. With ?stream=1 the response is an
// event stream of chunk events followed by complete or error.
func (h *Handler) Optimize(w http.ResponseWriter, r *http.Request) {
	var req prompt.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if wantsStream(r) {
		h.stream(w, func(handlers model.StreamHandlers) error {
			return h.app.OptimizeStream(r.Context(), req, handlers)
		})
		return
	}

	resp, err := h.app.Optimize(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ImageToPrompt handles POST /api/image-to-prompt. The image is a data URI or
// a remote URL in imageUrl.
func (h *Handler) ImageToPrompt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBody)

	var req image.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if wantsStream(r) {
		h.stream(w, func(handlers model.StreamHandlers) error {
			return h.app.ImageToPromptStream(r.Context(), req, handlers)
		})
		return
	}

	resp, err := h.app.ImageToPrompt(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) stream(w http.ResponseWriter, run func(model.StreamHandlers) error) {
	sse, ok := newSSEWriter(w)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	sse.finish(run(sse.handlers()))
}

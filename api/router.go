// Package api serves the optimization services over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"promptsmith/app"
)

// Handler holds the container shared by every route.
type Handler struct {
	app *app.App
}

func NewHandler(a *app.App) *Handler {
	return &Handler{app: a}
}

// NewRouter creates a chi router with every /api route mounted.
func NewRouter(a *app.App) *chi.Mux {
	h := NewHandler(a)
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/providers", func(r chi.Router) {
			r.Get("/", h.ListProviders)
			r.Get("/{id}/models", h.ListProviderModels)
		})

		r.Route("/models", func(r chi.Router) {
			r.Get("/", h.ListModels)
			r.Post("/", h.CreateModel)
			r.Get("/{id}", h.GetModel)
			r.Delete("/{id}", h.DeleteModel)
			r.Post("/{id}/test", h.TestModel)
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", h.ListTemplates)
			r.Post("/", h.SaveTemplate)
			r.Get("/{id}", h.GetTemplate)
			r.Delete("/{id}", h.DeleteTemplate)
			r.Get("/{id}/export", h.ExportTemplate)
		})

		r.Post("/optimize", h.Optimize)
		r.Post("/image-to-prompt", h.ImageToPrompt)

		r.Route("/history", func(r chi.Router) {
			r.Get("/", h.ListHistory)
			r.Delete("/", h.ClearHistory)
			r.Get("/{id}", h.GetHistory)
			r.Delete("/{id}", h.DeleteHistory)
		})
	})

	return r
}

package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all sweep routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sweep", h.HandleRun)
	r.Get("/sweep/{id}", h.HandleGet)
	r.Get("/sweeps", h.HandleList)
}

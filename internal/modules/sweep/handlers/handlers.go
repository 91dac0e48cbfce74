// Package handlers provides HTTP handlers for noise sweeps.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/avermex/qphi/internal/modules/reservoir"
	"github.com/avermex/qphi/internal/modules/sweep"
)

// Handler handles sweep HTTP requests
type Handler struct {
	service *sweep.Service
	log     zerolog.Logger
}

// NewHandler creates a new sweep handler
func NewHandler(service *sweep.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "sweep").Logger(),
	}
}

// HandleRun handles POST /api/sweep: runs a full noise sweep synchronously
// and returns the aggregate record.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req sweep.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Run(req)
	if err != nil {
		if errors.Is(err, reservoir.ErrConfig) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Msg("Sweep failed")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGet handles GET /api/sweep/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.service.Get(id)
	if err != nil {
		h.log.Error().Err(err).Str("sweep_id", id).Msg("Failed to load sweep")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if result == nil {
		http.Error(w, "Sweep not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": result})
}

// HandleList handles GET /api/sweeps.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.List(50)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list sweeps")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []*sweep.Sweep{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": results})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

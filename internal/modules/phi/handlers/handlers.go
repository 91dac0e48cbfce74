// Package handlers provides HTTP handlers for simulation runs and Phi
// computations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/avermex/qphi/internal/modules/lindblad"
	"github.com/avermex/qphi/internal/modules/partition"
	"github.com/avermex/qphi/internal/modules/phi"
	"github.com/avermex/qphi/internal/modules/reservoir"
)

// Handler handles simulation HTTP requests
type Handler struct {
	service *phi.Service
	log     zerolog.Logger
}

// NewHandler creates a new simulation handler
func NewHandler(service *phi.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "simulation").Logger(),
	}
}

// HandleRun handles POST /api/simulation/run: one reservoir configuration
// in, the run's Phi result out.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var cfg reservoir.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.EvaluateRun(cfg)
	if err != nil {
		h.writeRunError(w, err)
		return
	}

	response := map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

// writeRunError maps the core error kinds onto HTTP statuses.
func (h *Handler) writeRunError(w http.ResponseWriter, err error) {
	var instability *lindblad.InstabilityError
	var tooLarge *partition.TooLargeError

	switch {
	case errors.Is(err, reservoir.ErrConfig):
		h.log.Warn().Err(err).Msg("Rejected invalid configuration")
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &tooLarge):
		h.log.Warn().Err(err).Msg("Partition search space too large")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &instability):
		h.log.Error().Err(err).Int("step", instability.Step).Msg("Run aborted by numerical instability")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.log.Error().Err(err).Msg("Run failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

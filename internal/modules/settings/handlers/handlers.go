// Package handlers provides HTTP handlers for runtime settings management.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aldikusuma/neraca/internal/modules/settings"
)

// Handler provides HTTP handlers for settings endpoints.
type Handler struct {
	service *settings.Service
	log     zerolog.Logger
}

// NewHandler creates a new settings handler.
func NewHandler(service *settings.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "settings").Logger(),
	}
}

// RegisterRoutes registers settings routes on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/settings", h.HandleGetAll)
	r.Put("/settings/{key}", h.HandleUpdate)
}

// HandleGetAll handles GET /api/settings.
//
// Every known key is returned with its resolved value, so keys that were
// never written still show their config default.
func (h *Handler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"settings": h.service.All(),
		"keys":     settings.KnownKeys,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode settings response")
	}
}

// HandleUpdate handles PUT /api/settings/{key} with a {"value": N} body.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		http.Error(w, "Key is required", http.StatusBadRequest)
		return
	}
	if !settings.KnownKey(key) {
		http.Error(w, "Unknown setting key", http.StatusBadRequest)
		return
	}

	var update struct {
		Value *float64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if update.Value == nil {
		http.Error(w, "Value is required", http.StatusBadRequest)
		return
	}
	value := int(*update.Value)
	if float64(value) != *update.Value {
		http.Error(w, "Value must be an integer", http.StatusBadRequest)
		return
	}

	if err := h.service.Update(key, value); err != nil {
		h.log.Warn().
			Err(err).
			Str("key", key).
			Int("value", value).
			Msg("Rejected setting update")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{key: value})
}

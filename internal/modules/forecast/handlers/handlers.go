// Package handlers provides the HTTP surface for running forecasts.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aldikusuma/neraca/internal/modules/charts"
	"github.com/aldikusuma/neraca/internal/modules/dataset"
	"github.com/aldikusuma/neraca/internal/modules/forecast"
	"github.com/aldikusuma/neraca/internal/modules/settings"
)

// Handler handles forecast HTTP requests.
type Handler struct {
	service  *forecast.Service
	loader   *dataset.Loader
	charts   *charts.Service
	settings *settings.Service
	log      zerolog.Logger
}

// NewHandler creates a new forecast handler.
func NewHandler(
	service *forecast.Service,
	loader *dataset.Loader,
	chartService *charts.Service,
	settingsService *settings.Service,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		service:  service,
		loader:   loader,
		charts:   chartService,
		settings: settingsService,
		log:      log.With().Str("handler", "forecast").Logger(),
	}
}

// RegisterRoutes registers forecast routes on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/forecast/config", h.HandleGetConfig)
	r.Post("/forecast/run", h.HandleRun)
}

// HandleGetConfig handles GET /api/forecast/config.
//
// The frontend builds its horizon slider from these bounds instead of
// hardcoding them.
func (h *Handler) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"data": map[string]interface{}{
			"horizon_min":       forecast.HorizonMin,
			"horizon_max":       forecast.HorizonMax,
			"horizon_default":   h.settings.DefaultHorizon(),
			"history_from_year": h.settings.HistoryFromYear(),
			"unit":              charts.Unit,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

// HandleRun handles POST /api/forecast/run.
//
// Body: {"horizon": N}. A missing body or zero horizon falls back to the
// default_horizon setting. The response carries the raw forecast result plus
// the rendered table and chart specs for the requested window.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Horizon int `json:"horizon"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body")
		return
	}

	horizon := req.Horizon
	if horizon == 0 {
		horizon = h.settings.DefaultHorizon()
	}

	result, err := h.service.Run(r.Context(), horizon)
	if err != nil {
		code := forecast.ErrorCode(err)
		h.log.Error().
			Err(err).
			Int("horizon", horizon).
			Str("code", code).
			Msg("Forecast run failed")
		h.writeError(w, statusFor(code), code, err.Error())
		return
	}

	// The run loaded and memoized this dataset moments ago, so failure here
	// means the file vanished between the two reads.
	series, err := h.loader.Load(h.service.DatasetPath())
	if err != nil {
		code := forecast.ErrorCode(err)
		h.log.Error().Err(err).Str("code", code).Msg("Failed to reload dataset for charts")
		h.writeError(w, http.StatusInternalServerError, code, err.Error())
		return
	}

	view := h.charts.BuildRunView(series, result, charts.Options{
		HistoryFromYear:     h.settings.HistoryFromYear(),
		MovingAverageWindow: h.settings.MovingAverageWindow(),
	})

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"result": result,
			"view":   view,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

// statusFor maps run error codes to HTTP statuses. Missing inputs are 404,
// inputs that exist but cannot be used are 422, everything else is a 500.
func statusFor(code string) int {
	switch code {
	case forecast.CodeDatasetNotFound, forecast.CodeArtifactNotFound:
		return http.StatusNotFound
	case forecast.CodeHorizonOutOfRange,
		forecast.CodeDatasetMalformed,
		forecast.CodeArtifactInvalid,
		forecast.CodeCutoffMismatch:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// Package handlers provides HTTP handlers for the historical trade series.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aldikusuma/neraca/internal/modules/analytics"
	"github.com/aldikusuma/neraca/internal/modules/dataset"
)

// Handler handles dataset HTTP requests.
type Handler struct {
	loader    *dataset.Loader
	path      string
	analytics *analytics.Service
	log       zerolog.Logger
}

// NewHandler creates a new dataset handler.
func NewHandler(loader *dataset.Loader, path string, analyticsService *analytics.Service, log zerolog.Logger) *Handler {
	return &Handler{
		loader:    loader,
		path:      path,
		analytics: analyticsService,
		log:       log.With().Str("handler", "dataset").Logger(),
	}
}

// RegisterRoutes registers dataset routes on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/dataset/series", h.HandleGetSeries)
	r.Get("/dataset/summary", h.HandleGetSummary)
}

// HandleGetSeries handles GET /api/dataset/series?from=YYYY.
//
// Without a from year the whole cleaned series is returned.
func (h *Handler) HandleGetSeries(w http.ResponseWriter, r *http.Request) {
	series, ok := h.loadSeries(w)
	if !ok {
		return
	}

	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		year, err := strconv.Atoi(fromStr)
		if err != nil {
			http.Error(w, "from must be a year", http.StatusBadRequest)
			return
		}
		series = series.From(year)
	}

	data := map[string]interface{}{
		"months":  series.Len(),
		"records": series.Records,
	}
	if series.Len() > 0 {
		data["first_month"] = series.First().Date.Format("2006-01")
		data["last_month"] = series.Last().Date.Format("2006-01")
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetSummary handles GET /api/dataset/summary.
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	series, ok := h.loadSeries(w)
	if !ok {
		return
	}

	summary, err := h.analytics.Summarize(series)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to summarize dataset")
		http.Error(w, "Failed to summarize dataset", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": summary,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// loadSeries loads the configured dataset, writing the error response itself
// when the load fails.
func (h *Handler) loadSeries(w http.ResponseWriter) (*dataset.Series, bool) {
	series, err := h.loader.Load(h.path)
	if err != nil {
		status := http.StatusInternalServerError
		code := "dataset_error"
		switch {
		case errors.Is(err, dataset.ErrNotFound):
			status = http.StatusNotFound
			code = "dataset_not_found"
		case errors.Is(err, dataset.ErrMalformed):
			status = http.StatusUnprocessableEntity
			code = "dataset_malformed"
		}

		h.log.Error().Err(err).Str("path", h.path).Msg("Failed to load dataset")
		h.writeJSON(w, status, map[string]string{
			"error": err.Error(),
			"code":  code,
		})
		return nil, false
	}
	return series, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

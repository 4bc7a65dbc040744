package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldikusuma/neraca/internal/events"
	"github.com/aldikusuma/neraca/internal/modules/analytics"
	"github.com/aldikusuma/neraca/internal/modules/dataset"
)

var testLog = zerolog.New(nil).Level(zerolog.Disabled)

func newRouter(t *testing.T, csv string) *chi.Mux {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data_ekspor_impor.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	loader := dataset.NewLoader(events.NewBus(testLog), testLog)
	h := NewHandler(loader, path, analytics.NewService(testLog), testLog)

	router := chi.NewRouter()
	router.Route("/api", func(api chi.Router) {
		h.RegisterRoutes(api)
	})
	return router
}

func get(t *testing.T, router *chi.Mux, url string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

const twoYearCSV = "Tahun,Bulan,Total_Ekspor,Total_Impor\n" +
	"2019,November,100.0,90.0\n" +
	"2019,Desember,101.0,91.0\n" +
	"2020,Januari,102.0,92.0\n" +
	"2020,Februari,103.0,93.0\n"

func TestHandleGetSeries(t *testing.T) {
	router := newRouter(t, twoYearCSV)

	rec := get(t, router, "/api/dataset/series")
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, float64(4), data["months"])
	assert.Equal(t, "2019-11", data["first_month"])
	assert.Equal(t, "2020-02", data["last_month"])

	records := data["records"].([]interface{})
	require.Len(t, records, 4)
	first := records[0].(map[string]interface{})
	assert.Equal(t, float64(100), first["exports"])
	assert.Equal(t, float64(90), first["imports"])
	assert.Equal(t, float64(10), first["balance"])
}

func TestHandleGetSeries_FromYear(t *testing.T) {
	router := newRouter(t, twoYearCSV)

	rec := get(t, router, "/api/dataset/series?from=2020")
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["months"])
	assert.Equal(t, "2020-01", data["first_month"])
}

func TestHandleGetSeries_BadFromParam(t *testing.T) {
	router := newRouter(t, twoYearCSV)

	rec := get(t, router, "/api/dataset/series?from=twenty")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetSeries_MissingFile(t *testing.T) {
	loader := dataset.NewLoader(events.NewBus(testLog), testLog)
	h := NewHandler(loader, filepath.Join(t.TempDir(), "nope.csv"), analytics.NewService(testLog), testLog)

	router := chi.NewRouter()
	router.Route("/api", func(api chi.Router) {
		h.RegisterRoutes(api)
	})

	rec := get(t, router, "/api/dataset/series")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "dataset_not_found", decodeBody(t, rec)["code"])
}

func TestHandleGetSeries_MalformedFile(t *testing.T) {
	router := newRouter(t, "Tahun,Bulan,Total_Ekspor,Total_Impor\n2024,NotAMonth,1.0,2.0\n")

	rec := get(t, router, "/api/dataset/series")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "dataset_malformed", decodeBody(t, rec)["code"])
}

func TestHandleGetSummary(t *testing.T) {
	router := newRouter(t, twoYearCSV)

	rec := get(t, router, "/api/dataset/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, float64(4), data["months"])
	assert.Equal(t, "2019-11", data["first_month"])
	assert.Equal(t, "2020-02", data["last_month"])

	exports := data["exports"].(map[string]interface{})
	assert.InDelta(t, 101.5, exports["mean"].(float64), 1e-9)
	assert.Equal(t, float64(100), exports["min"])
	assert.Equal(t, float64(103), exports["max"])

	// All four months run a surplus of exactly 10.
	assert.Equal(t, float64(4), data["surplus_months"])
	assert.Equal(t, float64(0), data["deficit_months"])
}

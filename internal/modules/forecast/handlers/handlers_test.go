package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldikusuma/neraca/internal/events"
	"github.com/aldikusuma/neraca/internal/modules/charts"
	"github.com/aldikusuma/neraca/internal/modules/dataset"
	"github.com/aldikusuma/neraca/internal/modules/forecast"
	"github.com/aldikusuma/neraca/internal/modules/settings"

	_ "github.com/mattn/go-sqlite3"
)

var testLog = zerolog.New(nil).Level(zerolog.Disabled)

func writeArtifact(t *testing.T, dir, name, target string, cutoff time.Time, lastValue float64) string {
	t.Helper()

	a := &forecast.Artifact{
		Schema:       forecast.SchemaVersion,
		Target:       target,
		Order:        forecast.Order{P: 1},
		ARCoeffs:     []float64{0.5},
		MACoeffs:     []float64{},
		SARCoeffs:    []float64{},
		SMACoeffs:    []float64{},
		Intercept:    10,
		Variance:     1,
		DiffTail:     []float64{lastValue},
		ResidualTail: []float64{0},
		RawTail:      []float64{},
		Cutoff:       cutoff,
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, forecast.EncodeArtifact(f, a))
	return path
}

type fixture struct {
	router *chi.Mux
	svc    *settings.Service
	paths  forecast.Paths
}

// newFixture wires a dataset, three aligned artifacts and a full handler
// stack behind a chi router mounted the way the server mounts it.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	csv := "Tahun,Bulan,Total_Ekspor,Total_Impor\n" +
		"2025,Juli,21000.5,19000.5\n" +
		"2025,Agustus,22000.5,19500.5\n"
	datasetPath := filepath.Join(dir, "data_ekspor_impor.csv")
	require.NoError(t, os.WriteFile(datasetPath, []byte(csv), 0644))

	cutoff := time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)
	paths := forecast.Paths{
		Exports: writeArtifact(t, dir, "model_ekspor.msgpack", "ekspor", cutoff, 14),
		Imports: writeArtifact(t, dir, "model_impor.msgpack", "impor", cutoff, 12),
		Balance: writeArtifact(t, dir, "model_neraca.msgpack", "neraca", cutoff, 8),
	}

	bus := events.NewBus(testLog)
	loader := dataset.NewLoader(bus, testLog)
	forecastSvc := forecast.NewService(
		forecast.NewStore(testLog), loader, datasetPath, paths, bus, nil, testLog)

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, settings.InitSchema(db))
	settingsSvc := settings.NewService(
		settings.NewRepository(db, testLog),
		settings.Defaults{
			HistoryFromYear: 2020,
			DefaultHorizon:  12,
			HorizonMin:      forecast.HorizonMin,
			HorizonMax:      forecast.HorizonMax,
			RetentionDays:   90,
		},
		bus, testLog)

	h := NewHandler(forecastSvc, loader, charts.NewService(testLog), settingsSvc, testLog)

	router := chi.NewRouter()
	router.Route("/api", func(api chi.Router) {
		h.RegisterRoutes(api)
	})

	return &fixture{router: router, svc: settingsSvc, paths: paths}
}

func (f *fixture) post(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/forecast/run", bytes.NewReader([]byte(body)))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleRun_ReturnsResultAndView(t *testing.T) {
	f := newFixture(t)

	rec := f.post(t, `{"horizon": 6}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	data := body["data"].(map[string]interface{})

	result := data["result"].(map[string]interface{})
	assert.Equal(t, float64(6), result["horizon"])
	assert.NotEmpty(t, result["run_id"])

	view := data["view"].(map[string]interface{})
	table := view["table"].([]interface{})
	require.Len(t, table, 6)

	first := table[0].(map[string]interface{})
	assert.Equal(t, "2025-09", first["period"])
	assert.True(t, strings.HasSuffix(first["exports_formatted"].(string), " Juta USD"))

	tradeChart := view["trade_chart"].(map[string]interface{})
	assert.Len(t, tradeChart["traces"].([]interface{}), 4)

	balanceChart := view["balance_chart"].(map[string]interface{})
	assert.Len(t, balanceChart["traces"].([]interface{}), 2)
	assert.Len(t, balanceChart["ref_lines"].([]interface{}), 1)

	assert.NotEmpty(t, body["metadata"].(map[string]interface{})["timestamp"])
}

func TestHandleRun_EmptyBodyUsesDefaultHorizon(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.svc.Update(settings.KeyDefaultHorizon, 8))

	rec := f.post(t, "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeBody(t, rec)["data"].(map[string]interface{})
	result := data["result"].(map[string]interface{})
	assert.Equal(t, float64(8), result["horizon"])
}

func TestHandleRun_HorizonOutOfRange(t *testing.T) {
	f := newFixture(t)

	for _, body := range []string{`{"horizon": 5}`, `{"horizon": 37}`} {
		rec := f.post(t, body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		payload := decodeBody(t, rec)
		assert.Equal(t, forecast.CodeHorizonOutOfRange, payload["code"])
		assert.NotEmpty(t, payload["error"])
	}
}

func TestHandleRun_MissingArtifactIs404(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, os.Remove(f.paths.Imports))

	rec := f.post(t, `{"horizon": 12}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	payload := decodeBody(t, rec)
	assert.Equal(t, forecast.CodeArtifactNotFound, payload["code"])
}

func TestHandleRun_BadBodyIs400(t *testing.T) {
	f := newFixture(t)

	rec := f.post(t, `{"horizon": "twelve"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	payload := decodeBody(t, rec)
	assert.Equal(t, "bad_request", payload["code"])
}

func TestHandleGetConfig(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/forecast/config", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, float64(forecast.HorizonMin), data["horizon_min"])
	assert.Equal(t, float64(forecast.HorizonMax), data["horizon_max"])
	assert.Equal(t, float64(12), data["horizon_default"])
	assert.Equal(t, charts.Unit, data["unit"])
}

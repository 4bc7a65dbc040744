package forecast

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldikusuma/neraca/internal/events"
	"github.com/aldikusuma/neraca/internal/modules/dataset"
	"github.com/aldikusuma/neraca/internal/modules/runlog"

	_ "github.com/mattn/go-sqlite3"
)

var testLog = zerolog.New(nil).Level(zerolog.Disabled)

// ar1Artifact builds a small AR(1) artifact for target, trained through cutoff.
func ar1Artifact(target string, cutoff time.Time, lastValue float64) *Artifact {
	return &Artifact{
		Schema:       SchemaVersion,
		Target:       target,
		Order:        Order{P: 1},
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
}

type serviceFixture struct {
	svc   *Service
	runs  *runlog.Repository
	bus   *events.Bus
	paths Paths
	dir   string
}

// newFixture lays out a dataset CSV and three aligned artifacts in a temp
// dir and wires a full service around them.
func newFixture(t *testing.T) *serviceFixture {
	t.Helper()
	dir := t.TempDir()

	// Dataset ends at the models' cutoff: August 2025
	csv := "Tahun,Bulan,Total_Ekspor,Total_Impor\n" +
		"2025,Juli,21000.5,19000.5\n" +
		"2025,Agustus,22000.5,19500.5\n"
	datasetPath := filepath.Join(dir, "data_ekspor_impor.csv")
	require.NoError(t, os.WriteFile(datasetPath, []byte(csv), 0644))

	cutoff := time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)
	paths := Paths{
		Exports: writeArtifactFile(t, dir, "model_ekspor.msgpack", ar1Artifact("ekspor", cutoff, 14)),
		Imports: writeArtifactFile(t, dir, "model_impor.msgpack", ar1Artifact("impor", cutoff, 12)),
		Balance: writeArtifactFile(t, dir, "model_neraca.msgpack", ar1Artifact("neraca", cutoff, 8)),
	}

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, runlog.InitSchema(db))
	runs := runlog.NewRepository(db, testLog)

	bus := events.NewBus(testLog)
	loader := dataset.NewLoader(bus, testLog)
	svc := NewService(NewStore(testLog), loader, datasetPath, paths, bus, runs, testLog)

	return &serviceFixture{svc: svc, runs: runs, bus: bus, paths: paths, dir: dir}
}

func TestServiceRun_ProducesAlignedResult(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.Run(context.Background(), 12)
	require.NoError(t, err)

	assert.Equal(t, 12, result.Horizon)
	assert.Len(t, result.Dates, 12)
	assert.Len(t, result.Exports, 12)
	assert.Len(t, result.Imports, 12)
	assert.Len(t, result.Balance, 12)
	assert.NotEmpty(t, result.RunID)

	// Dates continue monthly from one month after the cutoff
	assert.Equal(t, time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC), result.Dates[0])
	assert.Equal(t, time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC), result.Dates[11])
	for i := 1; i < len(result.Dates); i++ {
		assert.Equal(t, result.Dates[i-1].AddDate(0, 1, 0), result.Dates[i])
		assert.Equal(t, 1, result.Dates[i].Day())
	}

	// AR(1) hand check for the exports column: 10 + 0.5*(14-10) = 12
	assert.InDelta(t, 12.0, result.Exports[0], 1e-9)
}

func TestServiceRun_HorizonBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, horizon := range []int{5, 37, 0, -1} {
		_, err := f.svc.Run(ctx, horizon)
		assert.ErrorIs(t, err, ErrHorizonOutOfRange, "horizon %d", horizon)
	}

	for _, horizon := range []int{6, 36} {
		result, err := f.svc.Run(ctx, horizon)
		require.NoError(t, err, "horizon %d", horizon)
		assert.Len(t, result.Dates, horizon)
	}
}

func TestServiceRun_MissingArtifactFailsWholeRun(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.Remove(f.paths.Balance))

	_, err := f.svc.Run(context.Background(), 12)
	assert.ErrorIs(t, err, ErrArtifactNotFound)
	assert.Equal(t, "artifact_not_found", ErrorCode(err))
}

func TestServiceRun_MissingDatasetFailsBeforeModels(t *testing.T) {
	f := newFixture(t)

	// Remove the dataset; models stay in place
	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".csv" {
			require.NoError(t, os.Remove(filepath.Join(f.dir, e.Name())))
		}
	}

	_, err = f.svc.Run(context.Background(), 12)
	assert.ErrorIs(t, err, dataset.ErrNotFound)
	assert.Equal(t, "dataset_not_found", ErrorCode(err))

	// No model should have been touched
	assert.False(t, f.svc.Store().Cached(f.paths.Exports))
}

func TestServiceRun_CutoffMismatch(t *testing.T) {
	f := newFixture(t)

	// Rewrite the imports artifact one month behind the others
	skewed := ar1Artifact("impor", time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), 12)
	writeArtifactFile(t, f.dir, "model_impor.msgpack", skewed)

	_, err := f.svc.Run(context.Background(), 12)
	require.ErrorIs(t, err, ErrCutoffMismatch)
	assert.Equal(t, "cutoff_mismatch", ErrorCode(err))
	assert.Contains(t, err.Error(), "2025-07")
	assert.Contains(t, err.Error(), "2025-08")
}

func TestServiceRun_RecordsOutcomes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// First run fails: the balance artifact is missing
	artifact, err := os.ReadFile(f.paths.Balance)
	require.NoError(t, err)
	require.NoError(t, os.Remove(f.paths.Balance))

	_, err = f.svc.Run(ctx, 12)
	require.ErrorIs(t, err, ErrArtifactNotFound)

	// Restore it; failed loads are not cached, so the next run succeeds
	require.NoError(t, os.WriteFile(f.paths.Balance, artifact, 0644))

	_, err = f.svc.Run(ctx, 18)
	require.NoError(t, err)

	records, err := f.runs.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	byStatus := make(map[string]runlog.Record, 2)
	for _, rec := range records {
		byStatus[rec.Status] = rec
	}

	failed := byStatus[runlog.StatusError]
	assert.Equal(t, 12, failed.Horizon)
	assert.NotEmpty(t, failed.Error)

	succeeded := byStatus[runlog.StatusOK]
	assert.Equal(t, 18, succeeded.Horizon)
	assert.Empty(t, succeeded.Error)
}

func TestServiceRun_PublishesLifecycleEvents(t *testing.T) {
	f := newFixture(t)

	var got []events.EventType
	for _, et := range events.AllTypes {
		f.bus.Subscribe(et, func(e *events.Event) {
			got = append(got, e.Type)
		})
	}

	_, err := f.svc.Run(context.Background(), 12)
	require.NoError(t, err)

	require.Len(t, got, 4)
	assert.Equal(t, events.RunStarted, got[0])
	assert.Equal(t, events.DatasetLoaded, got[1])
	assert.Equal(t, events.ModelsLoaded, got[2])
	assert.Equal(t, events.ForecastCompleted, got[3])
}

func TestServiceRun_SecondRunUsesCachedModels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Run(ctx, 12)
	require.NoError(t, err)

	// Remove every artifact; the second run must still succeed from memory
	for _, path := range []string{f.paths.Exports, f.paths.Imports, f.paths.Balance} {
		require.NoError(t, os.Remove(path))
	}

	result, err := f.svc.Run(ctx, 6)
	require.NoError(t, err)
	assert.Len(t, result.Exports, 6)

	stats := f.svc.Store().CacheStats()
	assert.Equal(t, uint64(3), stats.Misses)
	assert.Equal(t, uint64(3), stats.Hits)
}

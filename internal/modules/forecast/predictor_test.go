package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPredictor(t *testing.T, a *Artifact) *Predictor {
	t.Helper()
	if a.Cutoff.IsZero() {
		a.Cutoff = time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)
	}
	if a.Target == "" {
		a.Target = "test"
	}
	if a.ARCoeffs == nil {
		a.ARCoeffs = make([]float64, a.Order.P)
	}
	if a.MACoeffs == nil {
		a.MACoeffs = make([]float64, a.Order.Q)
	}
	if a.SARCoeffs == nil {
		a.SARCoeffs = make([]float64, a.Order.SP)
	}
	if a.SMACoeffs == nil {
		a.SMACoeffs = make([]float64, a.Order.SQ)
	}
	a.Schema = SchemaVersion

	p, err := NewPredictor(a)
	require.NoError(t, err)
	return p
}

func TestForecast_AR1HandComputed(t *testing.T) {
	// y_t = mu + phi*(y_{t-1} - mu), phi=0.5, mu=10, last value 14:
	// 10 + 0.5*4 = 12, then 11, then 10.5
	p := newPredictor(t, &Artifact{
		Order:        Order{P: 1},
		ARCoeffs:     []float64{0.5},
		Intercept:    10,
		DiffTail:     []float64{14},
		ResidualTail: []float64{0},
	})

	got, err := p.Forecast(3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.InDelta(t, 12.0, got[0], 1e-9)
	assert.InDelta(t, 11.0, got[1], 1e-9)
	assert.InDelta(t, 10.5, got[2], 1e-9)
}

func TestForecast_MAUsesKnownResidualsOnly(t *testing.T) {
	// One step ahead sees the last training residual, two steps ahead sees
	// only future residuals, which are zero.
	p := newPredictor(t, &Artifact{
		Order:        Order{Q: 1},
		MACoeffs:     []float64{0.5},
		Intercept:    0,
		DiffTail:     []float64{5},
		ResidualTail: []float64{2},
	})

	got, err := p.Forecast(2)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got[0], 1e-9)
	assert.InDelta(t, 0.0, got[1], 1e-9)
}

func TestForecast_D1IntegrationIsCumulativeSum(t *testing.T) {
	// Differenced model predicts a constant 2 every month; with d=1 the
	// original scale walks up from the last raw level 100.
	p := newPredictor(t, &Artifact{
		Order:        Order{D: 1},
		Intercept:    2,
		DiffTail:     []float64{},
		ResidualTail: []float64{},
		RawTail:      []float64{100},
	})

	got, err := p.Forecast(3)
	require.NoError(t, err)
	assert.InDelta(t, 102.0, got[0], 1e-9)
	assert.InDelta(t, 104.0, got[1], 1e-9)
	assert.InDelta(t, 106.0, got[2], 1e-9)
}

func TestForecast_SeasonalIntegrationRepeatsSeason(t *testing.T) {
	// Zero differenced forecast with sd=1, m=4: each month equals the same
	// month one season back, so the last season repeats.
	p := newPredictor(t, &Artifact{
		Order:        Order{SD: 1, M: 4},
		Intercept:    0,
		DiffTail:     []float64{},
		ResidualTail: []float64{},
		RawTail:      []float64{10, 20, 30, 40},
	})

	got, err := p.Forecast(5)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 30, 40, 10}, got)
}

func TestForecast_SeasonalAROverDifferencedSeries(t *testing.T) {
	// sp=1, m=2, phi_s=0.5, mu=0: each step halves the value two steps back.
	p := newPredictor(t, &Artifact{
		Order:        Order{SP: 1, M: 2},
		SARCoeffs:    []float64{0.5},
		Intercept:    0,
		DiffTail:     []float64{8, 4},
		ResidualTail: []float64{0, 0},
	})

	got, err := p.Forecast(4)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, got[0], 1e-9) // 0.5 * 8
	assert.InDelta(t, 2.0, got[1], 1e-9) // 0.5 * 4
	assert.InDelta(t, 2.0, got[2], 1e-9) // 0.5 * got[0]
	assert.InDelta(t, 1.0, got[3], 1e-9) // 0.5 * got[1]
}

func TestForecast_RejectsNonPositiveHorizon(t *testing.T) {
	p := newPredictor(t, &Artifact{
		Order:        Order{P: 1},
		ARCoeffs:     []float64{0.5},
		DiffTail:     []float64{1},
		ResidualTail: []float64{0},
	})

	_, err := p.Forecast(0)
	assert.ErrorIs(t, err, ErrForecastFailed)
}

func TestForecast_LengthMatchesHorizon(t *testing.T) {
	p := newPredictor(t, &Artifact{
		Order:        Order{P: 1, D: 1},
		ARCoeffs:     []float64{0.3},
		Intercept:    1,
		DiffTail:     []float64{2},
		ResidualTail: []float64{0},
		RawTail:      []float64{50, 52},
	})

	for _, horizon := range []int{1, 6, 12, 36} {
		got, err := p.Forecast(horizon)
		require.NoError(t, err)
		assert.Len(t, got, horizon)
	}
}

func TestNewPredictor_RejectsInvalidArtifact(t *testing.T) {
	_, err := NewPredictor(&Artifact{Schema: 99})
	assert.ErrorIs(t, err, ErrArtifactInvalid)
}

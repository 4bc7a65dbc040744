package forecast

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aldikusuma/neraca/internal/events"
	"github.com/aldikusuma/neraca/internal/modules/dataset"
	"github.com/aldikusuma/neraca/internal/modules/runlog"
)

// Horizon bounds in months. The default applies when a run request leaves
// the horizon unset; settings may override the default but never the bounds.
const (
	HorizonMin     = 6
	HorizonMax     = 36
	DefaultHorizon = 12
)

// Paths locates the three model artifacts on disk.
type Paths struct {
	Exports string
	Imports string
	Balance string
}

// Result is one combined forecast. All slices have length Horizon and share
// the Dates index; Dates continue monthly from one month after Cutoff.
type Result struct {
	RunID   string      `json:"run_id"`
	Horizon int         `json:"horizon"`
	Cutoff  time.Time   `json:"cutoff"`
	Dates   []time.Time `json:"dates"`
	Exports []float64   `json:"exports"`
	Imports []float64   `json:"imports"`
	Balance []float64   `json:"balance"`
}

// Service orchestrates forecast runs: it checks the historical dataset,
// loads the three models, verifies they agree on a training cutoff, and
// produces one aligned Result. Either all three forecasts succeed or the
// run fails; there is no partial result.
type Service struct {
	mu sync.Mutex

	store       *Store
	loader      *dataset.Loader
	datasetPath string
	paths       Paths
	bus         *events.Bus
	runs        *runlog.Repository
	log         zerolog.Logger
}

// NewService creates the forecast orchestrator. The runlog repository may be
// nil, which disables run recording.
func NewService(
	store *Store,
	loader *dataset.Loader,
	datasetPath string,
	paths Paths,
	bus *events.Bus,
	runs *runlog.Repository,
	log zerolog.Logger,
) *Service {
	return &Service{
		store:       store,
		loader:      loader,
		datasetPath: datasetPath,
		paths:       paths,
		bus:         bus,
		runs:        runs,
		log:         log.With().Str("service", "forecast").Logger(),
	}
}

// Run executes one forecast for the given horizon. Runs are serialized: a
// second request while one is in flight waits its turn rather than racing
// the model caches.
func (s *Service) Run(ctx context.Context, horizon int) (*Result, error) {
	if horizon < HorizonMin || horizon > HorizonMax {
		return nil, fmt.Errorf("%w: %d months (allowed %d to %d)",
			ErrHorizonOutOfRange, horizon, HorizonMin, HorizonMax)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	runID := uuid.New().String()
	started := time.Now()
	log := s.log.With().Str("run_id", runID).Int("horizon", horizon).Logger()

	log.Info().Msg("Forecast run started")
	s.publish(events.RunStarted, events.RunStartedData{RunID: runID, Horizon: horizon})

	result, err := s.run(ctx, runID, horizon, log)
	duration := time.Since(started)

	if err != nil {
		log.Error().Err(err).Dur("duration", duration).Msg("Forecast run failed")
		s.publish(events.RunFailed, events.RunFailedData{
			RunID: runID,
			Code:  ErrorCode(err),
			Error: err.Error(),
		})
		s.record(ctx, runID, horizon, duration, err)
		return nil, err
	}

	log.Info().
		Dur("duration", duration).
		Str("first_month", result.Dates[0].Format("2006-01")).
		Str("last_month", result.Dates[horizon-1].Format("2006-01")).
		Msg("Forecast run completed")
	s.publish(events.ForecastCompleted, events.ForecastCompletedData{
		RunID:      runID,
		Horizon:    horizon,
		FirstMonth: result.Dates[0].Format("2006-01"),
		LastMonth:  result.Dates[horizon-1].Format("2006-01"),
		DurationMs: duration.Milliseconds(),
	})
	s.record(ctx, runID, horizon, duration, nil)
	return result, nil
}

func (s *Service) run(ctx context.Context, runID string, horizon int, log zerolog.Logger) (*Result, error) {
	// The dataset must be loadable before any model work happens. The
	// loader memoizes, so this is a map lookup on every run after the first.
	series, err := s.loader.Load(s.datasetPath)
	if err != nil {
		return nil, err
	}

	cached := 0
	for _, path := range []string{s.paths.Exports, s.paths.Imports, s.paths.Balance} {
		if s.store.Cached(path) {
			cached++
		}
	}

	exports, err := s.store.Load(s.paths.Exports)
	if err != nil {
		return nil, err
	}
	imports, err := s.store.Load(s.paths.Imports)
	if err != nil {
		return nil, err
	}
	balance, err := s.store.Load(s.paths.Balance)
	if err != nil {
		return nil, err
	}

	// All three models must be trained through the same month, otherwise
	// their forecasts would describe different calendars.
	cutoff := exports.Cutoff()
	for _, m := range []*Predictor{imports, balance} {
		if !m.Cutoff().Equal(cutoff) {
			return nil, fmt.Errorf("%w: %s trained through %s, %s through %s",
				ErrCutoffMismatch,
				exports.Target(), cutoff.Format("2006-01"),
				m.Target(), m.Cutoff().Format("2006-01"))
		}
	}
	s.publish(events.ModelsLoaded, events.ModelsLoadedData{
		RunID:  runID,
		Cutoff: cutoff.Format("2006-01"),
		Cached: cached,
	})

	// Dataset lagging behind (or ahead of) the models only affects how the
	// chart seam looks, so it warns instead of failing the run.
	if last := series.LastDate(); !last.IsZero() && !last.Equal(cutoff) {
		log.Warn().
			Str("dataset_last", last.Format("2006-01")).
			Str("model_cutoff", cutoff.Format("2006-01")).
			Msg("Dataset end and model cutoff differ")
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrForecastFailed, err)
	}

	exportValues, err := s.forecastOne(exports, exports.Target(), horizon)
	if err != nil {
		return nil, err
	}
	importValues, err := s.forecastOne(imports, imports.Target(), horizon)
	if err != nil {
		return nil, err
	}
	balanceValues, err := s.forecastOne(balance, balance.Target(), horizon)
	if err != nil {
		return nil, err
	}

	dates := make([]time.Time, horizon)
	next := cutoff.AddDate(0, 1, 0)
	for i := range dates {
		dates[i] = next
		next = next.AddDate(0, 1, 0)
	}

	return &Result{
		RunID:   runID,
		Horizon: horizon,
		Cutoff:  cutoff,
		Dates:   dates,
		Exports: exportValues,
		Imports: importValues,
		Balance: balanceValues,
	}, nil
}

func (s *Service) forecastOne(m Model, target string, horizon int) ([]float64, error) {
	values, err := m.Forecast(horizon)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", target, err)
	}
	if len(values) != horizon {
		return nil, fmt.Errorf("%w: %s model returned %d values for horizon %d",
			ErrForecastFailed, target, len(values), horizon)
	}
	return values, nil
}

func (s *Service) publish(eventType events.EventType, data interface{}) {
	if s.bus != nil {
		s.bus.Emit(eventType, "forecast", data)
	}
}

func (s *Service) record(ctx context.Context, runID string, horizon int, duration time.Duration, runErr error) {
	if s.runs == nil {
		return
	}

	rec := &runlog.Record{
		ID:         runID,
		Horizon:    horizon,
		Status:     runlog.StatusOK,
		DurationMs: duration.Milliseconds(),
	}
	if runErr != nil {
		rec.Status = runlog.StatusError
		rec.Error = runErr.Error()
	}

	if err := s.runs.Insert(ctx, rec); err != nil {
		s.log.Error().Err(err).Str("run_id", runID).Msg("Failed to record run")
	}
}

// Store exposes the model store for status reporting.
func (s *Service) Store() *Store { return s.store }

// ModelPaths returns the configured artifact locations.
func (s *Service) ModelPaths() Paths { return s.paths }

// DatasetPath returns the configured historical dataset location.
func (s *Service) DatasetPath() string { return s.datasetPath }

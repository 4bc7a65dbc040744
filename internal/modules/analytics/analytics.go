// Package analytics derives summary statistics and smoothing overlays from
// the historical trade series. Everything here is recomputable from the
// memoized dataset, so results live in a bounded LRU rather than the
// process-lifetime memo.
package analytics

import (
	"fmt"

	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/aldikusuma/neraca/internal/cache"
	"github.com/aldikusuma/neraca/internal/modules/dataset"
)

// ColumnStats summarizes one value column of the dataset.
type ColumnStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summary describes the historical dataset as shown on the dashboard.
type Summary struct {
	Months        int         `json:"months"`
	FirstMonth    string      `json:"first_month"` // YYYY-MM
	LastMonth     string      `json:"last_month"`  // YYYY-MM
	Exports       ColumnStats `json:"exports"`
	Imports       ColumnStats `json:"imports"`
	Balance       ColumnStats `json:"balance"`
	Correlation   float64     `json:"exports_imports_correlation"`
	DeficitMonths int         `json:"deficit_months"` // months with a negative balance
	SurplusMonths int         `json:"surplus_months"`
}

// Service computes and caches dataset summaries.
type Service struct {
	cache *cache.LRU[string, *Summary]
	log   zerolog.Logger
}

// NewService creates the analytics service.
func NewService(log zerolog.Logger) *Service {
	// Size 16 is generous: keys only vary when the dataset file changes,
	// which requires a restart anyway.
	lru, err := cache.NewLRU[string, *Summary](16)
	if err != nil {
		panic(err) // only reachable with a non-positive size constant
	}
	return &Service{
		cache: lru,
		log:   log.With().Str("service", "analytics").Logger(),
	}
}

// Summarize returns the summary for the series, cached per dataset identity.
func (s *Service) Summarize(series *dataset.Series) (*Summary, error) {
	if series.Len() == 0 {
		return nil, fmt.Errorf("cannot summarize an empty series")
	}

	key := fmt.Sprintf("%s|%s|%d", series.Path, series.LastDate().Format("2006-01"), series.Len())
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	summary := &Summary{
		Months:     series.Len(),
		FirstMonth: series.First().Date.Format("2006-01"),
		LastMonth:  series.Last().Date.Format("2006-01"),
		Exports:    columnStats(series.ExportValues()),
		Imports:    columnStats(series.ImportValues()),
		Balance:    columnStats(series.BalanceValues()),
	}

	if series.Len() >= 2 {
		summary.Correlation = stat.Correlation(series.ExportValues(), series.ImportValues(), nil)
	}
	for _, b := range series.BalanceValues() {
		if b < 0 {
			summary.DeficitMonths++
		} else {
			summary.SurplusMonths++
		}
	}

	s.cache.Set(key, summary)
	s.log.Debug().Str("key", key).Msg("Dataset summary computed")
	return summary, nil
}

// CacheStats exposes cache counters for the status endpoint.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

func columnStats(values []float64) ColumnStats {
	cs := ColumnStats{
		Mean: stat.Mean(values, nil),
		Min:  floats.Min(values),
		Max:  floats.Max(values),
	}
	// StdDev of a single observation is undefined and would poison the JSON
	// encoding with NaN.
	if len(values) >= 2 {
		cs.StdDev = stat.StdDev(values, nil)
	}
	return cs
}

// TrailingAverage returns the window-point simple moving average of values.
// The first window-1 entries are zero, matching talib's SMA convention;
// callers should trim them before plotting. Returns nil when the input is
// shorter than the window.
func TrailingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) < window {
		return nil
	}
	return talib.Sma(values, window)
}

package forecast

import (
	"github.com/rs/zerolog"

	"github.com/aldikusuma/neraca/internal/cache"
)

// Store loads model artifacts and memoizes them per path for the process
// lifetime. A loaded model is immutable, so the only way to pick up a new
// artifact is a restart (artifact sync stages files for exactly that reason).
// Failed loads are not cached: dropping the file in place and re-running
// works without a restart.
type Store struct {
	memo *cache.Memo[string, *Predictor]
	log  zerolog.Logger
}

func NewStore(log zerolog.Logger) *Store {
	return &Store{
		memo: cache.NewMemo[string, *Predictor](),
		log:  log.With().Str("service", "models").Logger(),
	}
}

// Load returns the predictor for the artifact at path, reading the file at
// most once per process.
func (s *Store) Load(path string) (*Predictor, error) {
	return s.memo.Do(path, func() (*Predictor, error) {
		artifact, err := LoadArtifact(path)
		if err != nil {
			s.log.Error().Err(err).Str("path", path).Msg("Failed to load model artifact")
			return nil, err
		}

		predictor, err := NewPredictor(artifact)
		if err != nil {
			return nil, err
		}

		s.log.Info().
			Str("path", path).
			Str("target", artifact.Target).
			Str("order", artifact.Order.String()).
			Time("cutoff", artifact.Cutoff).
			Msg("Model artifact loaded")
		return predictor, nil
	})
}

// Cached reports whether the artifact at path is already in memory.
func (s *Store) Cached(path string) bool {
	_, ok := s.memo.Peek(path)
	return ok
}

// CacheStats exposes memoization counters for the status endpoint.
func (s *Store) CacheStats() cache.Stats {
	return s.memo.Stats()
}

// Loaded returns metadata for every model currently in memory.
func (s *Store) Loaded(paths ...string) []ModelInfo {
	var out []ModelInfo
	for _, path := range paths {
		p, ok := s.memo.Peek(path)
		if !ok {
			continue
		}
		out = append(out, ModelInfo{
			Path:     path,
			Target:   p.Target(),
			Order:    p.Order(),
			Cutoff:   p.Cutoff().Format("2006-01"),
			Variance: p.Variance(),
		})
	}
	return out
}

// ModelInfo describes one loaded model for the status endpoint.
type ModelInfo struct {
	Path     string  `json:"path"`
	Target   string  `json:"target"`
	Order    Order   `json:"order"`
	Cutoff   string  `json:"cutoff"`
	Variance float64 `json:"variance"`
}

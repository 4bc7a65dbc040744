// Package artifacts keeps the local model artifacts in sync with an
// S3-compatible bucket. Retrained models published to the bucket are
// downloaded into a staging directory and only moved over the live files on
// the next startup, so an in-memory model never changes mid-process.
package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aldikusuma/neraca/internal/events"
	"github.com/aldikusuma/neraca/internal/modules/forecast"
)

// stateFile records the ETag of the last staged download per remote key.
const stateFile = "sync_state.json"

// RemoteObject describes one object in the artifact bucket.
type RemoteObject struct {
	Key          string
	ETag         string
	Size         int64
	LastModified time.Time
}

// ObjectStore is the subset of the bucket API the sync service needs.
type ObjectStore interface {
	List(ctx context.Context) ([]RemoteObject, error)
	Download(ctx context.Context, key, destPath string) error
}

// Stats summarizes one sync pass.
type Stats struct {
	Listed int // objects seen under the prefix
	Staged int // artifacts newly downloaded into staging
}

// Service downloads changed model artifacts into a staging directory.
type Service struct {
	store      ObjectStore
	stagingDir string
	targets    map[string]string // artifact base name -> live path
	bus        *events.Bus
	log        zerolog.Logger

	mu    sync.Mutex
	state map[string]string // remote key -> last staged ETag
}

// NewService creates the artifact sync service. livePaths maps each
// artifact's base file name to the path the forecast store reads.
func NewService(store ObjectStore, stagingDir string, livePaths map[string]string, bus *events.Bus, log zerolog.Logger) (*Service, error) {
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	s := &Service{
		store:      store,
		stagingDir: stagingDir,
		targets:    livePaths,
		bus:        bus,
		log:        log.With().Str("service", "artifacts").Logger(),
		state:      make(map[string]string),
	}
	s.loadState()
	return s, nil
}

// Sync lists the bucket and stages every matching artifact whose ETag
// changed since the last download. Staged files do not replace the live
// artifacts; ApplyStaged does that on the next startup.
func (s *Service) Sync(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	objects, err := s.store.List(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to list artifact bucket: %w", err)
	}

	stats := Stats{Listed: len(objects)}
	failed := 0

	for _, obj := range objects {
		base := path.Base(obj.Key)
		if _, ok := s.targets[base]; !ok {
			continue
		}
		if obj.ETag != "" && s.state[obj.Key] == obj.ETag {
			continue
		}

		dest := filepath.Join(s.stagingDir, base)
		if err := s.stage(ctx, obj, dest); err != nil {
			s.log.Error().Err(err).Str("key", obj.Key).Msg("Failed to stage artifact")
			failed++
			continue
		}

		s.state[obj.Key] = obj.ETag
		stats.Staged++
		s.log.Info().
			Str("key", obj.Key).
			Str("staged", dest).
			Int64("bytes", obj.Size).
			Msg("Artifact staged, will apply on next startup")
	}

	if stats.Staged > 0 {
		s.saveState()
		if s.bus != nil {
			s.bus.Emit(events.ArtifactsSynced, "artifacts", events.ArtifactsSyncedData{
				Listed: stats.Listed,
				Staged: stats.Staged,
			})
		}
	} else if failed == 0 {
		s.log.Debug().Int("listed", stats.Listed).Msg("Artifacts up to date")
	}

	if failed > 0 {
		return stats, fmt.Errorf("failed to stage %d artifact(s)", failed)
	}
	return stats, nil
}

// stage downloads one object and verifies it decodes as a model artifact
// before accepting it. A published file that does not decode would otherwise
// replace a working model on the next restart.
func (s *Service) stage(ctx context.Context, obj RemoteObject, dest string) error {
	if err := s.store.Download(ctx, obj.Key, dest); err != nil {
		return err
	}

	f, err := os.Open(dest)
	if err != nil {
		return fmt.Errorf("failed to reopen staged file: %w", err)
	}
	defer f.Close()

	if _, err := forecast.DecodeArtifact(f); err != nil {
		os.Remove(dest)
		return fmt.Errorf("staged artifact rejected: %w", err)
	}
	return nil
}

// ApplyStaged moves staged artifacts over their live paths. Call this at
// startup before any model is loaded; the model store memoizes loads for
// the life of the process, so applying later would have no effect anyway.
func (s *Service) ApplyStaged() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	applied := 0
	for base, live := range s.targets {
		staged := filepath.Join(s.stagingDir, base)
		if _, err := os.Stat(staged); err != nil {
			continue
		}

		if err := os.MkdirAll(filepath.Dir(live), 0755); err != nil {
			return applied, fmt.Errorf("failed to create artifact directory: %w", err)
		}
		if err := os.Rename(staged, live); err != nil {
			return applied, fmt.Errorf("failed to apply staged artifact %s: %w", base, err)
		}

		applied++
		s.log.Info().Str("artifact", base).Str("path", live).Msg("Staged artifact applied")
	}
	return applied, nil
}

// StagingDir returns the staging directory path.
func (s *Service) StagingDir() string {
	return s.stagingDir
}

func (s *Service) statePath() string {
	return filepath.Join(s.stagingDir, stateFile)
}

func (s *Service) loadState() {
	data, err := os.ReadFile(s.statePath())
	if err != nil {
		return
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		s.log.Warn().Err(err).Msg("Ignoring unreadable sync state")
		s.state = make(map[string]string)
	}
}

func (s *Service) saveState() {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(s.statePath(), data, 0644); err != nil {
		s.log.Warn().Err(err).Msg("Failed to persist sync state")
	}
}

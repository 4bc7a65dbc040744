package artifacts

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const syncTimeout = 5 * time.Minute

// SyncJob runs a bucket sync pass on a schedule.
type SyncJob struct {
	service *Service
	log     zerolog.Logger
}

// NewSyncJob creates the scheduled sync job.
func NewSyncJob(service *Service, log zerolog.Logger) *SyncJob {
	return &SyncJob{
		service: service,
		log:     log.With().Str("job", "artifact_sync").Logger(),
	}
}

// Name returns the job name.
func (j *SyncJob) Name() string {
	return "artifact_sync"
}

// Run performs one sync pass.
func (j *SyncJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	stats, err := j.service.Sync(ctx)
	if err != nil {
		return err
	}
	if stats.Staged > 0 {
		j.log.Info().Int("staged", stats.Staged).Msg("New model artifacts staged, restart to apply")
	}
	return nil
}

package di

import (
	"github.com/rs/zerolog"

	"github.com/aldikusuma/neraca/internal/artifacts"
	"github.com/aldikusuma/neraca/internal/modules/runlog"
)

// JobInstances holds the background jobs for scheduler registration.
type JobInstances struct {
	RunLogCleanup *runlog.CleanupJob
	ArtifactSync  *artifacts.SyncJob // nil when sync is disabled
}

// RegisterJobs creates the background jobs wired to container services.
// Retention is read through the settings service on every cleanup run, so
// changing it takes effect without a restart.
func RegisterJobs(container *Container, log zerolog.Logger) *JobInstances {
	jobs := &JobInstances{
		RunLogCleanup: runlog.NewCleanupJob(
			container.RunRepo,
			container.RunsDB,
			container.SettingsService.RetentionDays,
			log,
		),
	}

	if container.ArtifactSync != nil {
		jobs.ArtifactSync = artifacts.NewSyncJob(container.ArtifactSync, log)
	}

	return jobs
}

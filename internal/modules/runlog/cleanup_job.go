package runlog

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Checkpointer compacts the WAL after bulk deletions.
type Checkpointer interface {
	WALCheckpoint(mode string) error
}

// CleanupJob prunes run records past the retention window. Scheduled daily;
// retention is re-read on every run so a settings change applies without a
// restart. A retention of zero or less disables pruning entirely.
type CleanupJob struct {
	repo          *Repository
	db            Checkpointer
	retentionDays func() int
	log           zerolog.Logger
}

// NewCleanupJob creates the run log cleanup job. db may be nil, in which
// case no checkpoint runs after pruning.
func NewCleanupJob(repo *Repository, db Checkpointer, retentionDays func() int, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		repo:          repo,
		db:            db,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "runlog_cleanup").Logger(),
	}
}

// Run deletes records older than the retention window.
func (j *CleanupJob) Run() error {
	retention := j.retentionDays()
	if retention <= 0 {
		return nil
	}

	cutoff := time.Now().AddDate(0, 0, -retention)
	deleted, err := j.repo.DeleteOlderThan(context.Background(), cutoff)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to prune run records")
		return err
	}

	if deleted > 0 {
		j.log.Info().
			Int64("deleted", deleted).
			Int("retention_days", retention).
			Msg("Pruned old run records")

		// Deleting rows grows the WAL; truncate it while the database is idle.
		if j.db != nil {
			if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
				j.log.Warn().Err(err).Msg("WAL checkpoint after cleanup failed")
			}
		}
	}
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *CleanupJob) Name() string {
	return "runlog_cleanup"
}

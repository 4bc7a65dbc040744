package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository stores run records in the runs database. Runs are append-only:
// nothing updates a record after insert, cleanup only deletes whole rows
// past retention.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new run log repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "runlog").Logger(),
	}
}

// Insert appends one run record. A zero CreatedAt is filled with now.
func (r *Repository) Insert(ctx context.Context, rec *Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO forecast_runs (id, horizon, status, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.Horizon,
		rec.Status,
		rec.Error,
		rec.DurationMs,
		rec.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run record: %w", err)
	}
	return nil
}

// Recent returns the newest records, most recent first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, horizon, status, error, duration_ms, created_at
		FROM forecast_runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query run records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.Horizon, &rec.Status, &rec.Error, &rec.DurationMs, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan run record: %w", err)
		}
		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count returns the total number of stored runs.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM forecast_runs").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count run records: %w", err)
	}
	return count, nil
}

// DeleteOlderThan removes records created before cutoff and returns how many
// were deleted.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM forecast_runs WHERE created_at < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune run records: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

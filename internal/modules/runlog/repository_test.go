package runlog

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, InitSchema(db))
	return db
}

func testRepo(t *testing.T) *Repository {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)
	return NewRepository(setupTestDB(t), log)
}

func TestRepository_InsertAndRecent(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	base := time.Date(2025, time.August, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := repo.Insert(ctx, &Record{
			ID:         string(rune('a' + i)),
			Horizon:    12,
			Status:     StatusOK,
			DurationMs: int64(10 + i),
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	records, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Most recent first
	assert.Equal(t, "c", records[0].ID)
	assert.Equal(t, "b", records[1].ID)
	assert.Equal(t, base.Add(2*time.Hour), records[0].CreatedAt)
}

func TestRepository_InsertFillsCreatedAt(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	rec := &Record{ID: "x", Horizon: 6, Status: StatusError, Error: "model artifact not found"}
	require.NoError(t, repo.Insert(ctx, rec))
	assert.False(t, rec.CreatedAt.IsZero())

	records, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, StatusError, records[0].Status)
	assert.Equal(t, "model artifact not found", records[0].Error)
}

func TestRepository_DeleteOlderThan(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	now := time.Now().UTC()
	old := &Record{ID: "old", Horizon: 12, Status: StatusOK, CreatedAt: now.AddDate(0, 0, -120)}
	fresh := &Record{ID: "fresh", Horizon: 12, Status: StatusOK, CreatedAt: now}
	require.NoError(t, repo.Insert(ctx, old))
	require.NoError(t, repo.Insert(ctx, fresh))

	deleted, err := repo.DeleteOlderThan(ctx, now.AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	records, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "fresh", records[0].ID)
}

func TestCleanupJob_RespectsRetention(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	log := zerolog.New(nil).Level(zerolog.Disabled)

	now := time.Now().UTC()
	require.NoError(t, repo.Insert(ctx, &Record{ID: "ancient", Horizon: 12, Status: StatusOK, CreatedAt: now.AddDate(0, 0, -31)}))
	require.NoError(t, repo.Insert(ctx, &Record{ID: "recent", Horizon: 12, Status: StatusOK, CreatedAt: now.AddDate(0, 0, -1)}))

	job := NewCleanupJob(repo, nil, func() int { return 30 }, log)
	assert.Equal(t, "runlog_cleanup", job.Name())
	require.NoError(t, job.Run())

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCleanupJob_DisabledRetentionKeepsEverything(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	log := zerolog.New(nil).Level(zerolog.Disabled)

	require.NoError(t, repo.Insert(ctx, &Record{ID: "ancient", Horizon: 12, Status: StatusOK, CreatedAt: time.Now().AddDate(-1, 0, 0)}))

	job := NewCleanupJob(repo, nil, func() int { return 0 }, log)
	require.NoError(t, job.Run())

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

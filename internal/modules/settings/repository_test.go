package settings

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLog = zerolog.New(nil).Level(zerolog.Disabled)

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
	return NewRepository(setupTestDB(t), testLog)
}

func TestRepository_GetMissingKey(t *testing.T) {
	repo := testRepo(t)

	value, ok, err := repo.Get("never_written")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestRepository_SetAndGet(t *testing.T) {
	repo := testRepo(t)

	require.NoError(t, repo.Set(KeyHistoryFromYear, "2021"))

	value, ok, err := repo.Get(KeyHistoryFromYear)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2021", value)
}

func TestRepository_SetOverwrites(t *testing.T) {
	repo := testRepo(t)

	require.NoError(t, repo.Set(KeyDefaultHorizon, "12"))
	require.NoError(t, repo.Set(KeyDefaultHorizon, "24"))

	value, ok, err := repo.Get(KeyDefaultHorizon)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "24", value)
}

func TestRepository_GetInt(t *testing.T) {
	repo := testRepo(t)

	require.NoError(t, repo.SetInt(KeyRetentionDays, 90))

	value, err := repo.GetInt(KeyRetentionDays, 30)
	require.NoError(t, err)
	assert.Equal(t, 90, value)
}

func TestRepository_GetIntParsesFloatForm(t *testing.T) {
	repo := testRepo(t)

	// Values migrated from older installs can carry a trailing ".0".
	require.NoError(t, repo.Set(KeyDefaultHorizon, "12.0"))

	value, err := repo.GetInt(KeyDefaultHorizon, 6)
	require.NoError(t, err)
	assert.Equal(t, 12, value)
}

func TestRepository_GetIntFallsBackOnGarbage(t *testing.T) {
	repo := testRepo(t)

	require.NoError(t, repo.Set(KeyDefaultHorizon, "twelve"))

	value, err := repo.GetInt(KeyDefaultHorizon, 6)
	require.NoError(t, err)
	assert.Equal(t, 6, value)
}

func TestRepository_GetIntMissingKeyUsesDefault(t *testing.T) {
	repo := testRepo(t)

	value, err := repo.GetInt(KeyMAWindow, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, value)
}

func TestRepository_Bool(t *testing.T) {
	repo := testRepo(t)

	require.NoError(t, repo.SetBool("flag", true))
	value, err := repo.GetBool("flag", false)
	require.NoError(t, err)
	assert.True(t, value)

	for _, truthy := range []string{"true", "1", "yes", "on"} {
		require.NoError(t, repo.Set("flag", truthy))
		value, err = repo.GetBool("flag", false)
		require.NoError(t, err)
		assert.True(t, value, "expected %q to read as true", truthy)
	}

	require.NoError(t, repo.Set("flag", "off"))
	value, err = repo.GetBool("flag", true)
	require.NoError(t, err)
	assert.False(t, value)
}

func TestRepository_Delete(t *testing.T) {
	repo := testRepo(t)

	require.NoError(t, repo.Set(KeyMAWindow, "6"))
	require.NoError(t, repo.Delete(KeyMAWindow))

	_, ok, err := repo.Get(KeyMAWindow)
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an absent key is fine.
	require.NoError(t, repo.Delete(KeyMAWindow))
}

func TestRepository_GetAll(t *testing.T) {
	repo := testRepo(t)

	require.NoError(t, repo.Set(KeyHistoryFromYear, "2020"))
	require.NoError(t, repo.Set(KeyDefaultHorizon, "12"))

	all, err := repo.GetAll()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		KeyHistoryFromYear: "2020",
		KeyDefaultHorizon:  "12",
	}, all)
}

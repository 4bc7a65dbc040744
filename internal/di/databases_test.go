package di

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldikusuma/neraca/internal/config"
)

func TestInitializeDatabases(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := &config.Config{
		DataDir: tmpDir,
	}

	log := zerolog.Nop()

	container, err := InitializeDatabases(cfg, log)
	require.NoError(t, err)
	require.NotNil(t, container)

	assert.NotNil(t, container.RunsDB)
	assert.NotNil(t, container.ConfigDB)

	assert.FileExists(t, filepath.Join(tmpDir, "runs.db"))
	assert.FileExists(t, filepath.Join(tmpDir, "config.db"))

	// Schemas are applied: both tables are queryable.
	_, err = container.RunsDB.Conn().Exec("SELECT COUNT(*) FROM forecast_runs")
	assert.NoError(t, err)
	_, err = container.ConfigDB.Conn().Exec("SELECT COUNT(*) FROM settings")
	assert.NoError(t, err)

	container.Close(log)
}

func TestInitializeDatabases_InvalidPath(t *testing.T) {
	// A data dir nested under a regular file cannot be created.
	tmpDir := t.TempDir()
	blocker := filepath.Join(tmpDir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	cfg := &config.Config{
		DataDir: filepath.Join(blocker, "nested"),
	}

	container, err := InitializeDatabases(cfg, zerolog.Nop())
	assert.Error(t, err)
	assert.Nil(t, container)
}

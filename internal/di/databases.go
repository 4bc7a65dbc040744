package di

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/aldikusuma/neraca/internal/config"
	"github.com/aldikusuma/neraca/internal/database"
	"github.com/aldikusuma/neraca/internal/modules/runlog"
	"github.com/aldikusuma/neraca/internal/modules/settings"
)

// InitializeDatabases opens both databases and applies their schemas.
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// runs.db - append-only forecast run history
	runsDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "runs.db"),
		Profile: database.ProfileLedger,
		Name:    "runs",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize runs database: %w", err)
	}
	container.RunsDB = runsDB

	// config.db - runtime settings
	configDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "config.db"),
		Profile: database.ProfileStandard,
		Name:    "config",
	})
	if err != nil {
		runsDB.Close()
		return nil, fmt.Errorf("failed to initialize config database: %w", err)
	}
	container.ConfigDB = configDB

	if err := runlog.InitSchema(runsDB.Conn()); err != nil {
		container.Close(log)
		return nil, fmt.Errorf("failed to apply runs schema: %w", err)
	}
	if err := settings.InitSchema(configDB.Conn()); err != nil {
		container.Close(log)
		return nil, fmt.Errorf("failed to apply config schema: %w", err)
	}

	log.Info().Msg("Databases initialized and schemas applied")
	return container, nil
}

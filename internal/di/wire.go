package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aldikusuma/neraca/internal/config"
)

// Wire initializes all dependencies and returns a fully configured container.
// Order of operations:
//  1. Initialize databases and schemas
//  2. Initialize repositories and services
//  3. Create background jobs
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, *JobInstances, error) {
	container, err := InitializeDatabases(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := InitializeServices(container, cfg, log); err != nil {
		container.Close(log)
		return nil, nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	jobs := RegisterJobs(container, log)

	log.Info().Msg("Dependency injection wiring completed")
	return container, jobs, nil
}

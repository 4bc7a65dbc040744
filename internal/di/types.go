// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/rs/zerolog"

	"github.com/aldikusuma/neraca/internal/artifacts"
	"github.com/aldikusuma/neraca/internal/database"
	"github.com/aldikusuma/neraca/internal/events"
	"github.com/aldikusuma/neraca/internal/modules/analytics"
	"github.com/aldikusuma/neraca/internal/modules/charts"
	"github.com/aldikusuma/neraca/internal/modules/dataset"
	"github.com/aldikusuma/neraca/internal/modules/forecast"
	"github.com/aldikusuma/neraca/internal/modules/runlog"
	"github.com/aldikusuma/neraca/internal/modules/settings"
)

// Container holds every initialized dependency.
type Container struct {
	// Databases
	RunsDB   *database.DB // forecast run history, append-only
	ConfigDB *database.DB // runtime settings

	// Core infrastructure
	Bus *events.Bus

	// Repositories
	RunRepo      *runlog.Repository
	SettingsRepo *settings.Repository

	// Services
	DatasetLoader    *dataset.Loader
	ModelStore       *forecast.Store
	ForecastService  *forecast.Service
	ChartsService    *charts.Service
	AnalyticsService *analytics.Service
	SettingsService  *settings.Service
	ArtifactSync     *artifacts.Service // nil when no bucket is configured
}

// Close releases every database connection the container owns.
func (c *Container) Close(log zerolog.Logger) {
	for _, db := range []*database.DB{c.RunsDB, c.ConfigDB} {
		if db == nil {
			continue
		}
		if err := db.Close(); err != nil {
			log.Error().Err(err).Str("database", db.Name()).Msg("Failed to close database")
		}
	}
}

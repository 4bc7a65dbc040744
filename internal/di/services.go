package di

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/aldikusuma/neraca/internal/artifacts"
	"github.com/aldikusuma/neraca/internal/config"
	"github.com/aldikusuma/neraca/internal/events"
	"github.com/aldikusuma/neraca/internal/modules/analytics"
	"github.com/aldikusuma/neraca/internal/modules/charts"
	"github.com/aldikusuma/neraca/internal/modules/dataset"
	"github.com/aldikusuma/neraca/internal/modules/forecast"
	"github.com/aldikusuma/neraca/internal/modules/runlog"
	"github.com/aldikusuma/neraca/internal/modules/settings"
)

// InitializeServices wires every repository and service into the container.
// Databases must already be initialized.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.Bus = events.NewBus(log)

	container.RunRepo = runlog.NewRepository(container.RunsDB.Conn(), log)
	container.SettingsRepo = settings.NewRepository(container.ConfigDB.Conn(), log)

	container.SettingsService = settings.NewService(
		container.SettingsRepo,
		settings.Defaults{
			HistoryFromYear: cfg.HistoryFromYear,
			DefaultHorizon:  cfg.DefaultHorizon,
			HorizonMin:      forecast.HorizonMin,
			HorizonMax:      forecast.HorizonMax,
			RetentionDays:   cfg.RunLogRetentionDays,
		},
		container.Bus,
		log,
	)

	container.DatasetLoader = dataset.NewLoader(container.Bus, log)
	container.ModelStore = forecast.NewStore(log)
	container.AnalyticsService = analytics.NewService(log)
	container.ChartsService = charts.NewService(log)

	container.ForecastService = forecast.NewService(
		container.ModelStore,
		container.DatasetLoader,
		cfg.DatasetPath,
		forecast.Paths{
			Exports: cfg.ExportsModelPath,
			Imports: cfg.ImportsModelPath,
			Balance: cfg.BalanceModelPath,
		},
		container.Bus,
		container.RunRepo,
		log,
	)

	// Artifact sync is optional: without a bucket the models stay local-only.
	if cfg.ArtifactSync.Enabled() {
		s3Client, err := artifacts.NewS3Client(context.Background(), cfg.ArtifactSync, log)
		if err != nil {
			return fmt.Errorf("failed to initialize object storage client: %w", err)
		}

		sync, err := artifacts.NewService(
			s3Client,
			filepath.Join(cfg.DataDir, "staging"),
			map[string]string{
				filepath.Base(cfg.ExportsModelPath): cfg.ExportsModelPath,
				filepath.Base(cfg.ImportsModelPath): cfg.ImportsModelPath,
				filepath.Base(cfg.BalanceModelPath): cfg.BalanceModelPath,
			},
			container.Bus,
			log,
		)
		if err != nil {
			return fmt.Errorf("failed to initialize artifact sync: %w", err)
		}
		container.ArtifactSync = sync
		log.Info().Str("bucket", cfg.ArtifactSync.Bucket).Msg("Artifact sync enabled")
	}

	log.Info().Msg("Services initialized")
	return nil
}

// Package main is the entry point for the Neraca trade balance forecasting
// service. It serves SARIMA forecasts of Indonesian exports, imports, and the
// trade balance over a REST API with an embedded dashboard frontend.
//
// The application follows a layered architecture:
// - Dependency injection via DI container
// - Repository pattern for data access
// - Service layer for forecasting and presentation logic
// - HTTP handlers for API endpoints
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aldikusuma/neraca/internal/config"
	"github.com/aldikusuma/neraca/internal/di"
	"github.com/aldikusuma/neraca/internal/scheduler"
	"github.com/aldikusuma/neraca/internal/server"
	"github.com/aldikusuma/neraca/pkg/logger"
)

// main orchestrates the system startup sequence:
// 1. Loads configuration from environment variables
// 2. Initializes logging
// 3. Wires all dependencies via the DI container (databases, repositories, services)
// 4. Applies any model artifacts staged by a previous sync run
// 5. Registers and starts background jobs (run log cleanup, artifact sync)
// 6. Starts the HTTP server
// 7. Waits for a shutdown signal and performs graceful shutdown
func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger with config level
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting Neraca")

	// Wire all dependencies using DI container
	// This initializes databases, repositories, and services:
	// - runs.db holds the forecast run log
	// - config.db holds user-adjustable settings
	// - model artifacts and the historical dataset are loaded lazily on first use
	container, jobs, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close(log)

	// Apply model artifacts staged by a previous sync run. This happens before
	// any forecast can load a model, so a restart picks up new artifacts without
	// ever swapping a model mid-process.
	if container.ArtifactSync != nil {
		applied, err := container.ArtifactSync.ApplyStaged()
		if err != nil {
			log.Error().Err(err).Msg("Failed to apply staged artifacts")
		} else if applied > 0 {
			log.Info().Int("applied", applied).Msg("Staged model artifacts applied")
		}
	}

	// Register background jobs with the cron scheduler.
	// Run log cleanup runs daily at 03:00, artifact sync hourly when enabled.
	sched := scheduler.New(log)
	if err := sched.AddJob("0 0 3 * * *", jobs.RunLogCleanup); err != nil {
		log.Error().Err(err).Msg("Failed to schedule run log cleanup")
	}
	if jobs.ArtifactSync != nil {
		if err := sched.AddJob("@hourly", jobs.ArtifactSync); err != nil {
			log.Error().Err(err).Msg("Failed to schedule artifact sync")
		}
		// Check for new artifacts once at startup so a fresh deployment does
		// not wait an hour for its first sync.
		go func() {
			if err := sched.RunNow(jobs.ArtifactSync); err != nil {
				log.Warn().Err(err).Msg("Startup artifact sync failed")
			}
		}()
	}
	sched.Start()
	defer sched.Stop()

	// Initialize HTTP server
	// The HTTP server provides REST API endpoints for:
	// - Forecast runs and configuration
	// - Historical dataset access and summary statistics
	// - Run history and settings management
	// - System status and the SSE event stream
	// - Frontend static assets (embedded in Go binary)
	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
		Scheduler: sched,
	})

	// Start server in goroutine so the main thread can wait for signals
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	// The HTTP server is given up to 10 seconds to finish in-flight requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

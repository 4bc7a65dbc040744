package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aldikusuma/neraca/internal/database"
	"github.com/aldikusuma/neraca/internal/di"
	"github.com/aldikusuma/neraca/internal/modules/forecast"
	"github.com/aldikusuma/neraca/internal/scheduler"
)

// SystemHandlers provides system monitoring endpoints.
type SystemHandlers struct {
	container   *di.Container
	sched       *scheduler.Scheduler
	dataDir     string
	startupTime time.Time
	log         zerolog.Logger
}

// NewSystemHandlers creates system monitoring handlers.
func NewSystemHandlers(container *di.Container, sched *scheduler.Scheduler, dataDir string, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		container:   container,
		sched:       sched,
		dataDir:     dataDir,
		startupTime: time.Now(),
		log:         log.With().Str("handler", "system").Logger(),
	}
}

// HandleSystemStatus handles GET /api/system/status.
//
// One call answers everything the dashboard's status panel shows: process
// stats, dataset availability, which models are in memory, cache counters
// and job state.
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := h.getSystemStats()

	forecastSvc := h.container.ForecastService
	paths := forecastSvc.ModelPaths()

	models := forecastSvc.Store().Loaded(paths.Exports, paths.Imports, paths.Balance)
	if models == nil {
		models = []forecast.ModelInfo{}
	}

	response := map[string]interface{}{
		"uptime_seconds": int64(time.Since(h.startupTime).Seconds()),
		"go_version":     runtime.Version(),
		"cpu_percent":    cpuPercent,
		"ram_percent":    ramPercent,
		"data_dir_mb":    h.getDirSize(h.dataDir),
		"dataset":        h.datasetStatus(),
		"models": map[string]interface{}{
			"loaded":   models,
			"expected": 3,
		},
		"caches": map[string]interface{}{
			"dataset":   h.container.DatasetLoader.CacheStats(),
			"models":    forecastSvc.Store().CacheStats(),
			"analytics": h.container.AnalyticsService.CacheStats(),
		},
		"databases": h.databaseStatus(r.Context()),
	}
	if h.sched != nil {
		response["jobs"] = h.sched.Statuses()
	}

	h.writeJSON(w, response)
}

// HandleJobsStatus handles GET /api/system/jobs.
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	statuses := []scheduler.JobStatus{}
	if h.sched != nil {
		statuses = h.sched.Statuses()
	}
	h.writeJSON(w, map[string]interface{}{"jobs": statuses})
}

// databaseStatus reports per-database health and on-disk size.
func (h *SystemHandlers) databaseStatus(ctx context.Context) []map[string]interface{} {
	status := make([]map[string]interface{}, 0, 2)
	for _, db := range []*database.DB{h.container.RunsDB, h.container.ConfigDB} {
		if db == nil {
			continue
		}

		entry := map[string]interface{}{
			"name":    db.Name(),
			"path":    db.Path(),
			"healthy": true,
		}
		if err := db.QuickCheck(ctx); err != nil {
			entry["healthy"] = false
			entry["error"] = err.Error()
		}
		if stats, err := db.GetStats(); err == nil {
			entry["size_bytes"] = stats.SizeBytes
			entry["wal_size_bytes"] = stats.WALSizeBytes
		}
		status = append(status, entry)
	}
	return status
}

// datasetStatus reports on the configured dataset without forcing a load.
// A file that exists is loaded through the memoized loader, so after the
// first forecast run this is free.
func (h *SystemHandlers) datasetStatus() map[string]interface{} {
	path := h.container.ForecastService.DatasetPath()
	status := map[string]interface{}{
		"path":      path,
		"available": false,
	}

	if _, err := os.Stat(path); err != nil {
		return status
	}

	series, err := h.container.DatasetLoader.Load(path)
	if err != nil {
		status["error"] = err.Error()
		return status
	}

	status["available"] = true
	status["months"] = series.Len()
	if series.Len() > 0 {
		status["first_month"] = series.First().Date.Format("2006-01")
		status["last_month"] = series.Last().Date.Format("2006-01")
	}
	return status
}

// getSystemStats returns CPU and RAM usage percentages. The CPU sample uses
// a 100ms window so the status endpoint stays fast.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}

// getDirSize calculates the total size of a directory in MB.
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	var totalSize int64

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})
	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

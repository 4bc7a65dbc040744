package server

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/aldikusuma/neraca/internal/di"
	"github.com/aldikusuma/neraca/internal/events"
)

// StatusMonitor periodically checks service readiness and emits an event
// when it changes, so SSE clients see a dataset or model artifact appear or
// disappear without polling.
type StatusMonitor struct {
	container *di.Container
	log       zerolog.Logger
	stop      chan struct{}

	lastReady map[string]bool
}

// NewStatusMonitor creates a new status monitor.
func NewStatusMonitor(container *di.Container, log zerolog.Logger) *StatusMonitor {
	return &StatusMonitor{
		container: container,
		log:       log.With().Str("component", "status_monitor").Logger(),
		stop:      make(chan struct{}),
		lastReady: make(map[string]bool),
	}
}

// Start begins periodic readiness monitoring.
func (m *StatusMonitor) Start(interval time.Duration) {
	go m.monitor(interval)
}

// Stop ends the monitoring loop.
func (m *StatusMonitor) Stop() {
	close(m.stop)
}

func (m *StatusMonitor) monitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.checkReadiness()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.checkReadiness()
		}
	}
}

// checkReadiness stats the dataset and the three artifacts and emits a
// system_status_changed event when any of them flips.
func (m *StatusMonitor) checkReadiness() {
	paths := m.container.ForecastService.ModelPaths()
	current := map[string]bool{
		"dataset":       fileExists(m.container.ForecastService.DatasetPath()),
		"model_exports": fileExists(paths.Exports),
		"model_imports": fileExists(paths.Imports),
		"model_balance": fileExists(paths.Balance),
	}

	changed := len(m.lastReady) == 0
	for name, ready := range current {
		if m.lastReady[name] != ready {
			changed = true
			break
		}
	}
	if !changed {
		return
	}

	m.lastReady = current
	m.log.Info().
		Bool("dataset", current["dataset"]).
		Bool("model_exports", current["model_exports"]).
		Bool("model_imports", current["model_imports"]).
		Bool("model_balance", current["model_balance"]).
		Msg("Readiness changed")

	m.container.Bus.Emit(events.SystemStatusChanged, "status_monitor", map[string]interface{}{
		"ready":     current,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

package events

// EventType identifies a class of events on the bus.
type EventType string

// Event types emitted by the application.
const (
	// Forecast run lifecycle
	RunStarted        EventType = "run_started"
	ModelsLoaded      EventType = "models_loaded"
	ForecastCompleted EventType = "forecast_completed"
	RunFailed         EventType = "run_failed"

	// Data and artifacts
	DatasetLoaded   EventType = "dataset_loaded"
	ArtifactsSynced EventType = "artifacts_synced"

	// Configuration and system
	SettingsChanged     EventType = "settings_changed"
	SystemStatusChanged EventType = "system_status_changed"
)

// AllTypes lists every event type, in the order the SSE stream subscribes.
var AllTypes = []EventType{
	RunStarted,
	ModelsLoaded,
	ForecastCompleted,
	RunFailed,
	DatasetLoaded,
	ArtifactsSynced,
	SettingsChanged,
	SystemStatusChanged,
}

// RunStartedData contains data for RunStarted events
type RunStartedData struct {
	RunID   string `json:"run_id"`
	Horizon int    `json:"horizon"`
}

// ModelsLoadedData contains data for ModelsLoaded events
type ModelsLoadedData struct {
	RunID  string `json:"run_id"`
	Cutoff string `json:"cutoff"` // YYYY-MM of the shared training cutoff
	Cached int    `json:"cached"` // How many of the three models came from cache
}

// ForecastCompletedData contains data for ForecastCompleted events
type ForecastCompletedData struct {
	RunID      string `json:"run_id"`
	Horizon    int    `json:"horizon"`
	FirstMonth string `json:"first_month"` // YYYY-MM
	LastMonth  string `json:"last_month"`  // YYYY-MM
	DurationMs int64  `json:"duration_ms"`
}

// RunFailedData contains data for RunFailed events
type RunFailedData struct {
	RunID string `json:"run_id"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

// DatasetLoadedData contains data for DatasetLoaded events
type DatasetLoadedData struct {
	Path  string `json:"path"`
	Rows  int    `json:"rows"`
	First string `json:"first"` // YYYY-MM
	Last  string `json:"last"`  // YYYY-MM
}

// SettingsChangedData contains data for SettingsChanged events
type SettingsChangedData struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// ArtifactsSyncedData contains data for ArtifactsSynced events
type ArtifactsSyncedData struct {
	Listed int `json:"listed"`
	Staged int `json:"staged"`
}

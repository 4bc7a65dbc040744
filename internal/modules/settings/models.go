// Package settings stores runtime display settings as key-value pairs in
// config.db. Settings override config defaults at read time, so the
// dashboard can retune itself without a restart. Only display behavior
// lives here; horizon bounds and file paths stay config-fixed.
package settings

// Keys understood by the settings API. Anything else is rejected on write.
const (
	// KeyHistoryFromYear is the first year of history drawn behind forecasts.
	KeyHistoryFromYear = "chart_history_from_year"
	// KeyDefaultHorizon is the horizon used when a run request leaves it unset.
	// Must stay within the config-fixed bounds.
	KeyDefaultHorizon = "default_horizon"
	// KeyRetentionDays is how long run log records are kept. Zero keeps forever.
	KeyRetentionDays = "runlog_retention_days"
	// KeyMAWindow is the moving average overlay window in months. Zero hides
	// the overlay.
	KeyMAWindow = "chart_ma_window"
)

// KnownKeys lists every accepted key, in display order.
var KnownKeys = []string{
	KeyHistoryFromYear,
	KeyDefaultHorizon,
	KeyRetentionDays,
	KeyMAWindow,
}

// KnownKey reports whether key is one of the accepted settings keys.
func KnownKey(key string) bool {
	for _, k := range KnownKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Defaults are the config-level fallbacks and validation bounds, wired in at
// construction so this package never reads the environment itself.
type Defaults struct {
	HistoryFromYear int
	DefaultHorizon  int
	HorizonMin      int
	HorizonMax      int
	RetentionDays   int
}

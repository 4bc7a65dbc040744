// Package runlog persists the audit trail of forecast runs. Only run
// metadata is stored; forecast rows are never persisted and live exactly as
// long as the HTTP response that carried them.
package runlog

import "time"

// Run status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Record is one forecast run outcome.
type Record struct {
	ID         string    `json:"id"`
	Horizon    int       `json:"horizon"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

package runlog

import "database/sql"

// InitSchema creates the forecast_runs table if needed.
func InitSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS forecast_runs (
    id TEXT PRIMARY KEY,
    horizon INTEGER NOT NULL,
    status TEXT NOT NULL,              -- 'ok' or 'error'
    error TEXT NOT NULL DEFAULT '',
    duration_ms INTEGER NOT NULL,
    created_at INTEGER NOT NULL        -- Unix timestamp
);

CREATE INDEX IF NOT EXISTS idx_forecast_runs_created ON forecast_runs(created_at);
CREATE INDEX IF NOT EXISTS idx_forecast_runs_status ON forecast_runs(status);
`
	_, err := db.Exec(schema)
	return err
}

package settings

import "database/sql"

// InitSchema creates the settings table if needed.
func InitSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    description TEXT,
    updated_at INTEGER NOT NULL      -- Unix timestamp
);
`
	_, err := db.Exec(schema)
	return err
}

package settings

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles the settings table in config.db. Values are stored as
// strings and converted on read; the typed getters fall back to a default
// when the key is absent or unparseable rather than failing the caller.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new settings repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "settings").Logger(),
	}
}

// Get retrieves a setting value. The second return is false when the key
// has never been set.
func (r *Repository) Get(key string) (string, bool, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts a setting value.
func (r *Repository) Set(key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// GetAll retrieves every stored setting.
func (r *Repository) GetAll() (map[string]string, error) {
	rows, err := r.db.Query("SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("failed to get all settings: %w", err)
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan setting row")
			continue
		}
		result[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settings: %w", err)
	}
	return result, nil
}

// GetInt retrieves a setting as an integer, falling back to defaultValue
// when the key is missing or does not parse. Values stored as "12.0" parse
// via float first.
func (r *Repository) GetInt(key string, defaultValue int) (int, error) {
	value, ok, err := r.Get(key)
	if err != nil {
		return defaultValue, err
	}
	if !ok {
		return defaultValue, nil
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		r.log.Warn().
			Str("key", key).
			Str("value", value).
			Msg("Failed to parse int setting, using default")
		return defaultValue, nil
	}
	return int(floatVal), nil
}

// SetInt stores an integer setting.
func (r *Repository) SetInt(key string, value int) error {
	return r.Set(key, strconv.Itoa(value))
}

// GetBool retrieves a setting as a boolean. Recognizes "true", "1", "yes"
// and "on" as truthy; anything else is false.
func (r *Repository) GetBool(key string, defaultValue bool) (bool, error) {
	value, ok, err := r.Get(key)
	if err != nil {
		return defaultValue, err
	}
	if !ok {
		return defaultValue, nil
	}

	switch value {
	case "true", "1", "yes", "on":
		return true, nil
	}
	return false, nil
}

// SetBool stores a boolean setting as "true" or "false".
func (r *Repository) SetBool(key string, value bool) error {
	return r.Set(key, strconv.FormatBool(value))
}

// Delete removes a setting. Idempotent: deleting an absent key is not an
// error, the next read just sees the default again.
func (r *Repository) Delete(key string) error {
	_, err := r.db.Exec("DELETE FROM settings WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}

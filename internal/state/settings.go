package state

import (
	"database/sql"
	"errors"
)

// Local settings keys.
const (
	SettingLastfmUser    = "lastfm.username"
	SettingLastfmSession = "lastfm.session_key"
)

// Setting returns a local setting, or "" when unset. Settings never leave
// this machine, whatever store holds the user document.
func (s *SQLite) Setting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SetSetting stores a local setting. An empty value deletes it.
func (s *SQLite) SetSetting(key, value string) error {
	if value == "" {
		_, err := s.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
		return err
	}
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

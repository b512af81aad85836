package state

import (
	"database/sql"
	"fmt"
)

const currentSchemaVersion = 2

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS user_documents (
			user_id TEXT PRIMARY KEY,
			revision INTEGER NOT NULL DEFAULT 0,
			origin TEXT NOT NULL DEFAULT '',
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS user_fields (
			user_id TEXT NOT NULL REFERENCES user_documents(user_id) ON DELETE CASCADE,
			field TEXT NOT NULL,
			value TEXT NOT NULL,
			origin TEXT NOT NULL DEFAULT '',
			version INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, field)
		);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return err
	}

	if err := migrateFieldStamps(db); err != nil {
		return fmt.Errorf("migrate user_fields: %w", err)
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, currentSchemaVersion)
	return err
}

// migrateFieldStamps adds the per-field origin and version columns to
// databases created before version 2.
func migrateFieldStamps(db *sql.DB) error {
	rows, err := db.Query(`SELECT name FROM pragma_table_info('user_fields')`)
	if err != nil {
		return err
	}
	have := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return err
		}
		have[name] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if !have["origin"] {
		if _, err := db.Exec(`ALTER TABLE user_fields ADD COLUMN origin TEXT NOT NULL DEFAULT ''`); err != nil {
			return err
		}
	}
	if !have["version"] {
		if _, err := db.Exec(`ALTER TABLE user_fields ADD COLUMN version INTEGER NOT NULL DEFAULT 0`); err != nil {
			return err
		}
	}
	return nil
}

package migrations

import "database/sql"

func init() {
	Register(Migration{
		Version: 1,
		Name:    "initial_schema",
		Up:      migrateInitialSchema,
	})
}

func migrateInitialSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			user_id INTEGER NOT NULL,
			event_text TEXT NOT NULL,
			event_time DATETIME,
			day INTEGER,
			hour INTEGER,
			minute INTEGER,
			is_deleted INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS events_user_id_is_deleted ON events (user_id, is_deleted);
		CREATE INDEX IF NOT EXISTS events_is_deleted ON events (is_deleted);
	`)
	return err
}

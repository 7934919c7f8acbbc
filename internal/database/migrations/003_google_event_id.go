package migrations

import "database/sql"

func init() {
	Register(Migration{
		Version: 3,
		Name:    "google_event_id",
		Up:      migrateGoogleEventID,
	})
}

func migrateGoogleEventID(db *sql.DB) error {
	return AddColumnIfNotExists(db, "events", "google_event_id", "TEXT")
}

package migrations

import "database/sql"

func init() {
	Register(Migration{
		Version: 2,
		Name:    "recurrent_fired_at",
		Up:      migrateRecurrentFiredAt,
	})
}

// Recurrent events keep the time they last fired so a weekly slot delivers
// once per matching day instead of being deleted after the first delivery.
func migrateRecurrentFiredAt(db *sql.DB) error {
	return AddColumnIfNotExists(db, "events", "fired_at", "DATETIME")
}

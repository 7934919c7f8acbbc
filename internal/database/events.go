package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/seravkin/notify-go/internal/reminder"
)

// EventKind discriminates stored event rows
type EventKind string

const (
	EventKindAbsolute  EventKind = "absolute"
	EventKindRecurrent EventKind = "recurrent"
)

// Event is a stored firing of an accepted notification
type Event struct {
	ID            int64
	Kind          EventKind
	UserID        int64
	Text          string
	Time          *time.Time
	Day           *int
	Hour          *int
	Minute        *int
	GoogleEventID *string
	FiredAt       *time.Time
	IsDeleted     bool
}

// DueEvent is an event that reached its firing time
type DueEvent struct {
	ID     int64
	Kind   EventKind
	UserID int64
	Text   string
}

// InsertOccurrences stores the expanded occurrences of an accepted
// notification in a single transaction and returns the new row IDs.
func (d *DB) InsertOccurrences(userID int64, text string, occurrences []reminder.Occurrence) ([]int64, error) {
	tx, err := d.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO events (kind, user_id, event_text, event_time, day, hour, minute, is_deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	ids := make([]int64, 0, len(occurrences))
	for _, occurrence := range occurrences {
		var result sql.Result
		switch occurrence.Kind {
		case reminder.KindAbsolute:
			result, err = stmt.Exec(EventKindAbsolute, userID, text, occurrence.At.UTC(), nil, nil, nil)
		case reminder.KindRecurrent:
			result, err = stmt.Exec(EventKindRecurrent, userID, text, nil, occurrence.Day, occurrence.Clock.Hours, occurrence.Clock.Minutes)
		default:
			return nil, fmt.Errorf("occurrence kind %q cannot be stored", occurrence.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to insert event: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to get event id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit events: %w", err)
	}
	return ids, nil
}

// SoftDeleteEvents marks events as deleted without removing the rows
func (d *DB) SoftDeleteEvents(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE events SET is_deleted = 1 WHERE id IN (%s)", placeholders(len(ids)))
	if _, err := d.Exec(query, int64Args(ids)...); err != nil {
		return fmt.Errorf("failed to delete events: %w", err)
	}
	return nil
}

// GetDueEvents returns active events that reached their firing time.
// Absolute events are due once their timestamp has passed. Recurrent events
// are due on their weekday once their time of day has passed, unless they
// already fired since startOfDay (local midnight).
func (d *DB) GetDueEvents(now time.Time, weekday int, startOfDay time.Time) ([]DueEvent, error) {
	local := now.In(startOfDay.Location())
	minuteOfDay := reminder.ClockTime{Hours: local.Hour(), Minutes: local.Minute()}.MinuteOfDay()

	rows, err := d.Query(`
		SELECT id, kind, user_id, event_text FROM events
		WHERE is_deleted = 0 AND (
			kind = ? AND event_time < ? OR
			kind = ? AND day = ? AND hour * 60 + minute < ?
				AND (fired_at IS NULL OR fired_at < ?)
		)
		ORDER BY id ASC
	`, EventKindAbsolute, now.UTC(), EventKindRecurrent, weekday, minuteOfDay, startOfDay.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query due events: %w", err)
	}
	defer rows.Close()

	var events []DueEvent
	for rows.Next() {
		var event DueEvent
		if err := rows.Scan(&event.ID, &event.Kind, &event.UserID, &event.Text); err != nil {
			return nil, fmt.Errorf("failed to scan due event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due events: %w", err)
	}
	return events, nil
}

// MarkEventFired finishes a delivered event: absolute events are soft
// deleted, recurrent ones record the firing time so they fire again on the
// next matching day.
func (d *DB) MarkEventFired(event DueEvent, firedAt time.Time) error {
	switch event.Kind {
	case EventKindAbsolute:
		return d.SoftDeleteEvents([]int64{event.ID})
	case EventKindRecurrent:
		if _, err := d.Exec(`UPDATE events SET fired_at = ? WHERE id = ?`, firedAt.UTC(), event.ID); err != nil {
			return fmt.Errorf("failed to mark event fired: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unknown event kind %q", event.Kind)
}

// SetGoogleEventID records the synced Google Calendar event for a row
func (d *DB) SetGoogleEventID(id int64, googleEventID string) error {
	if _, err := d.Exec(`UPDATE events SET google_event_id = ? WHERE id = ?`, googleEventID, id); err != nil {
		return fmt.Errorf("failed to set google event id: %w", err)
	}
	return nil
}

// GetGoogleEventIDs returns the synced calendar event IDs for the given rows
func (d *DB) GetGoogleEventIDs(ids []int64) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(
		"SELECT google_event_id FROM events WHERE google_event_id IS NOT NULL AND id IN (%s)",
		placeholders(len(ids)),
	)
	rows, err := d.Query(query, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query google event ids: %w", err)
	}
	defer rows.Close()

	var googleIDs []string
	for rows.Next() {
		var googleID string
		if err := rows.Scan(&googleID); err != nil {
			return nil, fmt.Errorf("failed to scan google event id: %w", err)
		}
		googleIDs = append(googleIDs, googleID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating google event ids: %w", err)
	}
	return googleIDs, nil
}

// GetEventByID retrieves a single event row
func (d *DB) GetEventByID(id int64) (*Event, error) {
	var event Event
	var eventTime sql.NullTime
	var day, hour, minute sql.NullInt64
	var googleEventID sql.NullString
	var firedAt sql.NullTime
	var isDeleted int

	err := d.QueryRow(`
		SELECT id, kind, user_id, event_text, event_time, day, hour, minute, google_event_id, fired_at, is_deleted
		FROM events WHERE id = ?
	`, id).Scan(&event.ID, &event.Kind, &event.UserID, &event.Text, &eventTime, &day, &hour, &minute, &googleEventID, &firedAt, &isDeleted)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	if eventTime.Valid {
		t := eventTime.Time
		event.Time = &t
	}
	if day.Valid {
		v := int(day.Int64)
		event.Day = &v
	}
	if hour.Valid {
		v := int(hour.Int64)
		event.Hour = &v
	}
	if minute.Valid {
		v := int(minute.Int64)
		event.Minute = &v
	}
	if googleEventID.Valid {
		event.GoogleEventID = &googleEventID.String
	}
	if firedAt.Valid {
		t := firedAt.Time
		event.FiredAt = &t
	}
	event.IsDeleted = isDeleted != 0

	return &event, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

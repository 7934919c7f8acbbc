package gcal

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
)

var ErrEventNotFound = errors.New("google calendar event not found")

// defaultEventLength pads a point-in-time reminder into a calendar block.
const defaultEventLength = 15 * time.Minute

// CreateReminderEvent mirrors an absolute reminder into the calendar and
// returns the created event ID.
func (c *Client) CreateReminderEvent(calendarID, text string, at time.Time) (string, error) {
	if c.service == nil {
		return "", fmt.Errorf("calendar service not initialized")
	}

	if calendarID == "" {
		calendarID = "primary"
	}

	// RFC3339 format includes timezone offset, so Google Calendar can infer the timezone
	event := &calendar.Event{
		Summary: text,
		Start: &calendar.EventDateTime{
			DateTime: at.Format(time.RFC3339),
		},
		End: &calendar.EventDateTime{
			DateTime: at.Add(defaultEventLength).Format(time.RFC3339),
		},
	}

	created, err := c.service.Events.Insert(calendarID, event).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}

	return created.Id, nil
}

// DeleteEvent removes a previously mirrored event
func (c *Client) DeleteEvent(calendarID, eventID string) error {
	if c.service == nil {
		return fmt.Errorf("calendar service not initialized")
	}

	if calendarID == "" {
		calendarID = "primary"
	}

	if err := c.service.Events.Delete(calendarID, eventID).Do(); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to delete event: %w", err)
	}

	return nil
}

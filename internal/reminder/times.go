package reminder

import (
	"encoding/json"
	"fmt"
	"time"
)

// Timestamp layouts accepted for absolute notifications, in the order the
// original examples use them.
var stampLayouts = []string{
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
}

// StampLayout is the canonical layout absolute timestamps are rendered with.
const StampLayout = "02.01.2006 15:04:05"

// ClockTime is a time of day without a date, serialized as "HH:MM".
type ClockTime struct {
	Hours   int
	Minutes int
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hours, c.Minutes)
}

// MinuteOfDay returns the clock time as minutes since midnight.
func (c ClockTime) MinuteOfDay() int {
	return c.Hours*60 + c.Minutes
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseClockTime parses "HH:MM", tolerating a trailing ":SS".
func ParseClockTime(s string) (ClockTime, error) {
	var hours, minutes, seconds int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &hours, &minutes, &seconds); err != nil {
		if _, err := fmt.Sscanf(s, "%d:%d", &hours, &minutes); err != nil {
			return ClockTime{}, fmt.Errorf("invalid time of day %q", s)
		}
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return ClockTime{}, fmt.Errorf("time of day %q out of range", s)
	}
	return ClockTime{Hours: hours, Minutes: minutes}, nil
}

func parseStamp(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range stampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

func formatStamp(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(StampLayout)
}

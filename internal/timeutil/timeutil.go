package timeutil

import (
	"time"
)

// PromptClockLayout is the clock format embedded in the parser prompt,
// e.g. `21.07.2022 22:37:01, Thursday`.
const PromptClockLayout = "02.01.2006 15:04:05, Monday"

var defaultLocation = time.UTC

// ResolveLocation returns the configured location with UTC fallback.
func ResolveLocation(timezone string) (*time.Location, bool) {
	if timezone == "" {
		return defaultLocation, true
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return defaultLocation, true
	}
	return loc, false
}

// FormatPromptClock renders the current time the way the prompt examples do.
func FormatPromptClock(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(PromptClockLayout)
}

// Weekday returns the 1-based weekday (1=Monday..7=Sunday) of t in loc.
func Weekday(t time.Time, loc *time.Location) int {
	wd := int(t.In(loc).Weekday())
	if wd == 0 { // time.Sunday
		return 7
	}
	return wd
}

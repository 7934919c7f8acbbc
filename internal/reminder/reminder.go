package reminder

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind discriminates the notification shapes the model may return.
type Kind string

const (
	KindAbsolute  Kind = "abs"
	KindRelative  Kind = "rel"
	KindRecurrent Kind = "rec"
)

// Notification is the structured reminder parsed from a model completion.
// Absolute notifications carry concrete timestamps; relative ones carry a
// week offset plus weekdays and times of day; recurrent ones carry weekdays
// (empty = every day) and times of day.
type Notification struct {
	Kind  Kind
	Text  string
	Times []time.Time // absolute, stored in UTC
	Week  int         // relative: 0 = this week, 1 = next week, ...
	Days  []int       // 1=Monday .. 7=Sunday
	Clock []ClockTime // relative/recurrent times of day
}

// Occurrence is a single stored firing of a notification: either a concrete
// point in time or a weekly (day, time-of-day) slot.
type Occurrence struct {
	Kind  Kind // KindAbsolute or KindRecurrent
	At    time.Time
	Day   int
	Clock ClockTime
}

// Codec encodes and decodes notifications. Absolute timestamps on the wire
// have no zone marker, so the codec carries the location they are read in.
type Codec struct {
	Loc *time.Location
}

func NewCodec(loc *time.Location) *Codec {
	if loc == nil {
		loc = time.UTC
	}
	return &Codec{Loc: loc}
}

// wireNotification tolerates both naming schemes observed in the prompt
// examples: long and short kind discriminators, and "time"/"times" carrying
// either a single string or an array.
type wireNotification struct {
	Kind  string          `json:"kind"`
	Text  string          `json:"text"`
	Times json.RawMessage `json:"times,omitempty"`
	Time  json.RawMessage `json:"time,omitempty"`
	Week  *int            `json:"week,omitempty"`
	Days  []int           `json:"days,omitempty"`
}

// Decode parses a notification JSON object.
func (c *Codec) Decode(data []byte) (*Notification, error) {
	var wire wireNotification
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("failed to parse notification: %w", err)
	}

	kind, err := normalizeKind(wire.Kind)
	if err != nil {
		return nil, err
	}
	if wire.Text == "" {
		return nil, fmt.Errorf("notification has no text")
	}

	raw := wire.Times
	if len(raw) == 0 {
		raw = wire.Time
	}
	values, err := rawStrings(raw)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("notification has no times")
	}

	n := &Notification{Kind: kind, Text: wire.Text}

	switch kind {
	case KindAbsolute:
		for _, value := range values {
			t, err := parseStamp(value, c.Loc)
			if err != nil {
				return nil, err
			}
			n.Times = append(n.Times, t)
		}
	case KindRelative, KindRecurrent:
		for _, value := range values {
			clock, err := ParseClockTime(value)
			if err != nil {
				return nil, err
			}
			n.Clock = append(n.Clock, clock)
		}
		if err := validateDays(wire.Days); err != nil {
			return nil, err
		}
		n.Days = wire.Days
		if kind == KindRelative {
			if wire.Week == nil {
				return nil, fmt.Errorf("relative notification has no week")
			}
			if *wire.Week < 0 {
				return nil, fmt.Errorf("week offset %d is negative", *wire.Week)
			}
			if len(wire.Days) == 0 {
				return nil, fmt.Errorf("relative notification has no days")
			}
			n.Week = *wire.Week
		}
	}

	return n, nil
}

// Encode renders the canonical short-form JSON for a notification.
func (c *Codec) Encode(n *Notification) ([]byte, error) {
	wire := wireNotification{Kind: string(n.Kind), Text: n.Text}

	switch n.Kind {
	case KindAbsolute:
		stamps := make([]string, len(n.Times))
		for i, t := range n.Times {
			stamps[i] = formatStamp(t, c.Loc)
		}
		raw, err := json.Marshal(stamps)
		if err != nil {
			return nil, err
		}
		wire.Times = raw
	case KindRelative, KindRecurrent:
		raw, err := json.Marshal(n.Clock)
		if err != nil {
			return nil, err
		}
		wire.Times = raw
		wire.Days = n.Days
		if n.Kind == KindRelative {
			week := n.Week
			wire.Week = &week
		}
	default:
		return nil, fmt.Errorf("unknown notification kind %q", n.Kind)
	}

	return json.Marshal(wire)
}

// Occurrences expands the notification into stored firings anchored at now.
// Relative weeks resolve against the Monday of the current week in loc; a
// zero week offset with any requested weekday already passed rolls the whole
// notification to next week. Recurrent notifications without explicit days
// fire every day.
func (n *Notification) Occurrences(now time.Time, loc *time.Location) []Occurrence {
	switch n.Kind {
	case KindAbsolute:
		occurrences := make([]Occurrence, len(n.Times))
		for i, t := range n.Times {
			occurrences[i] = Occurrence{Kind: KindAbsolute, At: t}
		}
		return occurrences

	case KindRelative:
		local := now.In(loc)
		currentDay := weekdayIndex(local)

		week := n.Week
		if week == 0 {
			for _, day := range n.Days {
				if day <= currentDay {
					week = 1
					break
				}
			}
		}

		monday := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).
			AddDate(0, 0, -(currentDay-1)+week*7)

		var occurrences []Occurrence
		for _, day := range n.Days {
			date := monday.AddDate(0, 0, day-1)
			for _, clock := range n.Clock {
				at := time.Date(date.Year(), date.Month(), date.Day(), clock.Hours, clock.Minutes, 0, 0, loc)
				occurrences = append(occurrences, Occurrence{Kind: KindAbsolute, At: at.UTC()})
			}
		}
		return occurrences

	case KindRecurrent:
		days := n.Days
		if len(days) == 0 {
			days = []int{1, 2, 3, 4, 5, 6, 7}
		}
		var occurrences []Occurrence
		for _, day := range days {
			for _, clock := range n.Clock {
				occurrences = append(occurrences, Occurrence{Kind: KindRecurrent, Day: day, Clock: clock})
			}
		}
		return occurrences
	}

	return nil
}

func normalizeKind(kind string) (Kind, error) {
	switch kind {
	case "abs", "absolute":
		return KindAbsolute, nil
	case "rel", "relative":
		return KindRelative, nil
	case "rec", "recurrent":
		return KindRecurrent, nil
	}
	return "", fmt.Errorf("unknown notification kind %q", kind)
}

// rawStrings reads either a JSON array of strings or a single string.
func rawStrings(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, nil
	}
	return nil, fmt.Errorf("invalid times value %s", string(raw))
}

func validateDays(days []int) error {
	for _, day := range days {
		if day < 1 || day > 7 {
			return fmt.Errorf("weekday %d out of range (1=Monday..7=Sunday)", day)
		}
	}
	return nil
}

// weekdayIndex is the 1-based weekday of a local time, Monday first.
func weekdayIndex(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 { // time.Sunday
		return 7
	}
	return wd
}

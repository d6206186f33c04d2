package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// zonedTimeLayout is the wall-clock layout used by the calendar provider
// for zone-qualified instants.
const zonedTimeLayout = "2006-01-02T15:04:05"

// ZonedTime is an instant paired with the IANA zone it was authored in.
// The zone is preserved across marshalling so an event fetched back reports
// the same wall-clock time regardless of the server's local zone.
type ZonedTime struct {
	Time     time.Time
	TimeZone string
}

// NewZonedTime interprets a wall-clock time in the given zone
func NewZonedTime(wallClock string, tz string) (ZonedTime, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return ZonedTime{}, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	t, err := time.ParseInLocation(zonedTimeLayout, wallClock, loc)
	if err != nil {
		// Provider payloads may carry a full offset instead
		t, err = time.Parse(time.RFC3339, wallClock)
		if err != nil {
			return ZonedTime{}, fmt.Errorf("invalid date_time %q: %w", wallClock, err)
		}
		t = t.In(loc)
	}
	return ZonedTime{Time: t, TimeZone: tz}, nil
}

// In returns the instant in its authored zone
func (z ZonedTime) In() time.Time {
	loc, err := time.LoadLocation(z.TimeZone)
	if err != nil {
		return z.Time
	}
	return z.Time.In(loc)
}

// IsZero reports whether the instant is unset
func (z ZonedTime) IsZero() bool {
	return z.Time.IsZero()
}

type zonedTimeJSON struct {
	DateTime string `json:"date_time"`
	TimeZone string `json:"time_zone"`
}

// MarshalJSON implements json.Marshaler
func (z ZonedTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(zonedTimeJSON{
		DateTime: z.In().Format(zonedTimeLayout),
		TimeZone: z.TimeZone,
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (z *ZonedTime) UnmarshalJSON(data []byte) error {
	var raw zonedTimeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	zt, err := NewZonedTime(raw.DateTime, raw.TimeZone)
	if err != nil {
		return err
	}
	*z = zt
	return nil
}

// ReminderOverride is one explicit {method, minutes-before} entry on an event
type ReminderOverride struct {
	Method  Channel `json:"method"`
	Minutes int     `json:"minutes"`
}

// ReminderSpec describes how reminders are derived for an event: either the
// account defaults or an explicit ordered override list.
type ReminderSpec struct {
	UseDefault bool               `json:"use_default"`
	Overrides  []ReminderOverride `json:"overrides,omitempty"`
}

// CustomReminder is an ad-hoc reminder embedded in event metadata by the
// conversational agent; it bypasses both defaults and overrides.
type CustomReminder struct {
	Minutes int     `json:"minutes"`
	Channel Channel `json:"channel"`
	Message string  `json:"message,omitempty"`
}

// Event represents one calendar event (or one expanded occurrence of a
// recurring series, in which case SeriesID points at the parent).
type Event struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	Summary         string           `json:"summary"`
	Description     string           `json:"description,omitempty"`
	Location        string           `json:"location,omitempty"`
	Start           ZonedTime        `json:"start"`
	End             ZonedTime        `json:"end"`
	RecurrenceRule  string           `json:"recurrence_rule,omitempty"`
	SeriesID        string           `json:"series_id,omitempty"`
	Reminders       ReminderSpec     `json:"reminders"`
	CustomReminders []CustomReminder `json:"custom_reminders,omitempty"`
}

// IsRecurring reports whether the event carries a recurrence rule of its own
func (e *Event) IsRecurring() bool {
	return e.RecurrenceRule != ""
}

// Overlaps reports half-open interval intersection with [start, end).
// An event ending exactly when another starts does not overlap it.
func (e *Event) Overlaps(start, end time.Time) bool {
	return e.Start.Time.Before(end) && e.End.Time.After(start)
}

// Validate checks the fields this core relies on
func (e *Event) Validate() error {
	if e.Summary == "" {
		return fmt.Errorf("event summary is required")
	}
	if e.Start.IsZero() || e.End.IsZero() {
		return fmt.Errorf("event start and end are required")
	}
	if !e.End.Time.After(e.Start.Time) {
		return fmt.Errorf("event end must be after start")
	}
	return nil
}

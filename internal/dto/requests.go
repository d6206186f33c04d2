package dto

import (
	"fmt"
	"time"

	"github.com/glindberg2000/ella-ai-sub000/internal/domain"
)

// ZonedTimePayload is a wall-clock time plus the IANA zone it belongs to
type ZonedTimePayload struct {
	DateTime string `json:"date_time" binding:"required"`
	TimeZone string `json:"time_zone" binding:"required"`
}

// ToDomain validates and resolves the payload
func (p ZonedTimePayload) ToDomain() (domain.ZonedTime, error) {
	return domain.NewZonedTime(p.DateTime, p.TimeZone)
}

// ReminderOverridePayload is one explicit {method, minutes} entry
type ReminderOverridePayload struct {
	Method  string `json:"method" binding:"required"`
	Minutes int    `json:"minutes" binding:"min=0"`
}

// CustomReminderPayload is an ad-hoc reminder embedded by the agent
type CustomReminderPayload struct {
	Minutes int    `json:"minutes" binding:"min=0"`
	Channel string `json:"channel" binding:"required"`
	Message string `json:"message"`
}

// ReminderSpecPayload describes how reminders are derived for an event
type ReminderSpecPayload struct {
	UseDefault bool                      `json:"use_default"`
	Overrides  []ReminderOverridePayload `json:"overrides"`
}

// EventPayload is the boundary representation of an event. Optional fields
// are explicit; the payload is validated before it becomes a domain event.
type EventPayload struct {
	Summary         string                  `json:"summary" binding:"required"`
	Description     string                  `json:"description"`
	Location        string                  `json:"location"`
	Start           ZonedTimePayload        `json:"start" binding:"required"`
	End             ZonedTimePayload        `json:"end" binding:"required"`
	Recurrence      string                  `json:"recurrence"`
	Reminders       *ReminderSpecPayload    `json:"reminders"`
	CustomReminders []CustomReminderPayload `json:"custom_reminders"`
}

// ToDomain converts the payload into a validated domain event
func (p *EventPayload) ToDomain(userID string) (*domain.Event, error) {
	start, err := p.Start.ToDomain()
	if err != nil {
		return nil, fmt.Errorf("invalid start: %w", err)
	}
	end, err := p.End.ToDomain()
	if err != nil {
		return nil, fmt.Errorf("invalid end: %w", err)
	}

	event := &domain.Event{
		UserID:         userID,
		Summary:        p.Summary,
		Description:    p.Description,
		Location:       p.Location,
		Start:          start,
		End:            end,
		RecurrenceRule: p.Recurrence,
	}

	if p.Reminders == nil {
		event.Reminders = domain.ReminderSpec{UseDefault: true}
	} else {
		spec := domain.ReminderSpec{UseDefault: p.Reminders.UseDefault}
		for _, o := range p.Reminders.Overrides {
			ch, err := domain.ParseChannel(o.Method)
			if err != nil {
				return nil, fmt.Errorf("invalid reminder override: %w", err)
			}
			spec.Overrides = append(spec.Overrides, domain.ReminderOverride{Method: ch, Minutes: o.Minutes})
		}
		event.Reminders = spec
	}

	for _, cr := range p.CustomReminders {
		ch, err := domain.ParseChannel(cr.Channel)
		if err != nil {
			return nil, fmt.Errorf("invalid custom reminder: %w", err)
		}
		event.CustomReminders = append(event.CustomReminders, domain.CustomReminder{
			Minutes: cr.Minutes,
			Channel: ch,
			Message: cr.Message,
		})
	}

	if err := event.Validate(); err != nil {
		return nil, err
	}

	return event, nil
}

// ScheduleEventRequest creates an event after a conflict check
type ScheduleEventRequest struct {
	UserID string       `json:"user_id" binding:"required"`
	Event  EventPayload `json:"event" binding:"required"`
}

// ListEventsRequest lists events in a window, reminders expanded
type ListEventsRequest struct {
	UserID     string
	TimeMin    time.Time
	TimeMax    time.Time
	MaxResults int
}

// UpdateEventRequest updates event fields; nil fields are unchanged
type UpdateEventRequest struct {
	UserID          string                  `json:"user_id" binding:"required"`
	Summary         *string                 `json:"summary"`
	Description     *string                 `json:"description"`
	Location        *string                 `json:"location"`
	Start           *ZonedTimePayload       `json:"start"`
	End             *ZonedTimePayload       `json:"end"`
	Reminders       *ReminderSpecPayload    `json:"reminders"`
	UpdateSeries    bool                    `json:"update_series"`
	CustomReminders []CustomReminderPayload `json:"custom_reminders"`
}

// SendReminderRequest triggers one dispatch synchronously; used by the
// scheduler's manual path and for testing.
type SendReminderRequest struct {
	UserID        string `json:"user_id" binding:"required"`
	EventID       string `json:"event_id" binding:"required"`
	EventSummary  string `json:"event_summary" binding:"required"`
	EventStart    string `json:"event_start" binding:"required"`
	EventEnd      string `json:"event_end" binding:"required"`
	ReminderType  string `json:"reminder_type" binding:"required"`
	MinutesBefore int    `json:"minutes_before" binding:"min=0"`
}

// ShareCalendarRequest grants another account access to the user's calendar
type ShareCalendarRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Email  string `json:"email" binding:"required,email"`
	Role   string `json:"role"`
}

// ReminderResponse is one expanded reminder on a listed event
type ReminderResponse struct {
	Channel       string    `json:"channel"`
	MinutesBefore int       `json:"minutes_before"`
	AlertAt       time.Time `json:"alert_at"`
	Key           string    `json:"key"`
}

// EventResponse is the API representation of an event
type EventResponse struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	Summary     string             `json:"summary"`
	Description string             `json:"description,omitempty"`
	Location    string             `json:"location,omitempty"`
	Start       domain.ZonedTime   `json:"start"`
	End         domain.ZonedTime   `json:"end"`
	Recurrence  string             `json:"recurrence,omitempty"`
	SeriesID    string             `json:"series_id,omitempty"`
	Reminders   []ReminderResponse `json:"reminders"`
}

// SlotResponse is one suggested alternative interval
type SlotResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ConflictInfo describes why scheduling failed and what to try instead
type ConflictInfo struct {
	Conflicts      []EventResponse `json:"conflicts"`
	AvailableSlots []SlotResponse  `json:"available_slots"`
}

// ScheduleEventResponse is the /schedule_event result
type ScheduleEventResponse struct {
	Success      bool           `json:"success"`
	Event        *EventResponse `json:"event,omitempty"`
	ConflictInfo *ConflictInfo  `json:"conflict_info,omitempty"`
	Message      string         `json:"message,omitempty"`
}

// SendReminderResponse is the /send_reminder result
type SendReminderResponse struct {
	Success bool   `json:"success"`
	Receipt string `json:"receipt"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

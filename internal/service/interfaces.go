package service

import (
	"context"
	"time"

	"github.com/glindberg2000/ella-ai-sub000/internal/domain"
	"github.com/glindberg2000/ella-ai-sub000/internal/dto"
	"github.com/glindberg2000/ella-ai-sub000/internal/provider"
)

// CalendarAPI is the slice of the calendar provider this core consumes
type CalendarAPI interface {
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, maxResults int) ([]domain.Event, error)
	CreateEvent(ctx context.Context, calendarID string, event *domain.Event) (*domain.Event, error)
	GetEvent(ctx context.Context, calendarID, eventID string) (*domain.Event, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, event *domain.Event, updateSeries bool) (*domain.Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string, deleteSeries bool) error
	ShareCalendar(ctx context.Context, calendarID, email, role string) error
}

// ContentRenderer renders reminder text from structured event context
type ContentRenderer interface {
	Render(ctx context.Context, req provider.ContentRequest) (string, error)
}

// EmailSender delivers one email and returns a message id
type EmailSender interface {
	Send(ctx context.Context, to, subject, body, inReplyTo string) (string, error)
}

// SMSSender delivers one SMS and returns a message id
type SMSSender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// VoiceCaller places one outbound call and returns a call id
type VoiceCaller interface {
	StartCall(ctx context.Context, to, message string) (string, error)
}

// Ledger records which reminders have already been dispatched
type Ledger interface {
	IsSent(ctx context.Context, userID, eventID, key string) (bool, error)
	MarkSent(ctx context.Context, userID, eventID, key string, at time.Time) error
}

// EventService orchestrates scheduling operations for the HTTP surface
type EventService interface {
	Schedule(ctx context.Context, req *dto.ScheduleEventRequest) (*domain.Event, *ConflictResult, error)
	List(ctx context.Context, req *dto.ListEventsRequest) ([]dto.EventResponse, error)
	Update(ctx context.Context, eventID string, req *dto.UpdateEventRequest) (*domain.Event, *ConflictResult, error)
	Delete(ctx context.Context, userID, eventID string, deleteSeries bool) error
	SendReminder(ctx context.Context, req *dto.SendReminderRequest) (string, error)
	ShareCalendar(ctx context.Context, req *dto.ShareCalendarRequest) error
}

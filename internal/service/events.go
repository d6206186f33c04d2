package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/glindberg2000/ella-ai-sub000/internal/domain"
	"github.com/glindberg2000/ella-ai-sub000/internal/dto"
	"github.com/glindberg2000/ella-ai-sub000/internal/repository"
	"github.com/glindberg2000/ella-ai-sub000/internal/utils"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEventNotFound = errors.New("event not found")
)

type eventService struct {
	users     repository.UserRepository
	calendar  CalendarAPI
	conflicts *ConflictChecker
	computer  *ReminderComputer
	router    *DispatchRouter
	ledger    Ledger
	clock     Clock
	defaultTZ string
	logger    *zap.Logger
}

// NewEventService creates the scheduling service behind the HTTP surface
func NewEventService(
	users repository.UserRepository,
	calendar CalendarAPI,
	conflicts *ConflictChecker,
	computer *ReminderComputer,
	router *DispatchRouter,
	ledger Ledger,
	clock Clock,
	defaultTZ string,
	logger *zap.Logger,
) EventService {
	return &eventService{
		users:     users,
		calendar:  calendar,
		conflicts: conflicts,
		computer:  computer,
		router:    router,
		ledger:    ledger,
		clock:     clock,
		defaultTZ: defaultTZ,
		logger:    logger,
	}
}

func (s *eventService) user(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// Schedule conflict-checks the proposed event and creates it when free.
// On conflict the event is not created and the collisions plus alternative
// slots are returned instead.
func (s *eventService) Schedule(ctx context.Context, req *dto.ScheduleEventRequest) (*domain.Event, *ConflictResult, error) {
	user, err := s.user(ctx, req.UserID)
	if err != nil {
		return nil, nil, err
	}

	event, err := req.Event.ToDomain(user.ID)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.conflicts.CheckEvent(ctx, user, event)
	if err != nil {
		return nil, nil, err
	}
	if !result.OK {
		s.logger.Info("schedule rejected on conflict",
			zap.String("user_id", user.ID),
			zap.String("summary", event.Summary),
			zap.Int("conflicts", len(result.Conflicts)))
		return nil, result, nil
	}

	created, err := s.calendar.CreateEvent(ctx, user.Calendar(), event)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.logger.Info("event scheduled",
		zap.String("user_id", user.ID),
		zap.String("event_id", created.ID),
		zap.String("summary", created.Summary))

	return created, result, nil
}

// List returns the user's events in [TimeMin, TimeMax) with each event's
// reminders expanded to concrete alert times.
func (s *eventService) List(ctx context.Context, req *dto.ListEventsRequest) ([]dto.EventResponse, error) {
	user, err := s.user(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	timeMin := req.TimeMin
	timeMax := req.TimeMax
	if timeMin.IsZero() {
		timeMin = s.clock.Now()
	}
	if timeMax.IsZero() {
		timeMax = timeMin.Add(7 * 24 * time.Hour)
	}

	events, err := s.calendar.ListEvents(ctx, user.Calendar(), timeMin, timeMax, req.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	now := s.clock.Now()
	out := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		out = append(out, s.toResponse(&events[i], user, now))
	}
	return out, nil
}

// Update patches an event. When the time window moves, the new interval is
// conflict-checked first, excluding the event itself.
func (s *eventService) Update(ctx context.Context, eventID string, req *dto.UpdateEventRequest) (*domain.Event, *ConflictResult, error) {
	user, err := s.user(ctx, req.UserID)
	if err != nil {
		return nil, nil, err
	}

	event, err := s.calendar.GetEvent(ctx, user.Calendar(), eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load event: %w", err)
	}

	if req.Summary != nil {
		event.Summary = *req.Summary
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Location != nil {
		event.Location = *req.Location
	}

	timeChanged := false
	if req.Start != nil {
		start, err := req.Start.ToDomain()
		if err != nil {
			return nil, nil, fmt.Errorf("invalid start: %w", err)
		}
		event.Start = start
		timeChanged = true
	}
	if req.End != nil {
		end, err := req.End.ToDomain()
		if err != nil {
			return nil, nil, fmt.Errorf("invalid end: %w", err)
		}
		event.End = end
		timeChanged = true
	}

	if req.Reminders != nil {
		spec := domain.ReminderSpec{UseDefault: req.Reminders.UseDefault}
		for _, o := range req.Reminders.Overrides {
			ch, err := domain.ParseChannel(o.Method)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid reminder override: %w", err)
			}
			spec.Overrides = append(spec.Overrides, domain.ReminderOverride{Method: ch, Minutes: o.Minutes})
		}
		event.Reminders = spec
	}
	if req.CustomReminders != nil {
		event.CustomReminders = event.CustomReminders[:0]
		for _, cr := range req.CustomReminders {
			ch, err := domain.ParseChannel(cr.Channel)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid custom reminder: %w", err)
			}
			event.CustomReminders = append(event.CustomReminders, domain.CustomReminder{
				Minutes: cr.Minutes,
				Channel: ch,
				Message: cr.Message,
			})
		}
	}

	if err := event.Validate(); err != nil {
		return nil, nil, err
	}

	if timeChanged {
		result, err := s.conflicts.CheckEvent(ctx, user, event)
		if err != nil {
			return nil, nil, err
		}
		if !result.OK {
			return nil, result, nil
		}
	}

	updated, err := s.calendar.UpdateEvent(ctx, user.Calendar(), eventID, event, req.UpdateSeries)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update event: %w", err)
	}

	s.logger.Info("event updated",
		zap.String("user_id", user.ID),
		zap.String("event_id", eventID),
		zap.Bool("update_series", req.UpdateSeries))

	return updated, &ConflictResult{OK: true}, nil
}

// Delete removes an event, optionally the whole series
func (s *eventService) Delete(ctx context.Context, userID, eventID string, deleteSeries bool) error {
	user, err := s.user(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.calendar.DeleteEvent(ctx, user.Calendar(), eventID, deleteSeries); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	s.logger.Info("event deleted",
		zap.String("user_id", userID),
		zap.String("event_id", eventID),
		zap.Bool("delete_series", deleteSeries))

	return nil
}

// ShareCalendar grants an email address access to the user's calendar
// through the provider's ACL endpoint.
func (s *eventService) ShareCalendar(ctx context.Context, req *dto.ShareCalendarRequest) error {
	user, err := s.user(ctx, req.UserID)
	if err != nil {
		return err
	}

	if !utils.ValidateEmail(req.Email) {
		return fmt.Errorf("invalid email address: %s", req.Email)
	}

	role := req.Role
	if role == "" {
		role = "reader"
	}

	if err := s.calendar.ShareCalendar(ctx, user.Calendar(), utils.SanitizeEmail(req.Email), role); err != nil {
		return fmt.Errorf("failed to share calendar: %w", err)
	}

	s.logger.Info("calendar shared",
		zap.String("user_id", req.UserID),
		zap.String("email", req.Email),
		zap.String("role", role))

	return nil
}

// SendReminder dispatches one reminder immediately, subject to the same
// at-most-once ledger as the polling loop.
func (s *eventService) SendReminder(ctx context.Context, req *dto.SendReminderRequest) (string, error) {
	user, err := s.user(ctx, req.UserID)
	if err != nil {
		return "", err
	}

	channel, err := domain.ParseChannel(req.ReminderType)
	if err != nil {
		return "", err
	}

	loc, locErr := utils.ResolveLocation(user.Timezone, s.defaultTZ)
	if locErr != nil {
		s.logger.Warn("Invalid user timezone, using default",
			zap.String("user_id", user.ID),
			zap.Error(locErr))
	}
	start, err := time.ParseInLocation("2006-01-02T15:04:05", req.EventStart, loc)
	if err != nil {
		return "", fmt.Errorf("invalid event_start: %w", err)
	}
	end, err := time.ParseInLocation("2006-01-02T15:04:05", req.EventEnd, loc)
	if err != nil {
		return "", fmt.Errorf("invalid event_end: %w", err)
	}

	event := &domain.Event{
		ID:      req.EventID,
		UserID:  user.ID,
		Summary: req.EventSummary,
		Start:   domain.ZonedTime{Time: start, TimeZone: loc.String()},
		End:     domain.ZonedTime{Time: end, TimeZone: loc.String()},
	}

	rem := domain.Reminder{
		EventID: event.ID,
		Channel: channel,
		Minutes: req.MinutesBefore,
		AlertAt: start.Add(-time.Duration(req.MinutesBefore) * time.Minute),
	}

	sent, err := s.ledger.IsSent(ctx, user.ID, event.ID, rem.Key())
	if err != nil {
		return "", fmt.Errorf("ledger lookup failed: %w", err)
	}
	if sent {
		return "", nil
	}

	receipt, err := s.router.Dispatch(ctx, user, event, rem)
	if err != nil {
		return "", err
	}

	if err := s.ledger.MarkSent(ctx, user.ID, event.ID, rem.Key(), s.clock.Now()); err != nil {
		s.logger.Warn("failed to record dispatch in ledger",
			zap.String("user_id", user.ID),
			zap.String("event_id", event.ID),
			zap.String("reminder_key", rem.Key()),
			zap.Error(err))
	}

	return receipt, nil
}

func (s *eventService) toResponse(event *domain.Event, user *domain.User, now time.Time) dto.EventResponse {
	resp := dto.EventResponse{
		ID:          event.ID,
		UserID:      event.UserID,
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
		Start:       event.Start,
		End:         event.End,
		Recurrence:  event.RecurrenceRule,
		SeriesID:    event.SeriesID,
		Reminders:   []dto.ReminderResponse{},
	}
	for _, rem := range s.computer.Compute(event, user, now) {
		resp.Reminders = append(resp.Reminders, dto.ReminderResponse{
			Channel:       string(rem.Channel),
			MinutesBefore: rem.Minutes,
			AlertAt:       rem.AlertAt,
			Key:           rem.Key(),
		})
	}
	return resp
}

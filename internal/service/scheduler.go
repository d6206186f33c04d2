package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/glindberg2000/ella-ai-sub000/internal/domain"
	"github.com/glindberg2000/ella-ai-sub000/internal/repository"
	"github.com/glindberg2000/ella-ai-sub000/internal/utils"
	"github.com/glindberg2000/ella-ai-sub000/pkg/observability"
)

// SchedulerOptions bound the polling loop
type SchedulerOptions struct {
	PollInterval    time.Duration
	LookAhead       time.Duration
	DueGrace        time.Duration
	DefaultTimezone string
}

// PollingScheduler is the top-level reminder loop: every interval it walks
// all active users, computes due reminders and hands them to the dispatch
// router, gated by the ledger. One logical worker; a user's failure never
// aborts the pass for other users.
type PollingScheduler struct {
	users    repository.UserRepository
	calendar CalendarAPI
	computer *ReminderComputer
	ledger   Ledger
	router   *DispatchRouter
	clock    Clock
	opts     SchedulerOptions
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewPollingScheduler creates the reminder polling scheduler
func NewPollingScheduler(
	users repository.UserRepository,
	calendar CalendarAPI,
	computer *ReminderComputer,
	ledger Ledger,
	router *DispatchRouter,
	clock Clock,
	opts SchedulerOptions,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *PollingScheduler {
	return &PollingScheduler{
		users:    users,
		calendar: calendar,
		computer: computer,
		ledger:   ledger,
		router:   router,
		clock:    clock,
		opts:     opts,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run executes poll passes until ctx is cancelled. Cancellation takes
// effect at the next loop boundary; an in-flight dispatch is not
// interrupted.
func (s *PollingScheduler) Run(ctx context.Context) error {
	s.logger.Info("Reminder scheduler starting",
		zap.Duration("poll_interval", s.opts.PollInterval),
		zap.Duration("look_ahead", s.opts.LookAhead),
	)

	s.pass(ctx)

	ticker := s.clock.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Reminder scheduler stopped")
			return nil
		case <-ticker.C():
			s.pass(ctx)
		}
	}
}

// pass runs one full sweep over all active users
func (s *PollingScheduler) pass(ctx context.Context) {
	started := s.clock.Now()

	users, err := s.users.ListActive(ctx)
	if err != nil {
		s.logger.Error("Failed to list active users, skipping pass", zap.Error(err))
		return
	}

	for _, user := range users {
		if ctx.Err() != nil {
			return
		}
		if err := s.processUser(ctx, user); err != nil {
			// Isolated per user: credential, network or data problems
			// for one account never abort the pass.
			s.logger.Warn("User pass failed",
				zap.String("user_id", user.ID),
				zap.Error(err),
			)
		}
	}

	s.metrics.RecordPass(ctx, s.clock.Now().Sub(started).Seconds())
}

func (s *PollingScheduler) processUser(ctx context.Context, user *domain.User) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic while processing user",
				zap.String("user_id", user.ID),
				zap.Any("panic", r),
			)
		}
	}()

	loc, locErr := utils.ResolveLocation(user.Timezone, s.opts.DefaultTimezone)
	if locErr != nil {
		s.logger.Warn("Invalid user timezone, using default",
			zap.String("user_id", user.ID),
			zap.String("timezone", user.Timezone),
			zap.String("default", s.opts.DefaultTimezone),
		)
	}

	now := s.clock.Now().In(loc)

	events, err := s.calendar.ListEvents(ctx, user.Calendar(), now, now.Add(s.opts.LookAhead), 0)
	if err != nil {
		return err
	}

	for _, event := range events {
		if err := event.Validate(); err != nil {
			s.logger.Warn("Skipping malformed event",
				zap.String("user_id", user.ID),
				zap.String("event_id", event.ID),
				zap.Error(err),
			)
			continue
		}

		s.processEvent(ctx, user, &event, now)
	}

	return nil
}

// processEvent dispatches the due reminders of one event. Check-then-mark
// is sequential within a pass for a user, which is the atomicity the
// ledger needs.
func (s *PollingScheduler) processEvent(ctx context.Context, user *domain.User, event *domain.Event, now time.Time) {
	for _, rem := range s.computer.Compute(event, user, now) {
		if rem.AlertAt.After(now) {
			continue
		}

		sent, err := s.ledger.IsSent(ctx, user.ID, event.ID, rem.Key())
		if err != nil {
			s.logger.Warn("Ledger check failed, deferring reminder",
				zap.String("event_id", event.ID),
				zap.String("reminder_key", rem.Key()),
				zap.Error(err),
			)
			continue
		}
		if sent {
			continue
		}

		if _, err := s.router.Dispatch(ctx, user, event, rem); err != nil {
			// Not marked sent, so the next pass retries while the
			// reminder stays within the due grace window.
			s.logger.Warn("Reminder dispatch failed",
				zap.String("user_id", user.ID),
				zap.String("event_id", event.ID),
				zap.String("reminder_key", rem.Key()),
				zap.Error(err),
			)
			continue
		}

		if err := s.ledger.MarkSent(ctx, user.ID, event.ID, rem.Key(), s.clock.Now()); err != nil {
			s.logger.Error("Dispatched but failed to mark sent; duplicate possible",
				zap.String("event_id", event.ID),
				zap.String("reminder_key", rem.Key()),
				zap.Error(err),
			)
		}
	}
}

package service

import (
	"time"

	"github.com/glindberg2000/ella-ai-sub000/internal/domain"
)

// fallbackLeadMinutes caps the synthesized fallback reminder lead time
const fallbackLeadMinutes = 5

// ReminderComputer turns an event plus the owner's preferences into concrete
// reminder tuples. Stateless; grace bounds how far past its alert instant a
// reminder stays eligible before being dropped as stale.
type ReminderComputer struct {
	grace time.Duration
}

// NewReminderComputer creates a reminder computer with the given due grace
// window.
func NewReminderComputer(grace time.Duration) *ReminderComputer {
	return &ReminderComputer{grace: grace}
}

// Compute returns the reminders for one event, alert instants resolved in
// the event owner's zone. Reminders whose alert instant fell more than the
// grace window before now are discarded.
func (c *ReminderComputer) Compute(event *domain.Event, user *domain.User, now time.Time) []domain.Reminder {
	start := event.Start.In()

	var candidates []domain.Reminder

	switch {
	case len(event.CustomReminders) > 0:
		// Ad-hoc reminders embedded by the agent win over everything
		for _, cr := range event.CustomReminders {
			candidates = append(candidates, reminderFor(event, cr.Channel, cr.Minutes, start))
		}

	case event.Reminders.UseDefault:
		for _, method := range user.DefaultReminderMethods {
			candidates = append(candidates, reminderFor(event, method, user.DefaultReminderMinutes, start))
		}

	default:
		for _, o := range event.Reminders.Overrides {
			candidates = append(candidates, reminderFor(event, o.Method, o.Minutes, start))
		}
	}

	// Every future event gets at least one reminder: synthesize an
	// immediate in-app fallback when nothing else applied.
	if len(candidates) == 0 && start.After(now) {
		lead := fallbackLeadMinutes
		if remaining := int(start.Sub(now).Minutes()); remaining < lead {
			lead = remaining
		}
		candidates = append(candidates, reminderFor(event, domain.ChannelPopup, lead, start))
	}

	// Same channel + same minutes collapse to one entry; the ledger is
	// keyed on the reminder key, not on list position.
	seen := make(map[string]bool, len(candidates))
	reminders := make([]domain.Reminder, 0, len(candidates))
	staleBefore := now.Add(-c.grace)

	for _, r := range candidates {
		if seen[r.Key()] {
			continue
		}
		if r.AlertAt.Before(staleBefore) {
			continue
		}
		seen[r.Key()] = true
		reminders = append(reminders, r)
	}

	return reminders
}

func reminderFor(event *domain.Event, ch domain.Channel, minutes int, start time.Time) domain.Reminder {
	if minutes < 0 {
		minutes = 0
	}
	return domain.Reminder{
		EventID: event.ID,
		Channel: ch,
		Minutes: minutes,
		AlertAt: start.Add(-time.Duration(minutes) * time.Minute),
	}
}

package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/glindberg2000/ella-ai-sub000/internal/domain"
)

const (
	// maxSuggestedSlots caps the alternatives returned on conflict
	maxSuggestedSlots = 5

	// slotSearchWindow bounds the free-slot scan around the requested time
	slotSearchWindow = 3 * 24 * time.Hour

	// Recurring events are conflict-checked occurrence by occurrence up
	// to whichever bound hits first.
	recurrenceHorizon    = 90 * 24 * time.Hour
	maxSeriesOccurrences = 52
)

// Slot is a suggested free interval of the requested duration
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ConflictResult reports whether [start, end) is free, and if not, which
// events collide plus alternative slots of the same duration.
type ConflictResult struct {
	OK             bool
	Conflicts      []domain.Event
	AvailableSlots []Slot
}

// ConflictChecker tests proposed intervals against a user's existing events
type ConflictChecker struct {
	calendar CalendarAPI
	clock    Clock
	logger   *zap.Logger
}

// NewConflictChecker creates a conflict checker
func NewConflictChecker(calendar CalendarAPI, clock Clock, logger *zap.Logger) *ConflictChecker {
	return &ConflictChecker{calendar: calendar, clock: clock, logger: logger}
}

// Check tests a single proposed interval. excludeEventID skips the event
// being moved (and its series) so it does not conflict with itself.
func (c *ConflictChecker) Check(ctx context.Context, user *domain.User, start, end time.Time, excludeEventID string) (*ConflictResult, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("interval end must be after start")
	}

	windowMin := start.Add(-slotSearchWindow)
	windowMax := end.Add(slotSearchWindow)

	existing, err := c.calendar.ListEvents(ctx, user.Calendar(), windowMin, windowMax, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events for conflict check: %w", err)
	}

	busy := make([]domain.Event, 0, len(existing))
	for _, ev := range existing {
		if excludeEventID != "" && (ev.ID == excludeEventID || ev.SeriesID == excludeEventID) {
			continue
		}
		busy = append(busy, ev)
	}

	var conflicts []domain.Event
	for _, ev := range busy {
		// Half-open intersection: adjacent events do not conflict
		if ev.Overlaps(start, end) {
			conflicts = append(conflicts, ev)
		}
	}

	if len(conflicts) == 0 {
		return &ConflictResult{OK: true}, nil
	}

	slots := c.suggestSlots(busy, start, end.Sub(start), windowMin, windowMax)

	return &ConflictResult{
		OK:             false,
		Conflicts:      conflicts,
		AvailableSlots: slots,
	}, nil
}

// CheckEvent tests a proposed event, expanding its recurrence rule when
// present; each occurrence is checked separately, not the series as a whole.
func (c *ConflictChecker) CheckEvent(ctx context.Context, user *domain.User, event *domain.Event) (*ConflictResult, error) {
	duration := event.End.Time.Sub(event.Start.Time)

	if !event.IsRecurring() {
		return c.Check(ctx, user, event.Start.Time, event.End.Time, event.ID)
	}

	rule, err := rrule.StrToRRule(event.RecurrenceRule)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence rule %q: %w", event.RecurrenceRule, err)
	}
	rule.DTStart(event.Start.In())

	occurrences := rule.Between(event.Start.Time.Add(-time.Second), event.Start.Time.Add(recurrenceHorizon), true)
	if len(occurrences) > maxSeriesOccurrences {
		occurrences = occurrences[:maxSeriesOccurrences]
	}
	if len(occurrences) == 0 {
		occurrences = []time.Time{event.Start.Time}
	}

	for _, occ := range occurrences {
		result, err := c.Check(ctx, user, occ, occ.Add(duration), event.ID)
		if err != nil {
			return nil, err
		}
		if !result.OK {
			return result, nil
		}
	}

	return &ConflictResult{OK: true}, nil
}

// suggestSlots scans gaps between sorted busy intervals for free slots of
// the requested duration, preferring times at or after the requested start.
func (c *ConflictChecker) suggestSlots(busy []domain.Event, requested time.Time, duration time.Duration, windowMin, windowMax time.Time) []Slot {
	sorted := make([]domain.Event, len(busy))
	copy(sorted, busy)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Time.Before(sorted[j].Start.Time)
	})

	now := c.clock.Now()
	cursor := windowMin
	if now.After(cursor) {
		cursor = now
	}
	if requested.After(cursor) {
		cursor = requested
	}

	var slots []Slot
	for _, ev := range sorted {
		if len(slots) >= maxSuggestedSlots {
			return slots
		}
		if ev.End.Time.Before(cursor) || ev.End.Time.Equal(cursor) {
			continue
		}
		if gap := ev.Start.Time.Sub(cursor); gap >= duration {
			slots = append(slots, Slot{Start: cursor, End: cursor.Add(duration)})
		}
		cursor = ev.End.Time
	}

	// Tail of the window after the last busy interval
	for len(slots) < maxSuggestedSlots && !cursor.Add(duration).After(windowMax) {
		slots = append(slots, Slot{Start: cursor, End: cursor.Add(duration)})
		cursor = cursor.Add(duration)
	}

	return slots
}

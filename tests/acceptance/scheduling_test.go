package acceptance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/glindberg2000/ella-ai-sub000/internal/domain"
	"github.com/glindberg2000/ella-ai-sub000/internal/dto"
)

func (s *Suite) doJSON(method, path string, payload any) *http.Response {
	var body bytes.Buffer
	if payload != nil {
		s.Require().NoError(json.NewEncoder(&body).Encode(payload))
	}

	req, err := http.NewRequest(method, s.BaseURL+path, &body)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *Suite) decode(resp *http.Response, out any) {
	defer resp.Body.Close()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
}

func wallClock(t time.Time) dto.ZonedTimePayload {
	return dto.ZonedTimePayload{
		DateTime: t.UTC().Format("2006-01-02T15:04:05"),
		TimeZone: "UTC",
	}
}

func (s *Suite) TestScheduleEvent_Success() {
	userID := uuid.New().String()
	s.seedUser(userID, "ana@example.com", "+14155550100", 30, []string{"email"})

	start := time.Now().Add(4 * time.Hour)
	resp := s.doJSON(http.MethodPost, "/schedule_event", dto.ScheduleEventRequest{
		UserID: userID,
		Event: dto.EventPayload{
			Summary: "Quarterly review",
			Start:   wallClock(start),
			End:     wallClock(start.Add(time.Hour)),
		},
	})
	s.Equal(http.StatusCreated, resp.StatusCode)

	var result dto.ScheduleEventResponse
	s.decode(resp, &result)

	s.True(result.Success)
	s.Require().NotNil(result.Event)
	s.NotEmpty(result.Event.ID)
	s.Equal("Quarterly review", result.Event.Summary)
}

func (s *Suite) TestScheduleEvent_ConflictSuggestsSlots() {
	userID := uuid.New().String()
	s.seedUser(userID, "ben@example.com", "+14155550101", 30, []string{"email"})

	start := time.Now().Add(4 * time.Hour).Truncate(time.Second)
	s.Mocks.AddEvent(userID, domain.Event{
		ID:      "busy-1",
		UserID:  userID,
		Summary: "Existing meeting",
		Start:   domain.ZonedTime{Time: start, TimeZone: "UTC"},
		End:     domain.ZonedTime{Time: start.Add(time.Hour), TimeZone: "UTC"},
	})

	resp := s.doJSON(http.MethodPost, "/schedule_event", dto.ScheduleEventRequest{
		UserID: userID,
		Event: dto.EventPayload{
			Summary: "Clashing meeting",
			Start:   wallClock(start.Add(30 * time.Minute)),
			End:     wallClock(start.Add(90 * time.Minute)),
		},
	})
	s.Equal(http.StatusOK, resp.StatusCode)

	var result dto.ScheduleEventResponse
	s.decode(resp, &result)

	s.False(result.Success)
	s.Require().NotNil(result.ConflictInfo)
	s.Require().Len(result.ConflictInfo.Conflicts, 1)
	s.Equal("busy-1", result.ConflictInfo.Conflicts[0].ID)
	s.NotEmpty(result.ConflictInfo.AvailableSlots)
}

func (s *Suite) TestListEvents_ExpandsReminders() {
	userID := uuid.New().String()
	s.seedUser(userID, "cam@example.com", "+14155550102", 45, []string{"email", "sms"})

	start := time.Now().Add(6 * time.Hour).Truncate(time.Second)
	s.Mocks.AddEvent(userID, domain.Event{
		UserID:  userID,
		Summary: "Doctor",
		Start:   domain.ZonedTime{Time: start, TimeZone: "UTC"},
		End:     domain.ZonedTime{Time: start.Add(time.Hour), TimeZone: "UTC"},
		Reminders: domain.ReminderSpec{
			UseDefault: true,
		},
	})

	resp := s.doJSON(http.MethodGet, "/events?user_id="+userID, nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var events []dto.EventResponse
	s.decode(resp, &events)

	s.Require().Len(events, 1)
	s.Require().Len(events[0].Reminders, 2)

	keys := []string{events[0].Reminders[0].Key, events[0].Reminders[1].Key}
	s.Contains(keys, "email_45")
	s.Contains(keys, "sms_45")
}

func (s *Suite) TestSendReminder_Idempotent() {
	userID := uuid.New().String()
	s.seedUser(userID, "dee@example.com", "+14155550103", 30, []string{"email"})

	start := time.Now().Add(30 * time.Minute).UTC()
	req := dto.SendReminderRequest{
		UserID:        userID,
		EventID:       "evt-manual",
		EventSummary:  "Standup",
		EventStart:    start.Format("2006-01-02T15:04:05"),
		EventEnd:      start.Add(15 * time.Minute).Format("2006-01-02T15:04:05"),
		ReminderType:  "email",
		MinutesBefore: 30,
	}

	resp := s.doJSON(http.MethodPost, "/send_reminder", req)
	s.Equal(http.StatusOK, resp.StatusCode)

	var first dto.SendReminderResponse
	s.decode(resp, &first)
	s.True(first.Success)
	s.NotEqual("already-sent", first.Receipt)

	resp = s.doJSON(http.MethodPost, "/send_reminder", req)
	s.Equal(http.StatusOK, resp.StatusCode)

	var second dto.SendReminderResponse
	s.decode(resp, &second)
	s.True(second.Success)
	s.Equal("already-sent", second.Receipt)

	s.Equal(1, s.Mocks.EmailCount())
	s.Contains(s.Mocks.Emails[0].Body, "Standup")
}

func (s *Suite) TestScheduler_DispatchesDueReminderExactlyOnce() {
	userID := uuid.New().String()
	s.seedUser(userID, "eva@example.com", "+14155550104", 30, []string{"email"})

	// Due two minutes ago, still inside the grace window
	start := time.Now().Add(28 * time.Minute).UTC()
	s.Mocks.AddEvent(userID, domain.Event{
		UserID:  userID,
		Summary: "Flight check-in",
		Start:   domain.ZonedTime{Time: start, TimeZone: "UTC"},
		End:     domain.ZonedTime{Time: start.Add(time.Hour), TimeZone: "UTC"},
		Reminders: domain.ReminderSpec{
			UseDefault: true,
		},
	})

	s.Require().Eventually(func() bool {
		return s.Mocks.EmailCount() == 1
	}, 5*time.Second, 100*time.Millisecond, "reminder never dispatched")

	s.Equal("eva@example.com", s.Mocks.Emails[0].To)
	s.Contains(s.Mocks.Emails[0].Body, "Flight check-in")

	// Several more poll passes must not resend
	s.Never(func() bool {
		return s.Mocks.EmailCount() > 1
	}, time.Second, 100*time.Millisecond)
}

func (s *Suite) TestUpdateEvent_MoveIntoBusySlotRejected() {
	userID := uuid.New().String()
	s.seedUser(userID, "finn@example.com", "+14155550105", 30, []string{"email"})

	base := time.Now().Add(4 * time.Hour).Truncate(time.Second)
	s.Mocks.AddEvent(userID, domain.Event{
		ID:      "moving",
		UserID:  userID,
		Summary: "One on one",
		Start:   domain.ZonedTime{Time: base, TimeZone: "UTC"},
		End:     domain.ZonedTime{Time: base.Add(time.Hour), TimeZone: "UTC"},
	})
	s.Mocks.AddEvent(userID, domain.Event{
		ID:      "blocker",
		UserID:  userID,
		Summary: "All hands",
		Start:   domain.ZonedTime{Time: base.Add(3 * time.Hour), TimeZone: "UTC"},
		End:     domain.ZonedTime{Time: base.Add(4 * time.Hour), TimeZone: "UTC"},
	})

	newStart := wallClock(base.Add(3 * time.Hour))
	newEnd := wallClock(base.Add(4 * time.Hour))
	resp := s.doJSON(http.MethodPut, "/events/moving", dto.UpdateEventRequest{
		UserID: userID,
		Start:  &newStart,
		End:    &newEnd,
	})
	s.Equal(http.StatusOK, resp.StatusCode)

	var result dto.ScheduleEventResponse
	s.decode(resp, &result)

	s.False(result.Success)
	s.Require().NotNil(result.ConflictInfo)
	s.Require().Len(result.ConflictInfo.Conflicts, 1)
	s.Equal("blocker", result.ConflictInfo.Conflicts[0].ID)
}

func (s *Suite) TestDeleteEvent() {
	userID := uuid.New().String()
	s.seedUser(userID, "gus@example.com", "+14155550106", 30, []string{"email"})

	start := time.Now().Add(4 * time.Hour).Truncate(time.Second)
	s.Mocks.AddEvent(userID, domain.Event{
		ID:      "doomed",
		UserID:  userID,
		Summary: "Cancelled thing",
		Start:   domain.ZonedTime{Time: start, TimeZone: "UTC"},
		End:     domain.ZonedTime{Time: start.Add(time.Hour), TimeZone: "UTC"},
	})

	resp := s.doJSON(http.MethodDelete, fmt.Sprintf("/events/doomed?user_id=%s", userID), nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	listResp := s.doJSON(http.MethodGet, "/events?user_id="+userID, nil)
	var events []dto.EventResponse
	s.decode(listResp, &events)
	s.Empty(events)
}

func (s *Suite) TestShareCalendar() {
	userID := uuid.New().String()
	s.seedUser(userID, "hana@example.com", "+14155550107", 30, []string{"email"})

	resp := s.doJSON(http.MethodPost, "/share_calendar", dto.ShareCalendarRequest{
		UserID: userID,
		Email:  "partner@example.com",
		Role:   "writer",
	})
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	s.Require().Len(s.Mocks.Shares, 1)
	s.Equal(userID, s.Mocks.Shares[0].CalendarID)
	s.Equal("partner@example.com", s.Mocks.Shares[0].Email)
	s.Equal("writer", s.Mocks.Shares[0].Role)
}

func (s *Suite) TestAPIKey_Required() {
	req, err := http.NewRequest(http.MethodGet, s.BaseURL+"/events?user_id=whoever", nil)
	s.Require().NoError(err)

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

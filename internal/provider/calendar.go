package provider

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/glindberg2000/ella-ai-sub000/internal/domain"
)

// CalendarClient talks to the external calendar provider. The provider owns
// event storage and recurrence expansion; recurring series come back as one
// event per occurrence with series_id pointing at the parent.
type CalendarClient struct {
	client *resty.Client
}

// NewCalendarClient creates a calendar client. httpClient carries the OAuth
// transport from the credential manager.
func NewCalendarClient(baseURL string, timeout time.Duration, httpClient *http.Client) *CalendarClient {
	c := resty.NewWithClient(httpClient).
		SetBaseURL(baseURL).
		SetTimeout(timeout)
	return &CalendarClient{client: c}
}

type eventList struct {
	Events []domain.Event `json:"events"`
}

// ListEvents fetches events overlapping [timeMin, timeMax), occurrences
// expanded. maxResults <= 0 means provider default.
func (c *CalendarClient) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, maxResults int) ([]domain.Event, error) {
	var out eventList

	req := c.client.R().
		SetContext(ctx).
		SetResult(&out).
		SetQueryParam("time_min", timeMin.Format(time.RFC3339)).
		SetQueryParam("time_max", timeMax.Format(time.RFC3339))
	if maxResults > 0 {
		req.SetQueryParam("max_results", strconv.Itoa(maxResults))
	}

	resp, err := req.Get(fmt.Sprintf("/calendars/%s/events", calendarID))
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	if resp.IsError() {
		return nil, &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}

	return out.Events, nil
}

// CreateEvent creates an event and returns the stored copy with its id
func (c *CalendarClient) CreateEvent(ctx context.Context, calendarID string, event *domain.Event) (*domain.Event, error) {
	var out domain.Event

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(event).
		SetResult(&out).
		Post(fmt.Sprintf("/calendars/%s/events", calendarID))
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	if resp.IsError() {
		return nil, &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}

	return &out, nil
}

// GetEvent fetches a single event by id
func (c *CalendarClient) GetEvent(ctx context.Context, calendarID, eventID string) (*domain.Event, error) {
	var out domain.Event

	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/calendars/%s/events/%s", calendarID, eventID))
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if resp.IsError() {
		return nil, &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}

	return &out, nil
}

// UpdateEvent updates a single occurrence, or the whole series when
// updateSeries is set and the event belongs to one.
func (c *CalendarClient) UpdateEvent(ctx context.Context, calendarID, eventID string, event *domain.Event, updateSeries bool) (*domain.Event, error) {
	var out domain.Event

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(event).
		SetResult(&out).
		SetQueryParam("update_series", strconv.FormatBool(updateSeries)).
		Put(fmt.Sprintf("/calendars/%s/events/%s", calendarID, eventID))
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	if resp.IsError() {
		return nil, &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}

	return &out, nil
}

// DeleteEvent removes a single occurrence or the whole series
func (c *CalendarClient) DeleteEvent(ctx context.Context, calendarID, eventID string, deleteSeries bool) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("delete_series", strconv.FormatBool(deleteSeries)).
		Delete(fmt.Sprintf("/calendars/%s/events/%s", calendarID, eventID))
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if resp.IsError() {
		return &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}

	return nil
}

// ShareCalendar grants an email address access to a calendar via the
// provider's ACL endpoint. Used by onboarding tooling.
func (c *CalendarClient) ShareCalendar(ctx context.Context, calendarID, email, role string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "role": role}).
		Post(fmt.Sprintf("/calendars/%s/acl", calendarID))
	if err != nil {
		return fmt.Errorf("failed to share calendar: %w", err)
	}
	if resp.IsError() {
		return &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}

	return nil
}

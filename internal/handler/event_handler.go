package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/glindberg2000/ella-ai-sub000/internal/domain"
	"github.com/glindberg2000/ella-ai-sub000/internal/dto"
	"github.com/glindberg2000/ella-ai-sub000/internal/provider"
	"github.com/glindberg2000/ella-ai-sub000/internal/service"
)

// EventHandler handles calendar scheduling requests
type EventHandler struct {
	events service.EventService
}

// NewEventHandler creates a new event handler
func NewEventHandler(events service.EventService) *EventHandler {
	return &EventHandler{events: events}
}

// ScheduleEvent handles event creation with a conflict check
// @Summary Schedule an event
// @Description Conflict-check a proposed event and create it when the slot is free
// @Tags events
// @Accept json
// @Produce json
// @Param request body dto.ScheduleEventRequest true "Schedule request"
// @Success 201 {object} dto.ScheduleEventResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /schedule_event [post]
func (h *EventHandler) ScheduleEvent(c *gin.Context) {
	var req dto.ScheduleEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	event, result, err := h.events.Schedule(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if event == nil {
		c.JSON(http.StatusOK, dto.ScheduleEventResponse{
			Success:      false,
			ConflictInfo: toConflictInfo(result),
			Message:      "Requested time conflicts with existing events",
		})
		return
	}

	resp := toEventResponse(event)
	c.JSON(http.StatusCreated, dto.ScheduleEventResponse{
		Success: true,
		Event:   &resp,
	})
}

// ListEvents handles event listing with reminders expanded
// @Summary List events
// @Description List a user's events in a window, each with its concrete reminder times
// @Tags events
// @Produce json
// @Param user_id query string true "User ID"
// @Param time_min query string false "Window start (RFC3339)"
// @Param time_max query string false "Window end (RFC3339)"
// @Param max_results query int false "Result cap"
// @Success 200 {array} dto.EventResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /events [get]
func (h *EventHandler) ListEvents(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: "user_id is required",
		})
		return
	}

	req := dto.ListEventsRequest{UserID: userID}

	if raw := c.Query("time_min"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "Validation failed",
				Message: "time_min must be RFC3339",
			})
			return
		}
		req.TimeMin = t
	}
	if raw := c.Query("time_max"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "Validation failed",
				Message: "time_max must be RFC3339",
			})
			return
		}
		req.TimeMax = t
	}
	if raw := c.Query("max_results"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "Validation failed",
				Message: "max_results must be a non-negative integer",
			})
			return
		}
		req.MaxResults = n
	}

	events, err := h.events.List(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

// UpdateEvent handles event updates
// @Summary Update an event
// @Description Patch event fields; moving the time re-runs the conflict check
// @Tags events
// @Accept json
// @Produce json
// @Param event_id path string true "Event ID"
// @Param request body dto.UpdateEventRequest true "Update request"
// @Success 200 {object} dto.ScheduleEventResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /events/{event_id} [put]
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	eventID := c.Param("event_id")

	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	event, result, err := h.events.Update(c.Request.Context(), eventID, &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if event == nil {
		c.JSON(http.StatusOK, dto.ScheduleEventResponse{
			Success:      false,
			ConflictInfo: toConflictInfo(result),
			Message:      "Updated time conflicts with existing events",
		})
		return
	}

	resp := toEventResponse(event)
	c.JSON(http.StatusOK, dto.ScheduleEventResponse{
		Success: true,
		Event:   &resp,
	})
}

// DeleteEvent handles event deletion
// @Summary Delete an event
// @Description Delete one event or its whole recurring series
// @Tags events
// @Produce json
// @Param event_id path string true "Event ID"
// @Param user_id query string true "User ID"
// @Param delete_series query bool false "Delete the whole series"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /events/{event_id} [delete]
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	eventID := c.Param("event_id")
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: "user_id is required",
		})
		return
	}
	deleteSeries := c.Query("delete_series") == "true"

	if err := h.events.Delete(c.Request.Context(), userID, eventID, deleteSeries); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Success: true,
		Message: "Event deleted",
	})
}

// SendReminder handles a synchronous single dispatch
// @Summary Send a reminder now
// @Description Dispatch one reminder immediately, subject to the at-most-once ledger
// @Tags reminders
// @Accept json
// @Produce json
// @Param request body dto.SendReminderRequest true "Reminder request"
// @Success 200 {object} dto.SendReminderResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /send_reminder [post]
func (h *EventHandler) SendReminder(c *gin.Context) {
	var req dto.SendReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	receipt, err := h.events.SendReminder(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if receipt == "" {
		c.JSON(http.StatusOK, dto.SendReminderResponse{
			Success: true,
			Receipt: "already-sent",
		})
		return
	}

	c.JSON(http.StatusOK, dto.SendReminderResponse{
		Success: true,
		Receipt: receipt,
	})
}

// @Summary Share a calendar
// @Description Grant an email address access to the user's calendar
// @Tags calendars
// @Accept json
// @Produce json
// @Param request body dto.ShareCalendarRequest true "Share request"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /share_calendar [post]
func (h *EventHandler) ShareCalendar(c *gin.Context) {
	var req dto.ShareCalendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	if err := h.events.ShareCalendar(c.Request.Context(), &req); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Success: true,
		Message: "Calendar shared",
	})
}

func (h *EventHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrEventNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "Not found",
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrCredentialExpired):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error:   "Credential expired",
			Message: "Calendar access requires re-consent",
		})
	case errors.Is(err, service.ErrCredentialUnavailable):
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{
			Error:   "Credential unavailable",
			Message: "Calendar credentials could not be loaded",
		})
	case provider.IsTransient(err):
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{
			Error:   "Provider unavailable",
			Message: err.Error(),
		})
	default:
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Bad request",
			Message: err.Error(),
		})
	}
}

func toEventResponse(event *domain.Event) dto.EventResponse {
	return dto.EventResponse{
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
}

func toConflictInfo(result *service.ConflictResult) *dto.ConflictInfo {
	info := &dto.ConflictInfo{
		Conflicts:      []dto.EventResponse{},
		AvailableSlots: []dto.SlotResponse{},
	}
	if result == nil {
		return info
	}
	for i := range result.Conflicts {
		info.Conflicts = append(info.Conflicts, toEventResponse(&result.Conflicts[i]))
	}
	for _, slot := range result.AvailableSlots {
		info.AvailableSlots = append(info.AvailableSlots, dto.SlotResponse{
			Start: slot.Start,
			End:   slot.End,
		})
	}
	return info
}

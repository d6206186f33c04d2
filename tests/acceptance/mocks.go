package acceptance

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/glindberg2000/ella-ai-sub000/internal/domain"
)

const mockAccessToken = "test-access-token"

// providerMocks stands in for the external calendar, content and
// notification providers. The calendar keeps real state so create, list,
// update and delete behave like the provider the service talks to.
type providerMocks struct {
	mu     sync.Mutex
	events map[string][]domain.Event
	nextID int

	Emails []emailRecord
	SMSes  []smsRecord
	Calls  []callRecord
	Shares []aclRecord

	Calendar *httptest.Server
	Content  *httptest.Server
	Email    *httptest.Server
	SMS      *httptest.Server
	Voice    *httptest.Server
}

type emailRecord struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type smsRecord struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

type callRecord struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

type aclRecord struct {
	CalendarID string `json:"-"`
	Email      string `json:"email"`
	Role       string `json:"role"`
}

func newProviderMocks() *providerMocks {
	m := &providerMocks{events: make(map[string][]domain.Event)}

	m.Calendar = httptest.NewServer(m.calendarHandler())
	m.Content = httptest.NewServer(http.HandlerFunc(m.renderContent))
	m.Email = httptest.NewServer(http.HandlerFunc(m.receiveEmail))
	m.SMS = httptest.NewServer(http.HandlerFunc(m.receiveSMS))
	m.Voice = httptest.NewServer(http.HandlerFunc(m.receiveCall))

	return m
}

func (m *providerMocks) Close() {
	m.Calendar.Close()
	m.Content.Close()
	m.Email.Close()
	m.SMS.Close()
	m.Voice.Close()
}

func (m *providerMocks) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = make(map[string][]domain.Event)
	m.Emails = nil
	m.SMSes = nil
	m.Calls = nil
	m.Shares = nil
}

func (m *providerMocks) AddEvent(calendarID string, event domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if event.ID == "" {
		m.nextID++
		event.ID = fmt.Sprintf("mock-evt-%d", m.nextID)
	}
	m.events[calendarID] = append(m.events[calendarID], event)
}

func (m *providerMocks) EmailCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Emails)
}

func (m *providerMocks) calendarHandler() http.Handler {
	mux := http.NewServeMux()

	authorized := func(w http.ResponseWriter, r *http.Request) bool {
		if r.Header.Get("Authorization") != "Bearer "+mockAccessToken {
			w.WriteHeader(http.StatusUnauthorized)
			return false
		}
		return true
	}

	mux.HandleFunc("GET /calendars/{id}/events", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}

		timeMin := time.Time{}
		timeMax := time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
		if raw := r.URL.Query().Get("time_min"); raw != "" {
			timeMin, _ = time.Parse(time.RFC3339, raw)
		}
		if raw := r.URL.Query().Get("time_max"); raw != "" {
			timeMax, _ = time.Parse(time.RFC3339, raw)
		}

		m.mu.Lock()
		var out []domain.Event
		for _, ev := range m.events[r.PathValue("id")] {
			if ev.Overlaps(timeMin, timeMax) {
				out = append(out, ev)
			}
		}
		m.mu.Unlock()

		writeJSON(w, map[string]any{"events": out})
	})

	mux.HandleFunc("POST /calendars/{id}/events", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}

		var event domain.Event
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		m.mu.Lock()
		m.nextID++
		event.ID = fmt.Sprintf("mock-evt-%d", m.nextID)
		m.events[r.PathValue("id")] = append(m.events[r.PathValue("id")], event)
		m.mu.Unlock()

		w.WriteHeader(http.StatusCreated)
		writeJSON(w, event)
	})

	mux.HandleFunc("GET /calendars/{id}/events/{eventID}", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		for _, ev := range m.events[r.PathValue("id")] {
			if ev.ID == r.PathValue("eventID") {
				writeJSON(w, ev)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	})

	mux.HandleFunc("PUT /calendars/{id}/events/{eventID}", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}

		var event domain.Event
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		evs := m.events[r.PathValue("id")]
		for i, ev := range evs {
			if ev.ID == r.PathValue("eventID") {
				event.ID = ev.ID
				evs[i] = event
				writeJSON(w, event)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	})

	mux.HandleFunc("DELETE /calendars/{id}/events/{eventID}", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		evs := m.events[r.PathValue("id")]
		for i, ev := range evs {
			if ev.ID == r.PathValue("eventID") {
				m.events[r.PathValue("id")] = append(evs[:i], evs[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	})

	mux.HandleFunc("POST /calendars/{id}/acl", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}

		var rec aclRecord
		_ = json.NewDecoder(r.Body).Decode(&rec)
		rec.CalendarID = r.PathValue("id")

		m.mu.Lock()
		m.Shares = append(m.Shares, rec)
		m.mu.Unlock()
		writeJSON(w, map[string]string{"status": "shared"})
	})

	return mux
}

func (m *providerMocks) renderContent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EventSummary string `json:"event_summary"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	writeJSON(w, map[string]string{"text": "Heads up: " + req.EventSummary})
}

func (m *providerMocks) receiveEmail(w http.ResponseWriter, r *http.Request) {
	var rec emailRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.Emails = append(m.Emails, rec)
	id := len(m.Emails)
	m.mu.Unlock()

	writeJSON(w, map[string]string{"message_id": fmt.Sprintf("email-%d", id)})
}

func (m *providerMocks) receiveSMS(w http.ResponseWriter, r *http.Request) {
	var rec smsRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.SMSes = append(m.SMSes, rec)
	id := len(m.SMSes)
	m.mu.Unlock()

	writeJSON(w, map[string]string{"message_id": fmt.Sprintf("sms-%d", id)})
}

func (m *providerMocks) receiveCall(w http.ResponseWriter, r *http.Request) {
	var rec callRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.Calls = append(m.Calls, rec)
	id := len(m.Calls)
	m.mu.Unlock()

	writeJSON(w, map[string]string{"call_id": fmt.Sprintf("call-%d", id)})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

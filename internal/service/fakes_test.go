package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/glindberg2000/ella-ai-sub000/internal/domain"
	"github.com/glindberg2000/ella-ai-sub000/internal/provider"
	"github.com/glindberg2000/ella-ai-sub000/internal/repository"
)

// fakeClock is a hand-cranked clock: Now is fixed until Advance, and
// ticks fire only when the test pushes them.
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	ticks chan time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now, ticks: make(chan time.Time, 1)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) Tick() {
	c.ticks <- c.Now()
}

func (c *fakeClock) NewTicker(time.Duration) Ticker {
	return &fakeTicker{ch: c.ticks}
}

type fakeTicker struct {
	ch chan time.Time
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               {}

// fakeUserRepo serves a static user list
type fakeUserRepo struct {
	mu      sync.Mutex
	users   []*domain.User
	listErr error
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, user)
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) ListActive(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		if u.IsActive {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Update(_ context.Context, _ *domain.User) error { return nil }

// fakeCalendar serves events per calendar id
type fakeCalendar struct {
	mu      sync.Mutex
	events  map[string][]domain.Event
	listErr map[string]error
	created []domain.Event
	shares  []string
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{
		events:  make(map[string][]domain.Event),
		listErr: make(map[string]error),
	}
}

func (c *fakeCalendar) add(calendarID string, events ...domain.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events[calendarID] = append(c.events[calendarID], events...)
}

func (c *fakeCalendar) ListEvents(_ context.Context, calendarID string, timeMin, timeMax time.Time, _ int) ([]domain.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.listErr[calendarID]; err != nil {
		return nil, err
	}
	var out []domain.Event
	for _, ev := range c.events[calendarID] {
		if ev.Overlaps(timeMin, timeMax) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (c *fakeCalendar) CreateEvent(_ context.Context, calendarID string, event *domain.Event) (*domain.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	created := *event
	if created.ID == "" {
		created.ID = fmt.Sprintf("evt-%d", len(c.created)+1)
	}
	c.events[calendarID] = append(c.events[calendarID], created)
	c.created = append(c.created, created)
	return &created, nil
}

func (c *fakeCalendar) GetEvent(_ context.Context, calendarID, eventID string) (*domain.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ev := range c.events[calendarID] {
		if ev.ID == eventID {
			found := ev
			return &found, nil
		}
	}
	return nil, fmt.Errorf("event %s not found", eventID)
}

func (c *fakeCalendar) UpdateEvent(_ context.Context, calendarID, eventID string, event *domain.Event, _ bool) (*domain.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, ev := range c.events[calendarID] {
		if ev.ID == eventID {
			updated := *event
			updated.ID = eventID
			c.events[calendarID][i] = updated
			return &updated, nil
		}
	}
	return nil, fmt.Errorf("event %s not found", eventID)
}

func (c *fakeCalendar) DeleteEvent(_ context.Context, calendarID, eventID string, _ bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	evs := c.events[calendarID]
	for i, ev := range evs {
		if ev.ID == eventID {
			c.events[calendarID] = append(evs[:i], evs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("event %s not found", eventID)
}

func (c *fakeCalendar) ShareCalendar(_ context.Context, calendarID, email, role string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shares = append(c.shares, fmt.Sprintf("%s:%s:%s", calendarID, email, role))
	return nil
}

// memLedger is an in-memory at-most-once ledger
type memLedger struct {
	mu      sync.Mutex
	sent    map[string]bool
	failGet error
}

func newMemLedger() *memLedger {
	return &memLedger{sent: make(map[string]bool)}
}

func (l *memLedger) key(userID, eventID, key string) string {
	return userID + "/" + eventID + "/" + key
}

func (l *memLedger) IsSent(_ context.Context, userID, eventID, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failGet != nil {
		return false, l.failGet
	}
	return l.sent[l.key(userID, eventID, key)], nil
}

func (l *memLedger) MarkSent(_ context.Context, userID, eventID, key string, _ time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent[l.key(userID, eventID, key)] = true
	return nil
}

// fakeContent returns canned text, failing the first failures calls
type fakeContent struct {
	mu       sync.Mutex
	text     string
	failures int
	calls    int
}

func (f *fakeContent) Render(_ context.Context, _ provider.ContentRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return "", fmt.Errorf("content service unavailable")
	}
	if f.text == "" {
		return "canned reminder text", nil
	}
	return f.text, nil
}

type sentMessage struct {
	to   string
	body string
}

// fakeSender stands in for the email, sms and voice adapters
type fakeSender struct {
	mu       sync.Mutex
	sent     []sentMessage
	failures int
	calls    int
}

func (f *fakeSender) record(to, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return "", fmt.Errorf("provider unavailable")
	}
	f.sent = append(f.sent, sentMessage{to: to, body: body})
	return fmt.Sprintf("receipt-%d", len(f.sent)), nil
}

func (f *fakeSender) Send(_ context.Context, to, _ string, body string, _ string) (string, error) {
	return f.record(to, body)
}

type fakeSMS struct{ fakeSender }

func (f *fakeSMS) Send(_ context.Context, to, body string) (string, error) {
	return f.record(to, body)
}

type fakeVoice struct{ fakeSender }

func (f *fakeVoice) StartCall(_ context.Context, to, message string) (string, error) {
	return f.record(to, message)
}

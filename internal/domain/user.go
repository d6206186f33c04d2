package domain

import "time"

// User represents an assistant account in the system
type User struct {
	ID                     string    `json:"id" db:"id"`
	Email                  string    `json:"email" db:"email"`
	Phone                  string    `json:"phone" db:"phone"`
	Timezone               string    `json:"timezone" db:"timezone"`
	CalendarID             string    `json:"calendar_id" db:"calendar_id"`
	AgentContextID         string    `json:"agent_context_id" db:"agent_context_id"`
	DefaultReminderMinutes int       `json:"default_reminder_minutes" db:"default_reminder_minutes"`
	DefaultReminderMethods []Channel `json:"default_reminder_methods" db:"default_reminder_methods"`
	IsActive               bool      `json:"is_active" db:"is_active"`
	CreatedAt              time.Time `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time `json:"updated_at" db:"updated_at"`
}

// Calendar returns the calendar id the user's events live in.
// Accounts onboarded before calendar provisioning fall back to their own id.
func (u *User) Calendar() string {
	if u.CalendarID != "" {
		return u.CalendarID
	}
	return u.ID
}

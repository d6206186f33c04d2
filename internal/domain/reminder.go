package domain

import (
	"fmt"
	"time"
)

// Channel identifies a notification delivery channel
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelCall  Channel = "call"

	// ChannelPopup is the generic in-app channel used for synthesized
	// fallback reminders; it has no external adapter.
	ChannelPopup Channel = "popup"
)

// ParseChannel normalizes a channel string, mapping provider aliases
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelEmail, ChannelSMS, ChannelCall, ChannelPopup:
		return Channel(s), nil
	}
	switch s {
	case "text", "message":
		return ChannelSMS, nil
	case "phone", "voice":
		return ChannelCall, nil
	}
	return "", fmt.Errorf("unknown reminder channel %q", s)
}

// Reminder is a computed alert for one event. It is derived on every poll
// pass and never stored; the ledger is keyed on Key() instead.
type Reminder struct {
	EventID string    `json:"event_id"`
	Channel Channel   `json:"channel"`
	Minutes int       `json:"minutes_before"`
	AlertAt time.Time `json:"alert_at"`
}

// Key returns the deterministic ledger key for this reminder. The same
// logical reminder always maps to the same key even when recomputed.
func (r Reminder) Key() string {
	return ReminderKey(r.Channel, r.Minutes)
}

// ReminderKey builds a ledger key from a channel and lead time, e.g. "email_30"
func ReminderKey(ch Channel, minutes int) string {
	return fmt.Sprintf("%s_%d", ch, minutes)
}

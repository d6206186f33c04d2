package service

import (
	"context"
	"fmt"
	"time"

	"github.com/glindberg2000/ella-ai-sub000/pkg/database"
)

// DispatchLedger records which (user, event, reminder-key) tuples have been
// dispatched, backed by Redis so a restart does not replay sent reminders.
// Entries expire after the retention window to keep the keyspace bounded.
type DispatchLedger struct {
	redis     *database.Redis
	retention time.Duration
}

// NewDispatchLedger creates the idempotency ledger
func NewDispatchLedger(redis *database.Redis, retention time.Duration) *DispatchLedger {
	return &DispatchLedger{redis: redis, retention: retention}
}

func ledgerKey(userID, eventID, reminderKey string) string {
	return fmt.Sprintf("reminder:sent:%s:%s:%s", userID, eventID, reminderKey)
}

// IsSent reports whether this reminder was already dispatched
func (l *DispatchLedger) IsSent(ctx context.Context, userID, eventID, key string) (bool, error) {
	exists, err := l.redis.Client.Exists(ctx, ledgerKey(userID, eventID, key)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check dispatch ledger: %w", err)
	}
	return exists > 0, nil
}

// MarkSent records a successful dispatch. SETNX keeps the first writer's
// timestamp if two passes raced; the duplicate send itself is an accepted,
// logged, non-fatal defect.
func (l *DispatchLedger) MarkSent(ctx context.Context, userID, eventID, key string, at time.Time) error {
	err := l.redis.Client.SetNX(ctx, ledgerKey(userID, eventID, key), at.UTC().Format(time.RFC3339), l.retention).Err()
	if err != nil {
		return fmt.Errorf("failed to write dispatch ledger: %w", err)
	}
	return nil
}

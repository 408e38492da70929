package port

import (
	"context"

	"github.com/strogmv/siterelay/internal/domain"
)

// NotificationQueue keeps the recent pending notifications of each recipient.
type NotificationQueue interface {
	// Enqueue appends a notification to the recipient's sequence, dropping stale entries.
	Enqueue(ctx context.Context, sessionID string, n domain.Notification) error
	// Pending returns the recipient's non-stale entries in insertion order.
	Pending(ctx context.Context, sessionID string) ([]domain.QueueEntry, error)
}

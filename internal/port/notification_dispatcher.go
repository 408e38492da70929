package port

import (
	"context"

	"github.com/strogmv/siterelay/internal/domain"
)

// PushDispatcher persists a notification for an endpoint's recipient and then
// attempts a push. It returns the terminal state of the attempt.
type PushDispatcher interface {
	Dispatch(ctx context.Context, endpoint domain.PushEndpoint, n domain.Notification, ttlSeconds int) domain.DispatchState
}

// NotificationPipeline turns classifiable events into notifications.
type NotificationPipeline interface {
	Process(ctx context.Context, eventID string, payload []byte)
}

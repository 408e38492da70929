package port

import (
	"context"

	"github.com/strogmv/siterelay/internal/domain"
)

// Broadcaster fans an event out to every admitted connection without waiting.
type Broadcaster interface {
	Broadcast(ctx context.Context, event domain.Event)
}

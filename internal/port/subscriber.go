package port

import "context"

// MessageHandler processes one upstream message. Calls are sequential.
type MessageHandler func(ctx context.Context, channel string, payload []byte)

// Subscriber delivers messages of an upstream publish/subscribe channel.
type Subscriber interface {
	// Subscribe blocks until ctx is done or the subscription fails.
	Subscribe(ctx context.Context, channel string, handler MessageHandler) error
	Close() error
}

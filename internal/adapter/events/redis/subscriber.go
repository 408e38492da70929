package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/strogmv/siterelay/internal/port"
)

var errSubscriptionClosed = errors.New("redis subscription closed")

// Subscriber reads a Redis pubsub channel and hands each message to the
// handler in arrival order.
type Subscriber struct {
	client *redis.Client
	logger *slog.Logger

	mu     sync.Mutex
	active map[*redis.PubSub]struct{}
}

var _ port.Subscriber = (*Subscriber)(nil)

func NewSubscriber(client *redis.Client, log *slog.Logger) *Subscriber {
	if log == nil {
		log = slog.Default()
	}
	return &Subscriber{
		client: client,
		logger: log,
		active: make(map[*redis.PubSub]struct{}),
	}
}

func (s *Subscriber) Subscribe(ctx context.Context, channel string, handler port.MessageHandler) error {
	ps := s.client.Subscribe(ctx, channel)
	s.track(ps)
	defer s.untrack(ps)
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}

	s.logger.Info("subscribed to upstream channel", slog.String("channel", channel))
	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errSubscriptionClosed
			}
			handler(ctx, msg.Channel, []byte(msg.Payload))
		}
	}
}

// Close ends every active subscription. The client itself is left open.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for ps := range s.active {
		errs = append(errs, ps.Close())
		delete(s.active, ps)
	}
	return errors.Join(errs...)
}

func (s *Subscriber) track(ps *redis.PubSub) {
	s.mu.Lock()
	s.active[ps] = struct{}{}
	s.mu.Unlock()
}

func (s *Subscriber) untrack(ps *redis.PubSub) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[ps]; ok {
		_ = ps.Close()
		delete(s.active, ps)
	}
}

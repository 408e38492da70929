package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/strogmv/siterelay/internal/port"
)

// Options configures the shared Redis connection used by the queue and the
// upstream subscriber.
type Options struct {
	Addr     string
	Password string
	DB       int
}

func NewClient(opts Options) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

// HealthChecker pings a Redis client.
type HealthChecker struct {
	client *redis.Client
}

var _ port.HealthChecker = (*HealthChecker)(nil)

func NewHealthChecker(client *redis.Client) *HealthChecker {
	return &HealthChecker{client: client}
}

func (h *HealthChecker) Name() string { return "redis" }

func (h *HealthChecker) Ping(ctx context.Context) error {
	if err := h.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

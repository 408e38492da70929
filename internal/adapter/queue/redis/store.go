package queueredis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/strogmv/siterelay/internal/domain"
	"github.com/strogmv/siterelay/internal/port"
)

// Config controls key naming and expiry. Zero values use the domain defaults.
type Config struct {
	KeyPrefix string
	KeyTTL    time.Duration
	MaxAge    time.Duration
}

// Store keeps each recipient's queue as a JSON array under one key.
// Enqueue reads, filters and writes without a transaction: concurrent
// enqueues for one recipient may overwrite each other.
type Store struct {
	client *redis.Client
	cfg    Config
	now    func() time.Time
}

var _ port.NotificationQueue = (*Store)(nil)

func NewStore(client *redis.Client, cfg Config) *Store {
	if cfg.KeyTTL <= 0 {
		cfg.KeyTTL = domain.QueueKeyTTL
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = domain.QueueEntryMaxAge
	}
	return &Store{client: client, cfg: cfg, now: time.Now}
}

func (s *Store) Enqueue(ctx context.Context, sessionID string, n domain.Notification) error {
	key := domain.QueueKey(s.cfg.KeyPrefix, sessionID)
	entries, err := s.read(ctx, key)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrQueueWriteFailed, err)
	}
	now := s.now()
	entries = append(domain.FreshEntries(entries, now, s.cfg.MaxAge), domain.QueueEntry{
		Time:    now.UnixMilli(),
		Payload: n,
	})
	b, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", domain.ErrQueueWriteFailed, key, err)
	}
	if err := s.client.Set(ctx, key, b, s.cfg.KeyTTL).Err(); err != nil {
		return fmt.Errorf("%w: write %s: %w", domain.ErrQueueWriteFailed, key, err)
	}
	return nil
}

func (s *Store) Pending(ctx context.Context, sessionID string) ([]domain.QueueEntry, error) {
	entries, err := s.read(ctx, domain.QueueKey(s.cfg.KeyPrefix, sessionID))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return domain.FreshEntries(entries, s.now(), s.cfg.MaxAge), nil
}

func (s *Store) read(ctx context.Context, key string) ([]domain.QueueEntry, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	var entries []domain.QueueEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return entries, nil
}

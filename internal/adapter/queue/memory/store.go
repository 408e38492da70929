package queuememory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/strogmv/siterelay/internal/domain"
	"github.com/strogmv/siterelay/internal/port"
)

// Config mirrors the Redis store's key naming and expiry. Zero values use
// the domain defaults.
type Config struct {
	KeyPrefix string
	KeyTTL    time.Duration
	MaxAge    time.Duration
}

type item struct {
	value     []byte
	expiresAt time.Time
}

// Store is an in-process queue with the same key layout and expiry rules
// as the Redis store.
type Store struct {
	mu    sync.Mutex
	items map[string]item
	cfg   Config
	now   func() time.Time
}

var _ port.NotificationQueue = (*Store)(nil)

func NewStore(cfg Config) *Store {
	if cfg.KeyTTL <= 0 {
		cfg.KeyTTL = domain.QueueKeyTTL
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = domain.QueueEntryMaxAge
	}
	return &Store{
		items: make(map[string]item),
		cfg:   cfg,
		now:   time.Now,
	}
}

// SetClock replaces the time source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Enqueue(ctx context.Context, sessionID string, n domain.Notification) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	key := domain.QueueKey(s.cfg.KeyPrefix, sessionID)
	now := s.now()
	entries, err := s.read(key, now)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrQueueWriteFailed, err)
	}
	entries = append(domain.FreshEntries(entries, now, s.cfg.MaxAge), domain.QueueEntry{
		Time:    now.UnixMilli(),
		Payload: n,
	})
	b, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", domain.ErrQueueWriteFailed, key, err)
	}
	s.items[key] = item{value: b, expiresAt: now.Add(s.cfg.KeyTTL)}
	return nil
}

func (s *Store) Pending(ctx context.Context, sessionID string) ([]domain.QueueEntry, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	entries, err := s.read(domain.QueueKey(s.cfg.KeyPrefix, sessionID), now)
	if err != nil {
		return nil, err
	}
	return domain.FreshEntries(entries, now, s.cfg.MaxAge), nil
}

// TTL returns the remaining lifetime of a recipient's key, or zero when absent.
func (s *Store) TTL(sessionID string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[domain.QueueKey(s.cfg.KeyPrefix, sessionID)]
	if !ok {
		return 0
	}
	if d := it.expiresAt.Sub(s.now()); d > 0 {
		return d
	}
	return 0
}

func (s *Store) read(key string, now time.Time) ([]domain.QueueEntry, error) {
	it, ok := s.items[key]
	if !ok {
		return nil, nil
	}
	if !now.Before(it.expiresAt) {
		delete(s.items, key)
		return nil, nil
	}
	var entries []domain.QueueEntry
	if err := json.Unmarshal(it.value, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return entries, nil
}

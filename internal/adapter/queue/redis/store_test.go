package queueredis

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strogmv/siterelay/internal/domain"
)

func newTestStore(t *testing.T, now time.Time) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	s := NewStore(client, Config{})
	s.now = func() time.Time { return now }
	return s, mr
}

func storedEntries(t *testing.T, mr *miniredis.Miniredis, key string) []domain.QueueEntry {
	t.Helper()
	raw, err := mr.Get(key)
	require.NoError(t, err)
	var entries []domain.QueueEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &entries))
	return entries
}

func TestEnqueueWritesKeyWithTTL(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	s, mr := newTestStore(t, now)
	n := domain.Notification{Title: "We are live!", Body: "b", URL: "https://x/1", DisplayDurationMs: 8000, TimeToLiveSeconds: 300}

	require.NoError(t, s.Enqueue(context.Background(), "s1", n))

	key := "notificationPayloads.s1"
	entries := storedEntries(t, mr, key)
	require.Len(t, entries, 1)
	assert.Equal(t, now.UnixMilli(), entries[0].Time)
	assert.Equal(t, n, entries[0].Payload)
	assert.Equal(t, 600*time.Second, mr.TTL(key))

	raw, _ := mr.Get(key)
	assert.Contains(t, raw, `"time":1700000000000`)
	assert.Contains(t, raw, `"payload":{`)
}

func TestEnqueueDropsStaleEntriesAndKeepsOrder(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	s, mr := newTestStore(t, now)
	key := "notificationPayloads.s1"
	seed := []domain.QueueEntry{
		{Time: now.UnixMilli() - 600_001, Payload: domain.Notification{Title: "stale"}},
		{Time: now.UnixMilli() - 1000, Payload: domain.Notification{Title: "recent"}},
	}
	b, _ := json.Marshal(seed)
	require.NoError(t, mr.Set(key, string(b)))

	require.NoError(t, s.Enqueue(context.Background(), "s1", domain.Notification{Title: "new"}))

	entries := storedEntries(t, mr, key)
	require.Len(t, entries, 2)
	assert.Equal(t, "recent", entries[0].Payload.Title)
	assert.Equal(t, "new", entries[1].Payload.Title)
	for _, e := range entries {
		assert.GreaterOrEqual(t, e.Time, now.UnixMilli()-600_000)
	}
}

func TestEnqueueRefreshesExpiry(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	s, mr := newTestStore(t, now)
	key := "notificationPayloads.s1"

	require.NoError(t, s.Enqueue(context.Background(), "s1", domain.Notification{Title: "one"}))
	mr.FastForward(400 * time.Second)
	assert.Equal(t, 200*time.Second, mr.TTL(key))

	s.now = func() time.Time { return now.Add(400 * time.Second) }
	require.NoError(t, s.Enqueue(context.Background(), "s1", domain.Notification{Title: "two"}))
	assert.Equal(t, 600*time.Second, mr.TTL(key))
	assert.Len(t, storedEntries(t, mr, key), 2)
}

func TestEnqueueKeysArePerRecipient(t *testing.T) {
	s, mr := newTestStore(t, time.Now())
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Enqueue(context.Background(), fmt.Sprintf("s%d", i), domain.Notification{}))
	}
	for i := 0; i < 3; i++ {
		assert.True(t, mr.Exists(fmt.Sprintf("notificationPayloads.s%d", i)))
	}
}

func TestEnqueueStoreFailure(t *testing.T) {
	s, mr := newTestStore(t, time.Now())
	mr.Close()

	err := s.Enqueue(context.Background(), "s1", domain.Notification{})
	assert.ErrorIs(t, err, domain.ErrQueueWriteFailed)
}

func TestEnqueueCorruptValueFails(t *testing.T) {
	s, mr := newTestStore(t, time.Now())
	require.NoError(t, mr.Set("notificationPayloads.s1", "{not json"))

	err := s.Enqueue(context.Background(), "s1", domain.Notification{})
	assert.ErrorIs(t, err, domain.ErrQueueWriteFailed)
}

func TestPendingFiltersStale(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	s, _ := newTestStore(t, now)
	require.NoError(t, s.Enqueue(context.Background(), "s1", domain.Notification{Title: "old"}))
	s.now = func() time.Time { return now.Add(5 * time.Minute) }
	require.NoError(t, s.Enqueue(context.Background(), "s1", domain.Notification{Title: "new"}))

	s.now = func() time.Time { return now.Add(11 * time.Minute) }
	pending, err := s.Pending(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "new", pending[0].Payload.Title)

	empty, err := s.Pending(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

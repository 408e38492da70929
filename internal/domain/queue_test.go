package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueueKey(t *testing.T) {
	assert.Equal(t, "notificationPayloads.abc", QueueKey("", "abc"))
	assert.Equal(t, "custom:abc", QueueKey("custom:", "abc"))
}

func TestFreshEntriesDropsStaleKeepsOrder(t *testing.T) {
	now := time.UnixMilli(10_000_000)
	entries := []QueueEntry{
		{Time: now.UnixMilli() - 700_000, Payload: Notification{Title: "stale"}},
		{Time: now.UnixMilli() - 600_000, Payload: Notification{Title: "edge"}},
		{Time: now.UnixMilli() - 10, Payload: Notification{Title: "recent"}},
	}

	got := FreshEntries(entries, now, QueueEntryMaxAge)

	assert.Len(t, got, 2)
	assert.Equal(t, "edge", got[0].Payload.Title)
	assert.Equal(t, "recent", got[1].Payload.Title)
}

func TestDispatchStateTerminal(t *testing.T) {
	for _, s := range []DispatchState{DispatchPersistFailed, DispatchSent, DispatchSendFailed} {
		assert.True(t, s.Terminal(), string(s))
	}
	for _, s := range []DispatchState{DispatchQueued, DispatchPersisting, DispatchPersisted, DispatchSending} {
		assert.False(t, s.Terminal(), string(s))
	}
}

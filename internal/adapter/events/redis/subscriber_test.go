package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strogmv/siterelay/internal/pkg/logger"
)

type received struct {
	channel string
	payload string
}

type collector struct {
	mu   sync.Mutex
	msgs []received
}

func (c *collector) handle(_ context.Context, channel string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, received{channel, string(payload)})
}

func (c *collector) snapshot() []received {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]received(nil), c.msgs...)
}

func setup(t *testing.T) (*miniredis.Miniredis, *Subscriber) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewSubscriber(client, logger.Discard())
}

func waitSubscribed(t *testing.T, mr *miniredis.Miniredis, channel string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(channel)[channel] > 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSubscriberDeliversInOrder(t *testing.T) {
	mr, sub := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &collector{}
	done := make(chan error, 1)
	go func() { done <- sub.Subscribe(ctx, "siteNotificationsChannel", c.handle) }()
	waitSubscribed(t, mr, "siteNotificationsChannel")

	mr.Publish("siteNotificationsChannel", `{"eventId":"a"}`)
	mr.Publish("otherChannel", `{"eventId":"ignored"}`)
	mr.Publish("siteNotificationsChannel", `{"eventId":"b"}`)

	require.Eventually(t, func() bool { return len(c.snapshot()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []received{
		{"siteNotificationsChannel", `{"eventId":"a"}`},
		{"siteNotificationsChannel", `{"eventId":"b"}`},
	}, c.snapshot())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("subscribe did not return after cancel")
	}
}

func TestSubscriberCloseEndsSubscription(t *testing.T) {
	mr, sub := setup(t)
	c := &collector{}
	done := make(chan error, 1)
	go func() { done <- sub.Subscribe(context.Background(), "ch", c.handle) }()
	waitSubscribed(t, mr, "ch")

	require.NoError(t, sub.Close())
	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("subscribe did not return after close")
	}
}

func TestSubscribeFailsWithoutServer(t *testing.T) {
	mr, sub := setup(t)
	mr.Close()

	err := sub.Subscribe(context.Background(), "ch", (&collector{}).handle)
	assert.Error(t, err)
}

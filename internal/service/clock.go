package service

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/strogmv/siterelay/internal/domain"
	"github.com/strogmv/siterelay/internal/port"
)

const DefaultClockInterval = 5 * time.Second

// ClockEmitter periodically broadcasts the server time so viewers can
// synchronise their clocks.
type ClockEmitter struct {
	broadcaster port.Broadcaster
	interval    time.Duration
	logger      *slog.Logger
}

func NewClockEmitter(broadcaster port.Broadcaster, interval time.Duration, log *slog.Logger) *ClockEmitter {
	if interval <= 0 {
		interval = DefaultClockInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &ClockEmitter{broadcaster: broadcaster, interval: interval, logger: log}
}

// Run emits one event per interval until ctx is done.
func (c *ClockEmitter) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	c.logger.Info("clock emitter started", slog.Duration("interval", c.interval))
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.Emit(ctx, now)
		}
	}
}

// Emit broadcasts at as an epoch millisecond payload.
func (c *ClockEmitter) Emit(ctx context.Context, at time.Time) {
	payload := strconv.AppendInt(nil, at.UnixMilli(), 10)
	c.broadcaster.Broadcast(ctx, newEvent(domain.EventSynchronisedTime, payload, at))
}

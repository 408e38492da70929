package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/strogmv/siterelay/internal/domain"
	"github.com/strogmv/siterelay/internal/pkg/logger"
	"github.com/strogmv/siterelay/internal/pkg/metrics"
	"github.com/strogmv/siterelay/internal/pkg/tracing"
	"github.com/strogmv/siterelay/internal/port"
)

// DefaultChannel is the upstream channel carrying site notifications.
const DefaultChannel = "siteNotificationsChannel"

// Relay forwards upstream messages to admitted connections and to the
// notification pipeline.
type Relay struct {
	channel     string
	broadcaster port.Broadcaster
	pipeline    port.NotificationPipeline
	validate    *validator.Validate
	now         func() time.Time
	logger      *slog.Logger
}

// NewRelay builds a relay for channel. A nil pipeline disables classification.
func NewRelay(channel string, broadcaster port.Broadcaster, pipeline port.NotificationPipeline, log *slog.Logger) *Relay {
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = slog.Default()
	}
	return &Relay{
		channel:     channel,
		broadcaster: broadcaster,
		pipeline:    pipeline,
		validate:    validator.New(),
		now:         time.Now,
		logger:      log,
	}
}

// Run subscribes to the relay channel and handles messages until ctx ends.
func (r *Relay) Run(ctx context.Context, sub port.Subscriber) error {
	r.logger.Info("subscribing to upstream", slog.String("channel", r.channel))
	return sub.Subscribe(ctx, r.channel, r.HandleMessage)
}

// HandleMessage processes one upstream message. Malformed messages are
// logged and dropped.
func (r *Relay) HandleMessage(ctx context.Context, channel string, raw []byte) {
	if channel != r.channel {
		metrics.UpstreamMessages.WithLabelValues("ignored").Inc()
		return
	}
	ctx, span := tracing.Tracer().Start(ctx, "relay.message")
	defer span.End()
	log := logger.With(ctx, r.logger)

	msg, err := r.parse(raw)
	if err != nil {
		metrics.UpstreamMessages.WithLabelValues("malformed").Inc()
		log.Warn("dropping upstream message", slog.Any("error", err))
		return
	}
	metrics.UpstreamMessages.WithLabelValues("accepted").Inc()
	span.SetAttributes(attribute.String("event.id", msg.EventID))

	r.Broadcast(ctx, msg.EventID, msg.Payload)
	if r.pipeline != nil {
		r.pipeline.Process(ctx, msg.EventID, msg.Payload)
	}
}

// Broadcast stamps the payload with the server time and fans it out under eventID.
func (r *Relay) Broadcast(ctx context.Context, eventID string, payload json.RawMessage) {
	logger.With(ctx, r.logger).Debug("emitting event", slog.String("event", eventID))
	r.broadcaster.Broadcast(ctx, newEvent(eventID, payload, r.now()))
	trace.SpanFromContext(ctx).AddEvent("broadcast")
}

func (r *Relay) parse(raw []byte) (domain.UpstreamMessage, error) {
	var msg domain.UpstreamMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return msg, fmt.Errorf("%w: %w", domain.ErrMalformedUpstreamMessage, err)
	}
	if err := r.validate.Struct(msg); err != nil {
		return msg, fmt.Errorf("%w: %w", domain.ErrMalformedUpstreamMessage, err)
	}
	return msg, nil
}

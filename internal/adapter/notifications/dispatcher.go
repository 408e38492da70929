package notifications

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/strogmv/siterelay/internal/domain"
	"github.com/strogmv/siterelay/internal/pkg/logger"
	"github.com/strogmv/siterelay/internal/pkg/metrics"
	"github.com/strogmv/siterelay/internal/pkg/tracing"
	"github.com/strogmv/siterelay/internal/port"
)

const DefaultPushTimeout = 10 * time.Second

// NewHTTPClient returns the traced client used for push requests.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultPushTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// Dispatcher persists a notification for the endpoint's recipient and then
// sends one push attempt using the first matching strategy.
type Dispatcher struct {
	queue      port.NotificationQueue
	client     *http.Client
	strategies []Strategy
	timeout    time.Duration
	logger     *slog.Logger
}

var _ port.PushDispatcher = (*Dispatcher)(nil)

// NewDispatcher builds a dispatcher. strategies are tried in order; the
// generic strategy is appended when none matches every URL.
func NewDispatcher(queue port.NotificationQueue, client *http.Client, strategies []Strategy, timeout time.Duration, log *slog.Logger) *Dispatcher {
	if client == nil {
		client = NewHTTPClient(timeout)
	}
	if timeout <= 0 {
		timeout = DefaultPushTimeout
	}
	if len(strategies) == 0 || strategies[len(strategies)-1].Name != "generic" {
		strategies = append(append([]Strategy(nil), strategies...), GenericStrategy())
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		queue:      queue,
		client:     client,
		strategies: strategies,
		timeout:    timeout,
		logger:     log,
	}
}

// Dispatch never returns an error: every outcome is logged, counted and
// reported as the terminal state.
func (d *Dispatcher) Dispatch(ctx context.Context, endpoint domain.PushEndpoint, n domain.Notification, ttlSeconds int) domain.DispatchState {
	ctx, span := tracing.Tracer().Start(ctx, "push.dispatch",
		trace.WithAttributes(attribute.String("session.id", endpoint.SessionID)))
	defer span.End()
	log := logger.With(ctx, d.logger).With(
		slog.String("session", endpoint.SessionID),
		slog.String("endpoint", endpoint.URL),
	)

	state := domain.DispatchQueued
	move := func(next domain.DispatchState) {
		log.Debug("dispatch transition", slog.String("from", string(state)), slog.String("to", string(next)))
		state = next
	}

	move(domain.DispatchPersisting)
	if err := d.queue.Enqueue(ctx, endpoint.SessionID, n); err != nil {
		move(domain.DispatchPersistFailed)
		metrics.Enqueues.WithLabelValues("failed").Inc()
		metrics.Dispatches.WithLabelValues(string(state), "none").Inc()
		span.SetStatus(codes.Error, err.Error())
		log.Error("persist notification", slog.Any("error", err))
		return state
	}
	metrics.Enqueues.WithLabelValues("ok").Inc()
	move(domain.DispatchPersisted)

	strategy := d.strategyFor(endpoint.URL)
	span.SetAttributes(attribute.String("push.strategy", strategy.Name))
	move(domain.DispatchSending)

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	start := time.Now()
	err := strategy.Send(sendCtx, d.client, endpoint, n, ttlSeconds)
	metrics.PushDuration.WithLabelValues(strategy.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		move(domain.DispatchSendFailed)
		span.SetStatus(codes.Error, err.Error())
		log.Warn("push attempt failed", slog.String("strategy", strategy.Name), slog.Any("error", err))
	} else {
		move(domain.DispatchSent)
		log.Info("push notification sent", slog.String("strategy", strategy.Name))
	}
	metrics.Dispatches.WithLabelValues(string(state), strategy.Name).Inc()
	return state
}

func (d *Dispatcher) strategyFor(endpointURL string) Strategy {
	for _, s := range d.strategies {
		if s.Match(endpointURL) {
			return s
		}
	}
	return d.strategies[len(d.strategies)-1]
}

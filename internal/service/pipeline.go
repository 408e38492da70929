package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/strogmv/siterelay/internal/domain"
	"github.com/strogmv/siterelay/internal/pkg/logger"
	"github.com/strogmv/siterelay/internal/pkg/tracing"
	"github.com/strogmv/siterelay/internal/port"
)

const defaultPushConcurrency = 16

// PipelineConfig toggles push delivery and bounds the endpoint fan-out.
type PipelineConfig struct {
	PushEnabled bool
	Concurrency int
}

// Pipeline classifies events, broadcasts the resulting notification and,
// when push is enabled, dispatches it to every registered endpoint.
type Pipeline struct {
	classifier  *Classifier
	broadcaster port.Broadcaster
	registry    port.EndpointRegistry
	dispatcher  port.PushDispatcher
	cfg         PipelineConfig
	now         func() time.Time
	logger      *slog.Logger
}

var _ port.NotificationPipeline = (*Pipeline)(nil)

func NewPipeline(
	classifier *Classifier,
	broadcaster port.Broadcaster,
	registry port.EndpointRegistry,
	dispatcher port.PushDispatcher,
	cfg PipelineConfig,
	log *slog.Logger,
) *Pipeline {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultPushConcurrency
	}
	if registry == nil || dispatcher == nil {
		cfg.PushEnabled = false
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		classifier:  classifier,
		broadcaster: broadcaster,
		registry:    registry,
		dispatcher:  dispatcher,
		cfg:         cfg,
		now:         time.Now,
		logger:      log,
	}
}

// Process runs the broadcast and push tasks for a classifiable event and
// waits for both. Unclassified events are ignored.
func (p *Pipeline) Process(ctx context.Context, eventID string, payload []byte) {
	n, ok := p.classifier.Classify(eventID, payload)
	if !ok {
		return
	}
	ctx, span := tracing.Tracer().Start(ctx, "notification.pipeline",
		trace.WithAttributes(attribute.String("event.id", eventID)))
	defer span.End()
	log := logger.With(ctx, p.logger).With(slog.String("event", eventID))

	var g errgroup.Group
	g.Go(func() error {
		return p.broadcast(ctx, n)
	})
	if p.cfg.PushEnabled {
		g.Go(func() error {
			return p.push(context.WithoutCancel(ctx), n)
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("notification pipeline", slog.Any("error", err))
	}
}

func (p *Pipeline) broadcast(ctx context.Context, n domain.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	p.broadcaster.Broadcast(ctx, newEvent(domain.EventNotification, body, p.now()))
	return nil
}

// push fans the notification out to every endpoint. Each dispatch owns its
// failures, so one endpoint never affects another.
func (p *Pipeline) push(ctx context.Context, n domain.Notification) error {
	endpoints, err := p.registry.ListEndpoints(ctx)
	if err != nil {
		return fmt.Errorf("list push endpoints: %w", err)
	}
	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	for _, endpoint := range endpoints {
		g.Go(func() error {
			p.dispatcher.Dispatch(ctx, endpoint, n, n.TimeToLiveSeconds)
			return nil
		})
	}
	return g.Wait()
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/strogmv/siterelay/internal/adapter/notifications"
	"github.com/strogmv/siterelay/internal/config"
	"github.com/strogmv/siterelay/internal/port"
	"github.com/strogmv/siterelay/internal/service"
	transporthttp "github.com/strogmv/siterelay/internal/transport/http"
	"github.com/strogmv/siterelay/internal/transport/ws"
)

// Deps are the adapters the graph is built on.
type Deps struct {
	Sessions   port.SessionStore
	Endpoints  port.EndpointRegistry
	Queue      port.NotificationQueue
	Subscriber port.Subscriber
	Health     []port.HealthChecker

	// PushClient overrides the traced push HTTP client.
	PushClient *http.Client
}

type Container struct {
	Config *config.Config

	Hub        *ws.Hub
	Gate       *ws.Gate
	Validator  *service.SessionValidator
	Relay      *service.Relay
	Pipeline   *service.Pipeline
	Clock      *service.ClockEmitter
	Dispatcher *notifications.Dispatcher
	Router     http.Handler

	subscriber port.Subscriber
	logger     *slog.Logger
}

func NewContainer(cfg *config.Config, deps Deps, log *slog.Logger) (*Container, error) {
	if deps.Sessions == nil {
		return nil, errors.New("app: session store is required")
	}
	if log == nil {
		log = slog.Default()
	}
	c := &Container{
		Config:     cfg,
		subscriber: deps.Subscriber,
		logger:     log,
	}

	c.Hub = ws.NewHub(log)
	c.Validator = service.NewSessionValidator(deps.Sessions)
	c.Gate = ws.NewGate(c.Validator, cfg.Gate.Timeout, log)

	var registry port.EndpointRegistry
	var dispatcher port.PushDispatcher
	if cfg.Push.Enabled {
		if deps.Endpoints == nil || deps.Queue == nil {
			return nil, errors.New("app: push requires an endpoint registry and a queue")
		}
		client := deps.PushClient
		if client == nil {
			client = notifications.NewHTTPClient(cfg.Push.Timeout)
		}
		c.Dispatcher = notifications.NewDispatcher(
			deps.Queue,
			client,
			notifications.DefaultStrategies(notifications.GCMConfig{
				APIKey:   cfg.Push.APIKey,
				Endpoint: cfg.Push.Endpoint,
				Prefix:   cfg.Push.Prefix,
			}),
			cfg.Push.Timeout,
			log,
		)
		registry, dispatcher = deps.Endpoints, c.Dispatcher
	}

	c.Pipeline = service.NewPipeline(
		service.NewClassifier(service.DefaultRules),
		c.Hub,
		registry,
		dispatcher,
		service.PipelineConfig{
			PushEnabled: cfg.Push.Enabled,
			Concurrency: cfg.Push.Concurrency,
		},
		log,
	)
	c.Relay = service.NewRelay(cfg.Upstream.Channel, c.Hub, c.Pipeline, log)
	c.Clock = service.NewClockEmitter(c.Hub, cfg.Clock.Interval, log)

	socket := ws.NewHandler(c.Hub, c.Gate, ws.HandlerConfig{
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		HandshakeTimeout: cfg.HTTP.HandshakeTimeout,
		SendBuffer:       cfg.HTTP.SendBuffer,
	}, log)
	c.Router = transporthttp.NewRouter(transporthttp.RouterConfig{
		SocketPath:     cfg.HTTP.SocketPath,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	}, transporthttp.Deps{
		Socket:   socket,
		Health:   deps.Health,
		Sessions: c.Validator,
		Queue:    deps.Queue,
		Logger:   log,
	})

	return c, nil
}

// Run serves HTTP, relays upstream messages and ticks the clock until ctx
// ends or one of them fails.
func (c *Container) Run(ctx context.Context) error {
	if c.subscriber == nil {
		return errors.New("app: upstream subscriber is required")
	}
	var tlsFiles *transporthttp.TLSFiles
	if c.Config.HTTP.TLS {
		tlsFiles = &transporthttp.TLSFiles{
			CertFile:         c.Config.HTTP.TLSCertFile,
			KeyFile:          c.Config.HTTP.TLSKeyFile,
			IntermediateFile: c.Config.HTTP.TLSIntermediate,
		}
	}
	server, err := transporthttp.NewServer(transporthttp.ServerConfig{
		Address:         c.Config.HTTP.Addr,
		Handler:         c.Router,
		TLS:             tlsFiles,
		ShutdownTimeout: c.Config.HTTP.ShutdownTimeout,
		Logger:          c.logger,
	})
	if err != nil {
		return fmt.Errorf("build http server: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Serve(ctx)
	})
	g.Go(func() error {
		if err := c.Relay.Run(ctx, c.subscriber); err != nil {
			return fmt.Errorf("relay: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		c.Clock.Run(ctx)
		return nil
	})
	return g.Wait()
}

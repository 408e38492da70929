package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/strogmv/siterelay/internal/adapter/cache/redis"
	"github.com/strogmv/siterelay/internal/adapter/events/nats"
	eventsredis "github.com/strogmv/siterelay/internal/adapter/events/redis"
	queuememory "github.com/strogmv/siterelay/internal/adapter/queue/memory"
	queueredis "github.com/strogmv/siterelay/internal/adapter/queue/redis"
	"github.com/strogmv/siterelay/internal/adapter/repository/memory"
	"github.com/strogmv/siterelay/internal/adapter/repository/postgres"
	"github.com/strogmv/siterelay/internal/app"
	"github.com/strogmv/siterelay/internal/config"
	"github.com/strogmv/siterelay/internal/port"
)

// Runtime owns the external connections opened from configuration.
type Runtime struct {
	Redis *goredis.Client
	PG    *pgxpool.Pool
	NATS  *nats.Client

	deps    app.Deps
	closers []func() error
}

// Open connects every backend the configuration selects. On error the
// connections opened so far are closed.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (_ *Runtime, err error) {
	rt := &Runtime{}
	defer func() {
		if err != nil {
			_ = rt.Close()
		}
	}()

	needRedis := cfg.Upstream.Driver == "redis" || cfg.Queue.Driver == "redis"
	if needRedis {
		rt.Redis = redis.NewClient(redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, rt.Redis.Close)
		rt.deps.Health = append(rt.deps.Health, redis.NewHealthChecker(rt.Redis))
	}

	switch cfg.Store.Driver {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		rt.PG = pool
		rt.closers = append(rt.closers, func() error { pool.Close(); return nil })
		rt.deps.Sessions = postgres.NewSessionRepository(pool)
		rt.deps.Endpoints = postgres.NewEndpointRepository(pool)
		rt.deps.Health = append(rt.deps.Health, postgres.NewHealthChecker(pool))
	default:
		rt.deps.Sessions = memory.NewSessionRepository(cfg.Store.Sessions...)
		rt.deps.Endpoints = memory.NewEndpointRepository()
	}

	switch cfg.Queue.Driver {
	case "redis":
		rt.deps.Queue = queueredis.NewStore(rt.Redis, queueredis.Config{
			KeyPrefix: cfg.Queue.KeyPrefix,
			KeyTTL:    cfg.Queue.KeyTTL,
			MaxAge:    cfg.Queue.MaxAge,
		})
	default:
		rt.deps.Queue = queuememory.NewStore(queuememory.Config{
			KeyPrefix: cfg.Queue.KeyPrefix,
			KeyTTL:    cfg.Queue.KeyTTL,
			MaxAge:    cfg.Queue.MaxAge,
		})
	}

	var sub port.Subscriber
	switch cfg.Upstream.Driver {
	case "nats":
		nc, err := nats.NewClient(cfg.Upstream.NATSURL, log)
		if err != nil {
			return nil, err
		}
		rt.NATS = nc
		rt.closers = append(rt.closers, nc.Close)
		rt.deps.Health = append(rt.deps.Health, nc)
		sub = nc
	default:
		s := eventsredis.NewSubscriber(rt.Redis, log)
		rt.closers = append(rt.closers, s.Close)
		sub = s
	}
	rt.deps.Subscriber = sub

	log.Info("runtime opened",
		slog.String("store", cfg.Store.Driver),
		slog.String("queue", cfg.Queue.Driver),
		slog.String("upstream", cfg.Upstream.Driver))
	return rt, nil
}

// Deps returns the adapters backing the application graph.
func (rt *Runtime) Deps() app.Deps {
	return rt.deps
}

// Close releases connections in reverse order of opening.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

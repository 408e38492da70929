// siterelay relays site events from an upstream pubsub channel to admitted
// WebSocket viewers and turns classifiable events into push notifications.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/strogmv/siterelay/internal/app"
	"github.com/strogmv/siterelay/internal/bootstrap"
	"github.com/strogmv/siterelay/internal/config"
	"github.com/strogmv/siterelay/internal/pkg/logger"
	"github.com/strogmv/siterelay/internal/pkg/tracing"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var configPath string
	flagSet := pflag.NewFlagSet("siterelay", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to a YAML or JSON config file; environment variables override it")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.Init(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("flush traces", slog.Any("error", err))
		}
	}()

	rt, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			log.Warn("close runtime", slog.Any("error", err))
		}
	}()

	container, err := app.NewContainer(cfg, rt.Deps(), log)
	if err != nil {
		return err
	}

	log.Info("siterelay starting",
		slog.String("addr", cfg.HTTP.Addr),
		slog.String("channel", cfg.Upstream.Channel),
		slog.Bool("push", cfg.Push.Enabled))
	if err := container.Run(ctx); err != nil {
		return err
	}
	log.Info("siterelay stopped")
	return nil
}

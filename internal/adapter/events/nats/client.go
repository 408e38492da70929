package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	natspkg "github.com/nats-io/nats.go"

	"github.com/strogmv/siterelay/internal/port"
)

const subscriptionBuffer = 256

var errConnectionClosed = errors.New("nats connection closed")

// Client subscribes to a NATS subject as the upstream event source.
type Client struct {
	nc     *natspkg.Conn
	closed chan struct{}
	logger *slog.Logger
}

var (
	_ port.Subscriber    = (*Client)(nil)
	_ port.HealthChecker = (*Client)(nil)
)

func NewClient(url string, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	closed := make(chan struct{})
	var once sync.Once
	nc, err := natspkg.Connect(url,
		natspkg.Name("siterelay"),
		natspkg.MaxReconnects(-1),
		natspkg.DisconnectErrHandler(func(_ *natspkg.Conn, err error) {
			log.Warn("nats disconnected", slog.Any("error", err))
		}),
		natspkg.ReconnectHandler(func(c *natspkg.Conn) {
			log.Info("nats reconnected", slog.String("url", c.ConnectedUrl()))
		}),
		natspkg.ClosedHandler(func(*natspkg.Conn) {
			once.Do(func() { close(closed) })
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Client{nc: nc, closed: closed, logger: log}, nil
}

func (c *Client) Close() error {
	c.nc.Close()
	return nil
}

func (c *Client) IsConnected() bool {
	return c.nc != nil && c.nc.Status() == natspkg.CONNECTED
}

func (c *Client) Name() string { return "nats" }

func (c *Client) Ping(ctx context.Context) error {
	if !c.IsConnected() {
		return errConnectionClosed
	}
	return c.nc.FlushWithContext(ctx)
}

// Subscribe treats the channel name as the subject.
func (c *Client) Subscribe(ctx context.Context, subject string, handler port.MessageHandler) error {
	msgs := make(chan *natspkg.Msg, subscriptionBuffer)
	sub, err := c.nc.ChanSubscribe(subject, msgs)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	c.logger.Info("subscribed to upstream subject", slog.String("subject", subject))
	return deliver(ctx, msgs, c.closed, handler)
}

// deliver invokes handler for each message until ctx is done or closed fires.
func deliver(ctx context.Context, msgs <-chan *natspkg.Msg, closed <-chan struct{}, handler port.MessageHandler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-closed:
			return errConnectionClosed
		case msg := <-msgs:
			handler(ctx, msg.Subject, msg.Data)
		}
	}
}

package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/strogmv/siterelay/internal/domain"
	"github.com/strogmv/siterelay/internal/pkg/metrics"
	"github.com/strogmv/siterelay/internal/port"
)

const defaultSendBuffer = 64

// Client is an admitted connection as seen by the hub.
type Client struct {
	ID   string
	send chan []byte
	done chan struct{}
	once sync.Once
}

// NewClient allocates a client with a bounded outbound buffer.
func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = defaultSendBuffer
	}
	return &Client{
		ID:   id,
		send: make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

// Send yields encoded frames queued for the connection.
func (c *Client) Send() <-chan []byte { return c.send }

// Done is closed once the client leaves the hub.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) close() {
	c.once.Do(func() { close(c.done) })
}

// Hub tracks admitted connections and fans events out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *slog.Logger
}

var _ port.Broadcaster = (*Hub)(nil)

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		clients: make(map[string]*Client),
		logger:  log,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	total := len(h.clients)
	h.mu.Unlock()
	metrics.Connections.Inc()
	h.logger.Debug("client registered", slog.String("client", c.ID), slog.Int("total", total))
}

// Unregister removes c and closes its done channel. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c.ID]
	if ok {
		delete(h.clients, c.ID)
	}
	h.mu.Unlock()
	c.close()
	if ok {
		metrics.Connections.Dec()
		h.logger.Debug("client unregistered", slog.String("client", c.ID))
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues event on every client registered when the call starts.
// A client whose buffer is full is dropped instead of blocking the fan-out.
func (h *Hub) Broadcast(_ context.Context, event domain.Event) {
	frame, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("encode event", slog.String("event", event.ID), slog.Any("error", err))
		return
	}

	h.mu.RLock()
	snapshot := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.RUnlock()

	var slow []*Client
	for _, c := range snapshot {
		select {
		case <-c.done:
			continue
		default:
		}
		select {
		case c.send <- frame:
		default:
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		h.logger.Warn("dropping client: send buffer full", slog.String("client", c.ID))
		metrics.DroppedConnections.Inc()
		h.Unregister(c)
	}
	metrics.Broadcasts.WithLabelValues(eventKind(event.ID)).Inc()
	h.logger.Debug("broadcast", slog.String("event", event.ID), slog.Int("recipients", len(snapshot)-len(slow)))
}

// eventKind bounds the broadcast metric labels: upstream event ids are
// arbitrary strings.
func eventKind(id string) string {
	switch id {
	case domain.EventNotification, domain.EventSynchronisedTime:
		return "reserved"
	}
	return "upstream"
}

package ws

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// CloseAccessDenied is the close code sent to a denied connection.
	CloseAccessDenied = 4403

	credentialParam = "sessionId"
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxInboundBytes = 4096
)

// HandlerConfig tunes the WebSocket endpoint.
type HandlerConfig struct {
	// AllowedOrigins restricts the Origin header; empty or "*" allows any.
	AllowedOrigins []string
	// HandshakeTimeout bounds the wait for the credential frame.
	HandshakeTimeout time.Duration
	SendBuffer       int
}

// Handler upgrades requests, gates them and attaches admitted
// connections to the hub.
type Handler struct {
	hub      *Hub
	gate     *Gate
	cfg      HandlerConfig
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewHandler(hub *Hub, gate *Gate, cfg HandlerConfig, log *slog.Logger) *Handler {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = DefaultAdmissionTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{hub: hub, gate: gate, cfg: cfg, logger: log}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

type handshakeFrame struct {
	SessionID any `json:"sessionId"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", slog.Any("error", err))
		return
	}
	h.logger.Debug("got a connection", slog.String("remote", r.RemoteAddr))

	hs, err := h.readHandshake(conn, r)
	if err == nil {
		err = h.gate.Admit(r.Context(), hs)
	}
	if err != nil {
		h.deny(conn, err)
		return
	}

	client := NewClient(uuid.NewString(), h.cfg.SendBuffer)
	h.hub.Register(client)
	go h.writePump(conn, client)
	h.readPump(conn, client)
}

// readHandshake takes the credential from the query string when present and
// otherwise from the first text frame.
func (h *Handler) readHandshake(conn *websocket.Conn, r *http.Request) (Handshake, error) {
	if q := r.URL.Query(); q.Has(credentialParam) {
		return Handshake{Credential: q.Get(credentialParam)}, nil
	}
	if err := conn.SetReadDeadline(time.Now().Add(h.cfg.HandshakeTimeout)); err != nil {
		return Handshake{}, err
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		return Handshake{}, fmt.Errorf("read handshake: %w", err)
	}
	var frame handshakeFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return Handshake{}, fmt.Errorf("decode handshake: %w", err)
	}
	return Handshake{Credential: frame.SessionID}, conn.SetReadDeadline(time.Time{})
}

func (h *Handler) deny(conn *websocket.Conn, err error) {
	msg := websocket.FormatCloseMessage(CloseAccessDenied, DenialReason(err))
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = conn.Close()
}

func (h *Handler) readPump(conn *websocket.Conn, c *Client) {
	defer func() {
		h.hub.Unregister(c)
		_ = conn.Close()
	}()
	conn.SetReadLimit(maxInboundBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) writePump(conn *websocket.Conn, c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case frame := <-c.Send():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.hub.Unregister(c)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				h.hub.Unregister(c)
				return
			}
		case <-c.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
			return
		}
	}
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
